package config

const (
	defaultDataDir            = "~/.local/share/tempo/data"
	defaultLogDir             = "~/.local/share/tempo/logs"
	defaultSpotifyBaseURL     = "https://api.spotify.com/v1"
	defaultSpotifyTokenURL    = "https://accounts.spotify.com/api/token"
	defaultReleaseLimit       = 50
	defaultFeatureBatchSize   = 100
	defaultRequestTimeout     = 30
	defaultOutputFormat       = "csv"
	defaultOutputPrefix       = "spotify"
	defaultScheduleInterval   = 1440
	defaultErrorRetryInterval = 30
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"

	// Spotify API hard caps for the endpoints the client calls.
	maxReleaseLimit     = 50
	maxFeatureBatchSize = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Spotify: Spotify{
			BaseURL:          defaultSpotifyBaseURL,
			TokenURL:         defaultSpotifyTokenURL,
			ReleaseLimit:     defaultReleaseLimit,
			FeatureBatchSize: defaultFeatureBatchSize,
			RequestTimeout:   defaultRequestTimeout,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Output: Output{
			Format: defaultOutputFormat,
			Prefix: defaultOutputPrefix,
		},
		Transform: Transform{
			MergeTracksFeatures: true,
		},
		Workflow: Workflow{
			ScheduleInterval:   defaultScheduleInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			OnSuccess:      true,
			OnFailure:      true,
			OnEmptyDataset: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
