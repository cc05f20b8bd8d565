// Package spotify implements the extraction client for the Spotify Web
// API: client-credentials authentication, the catalog endpoints the
// pipeline reads, and assembly of the denormalized raw snapshot.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"tempo/internal/config"
	"tempo/internal/dataset"
	"tempo/internal/logging"
)

const userAgent = "tempo/0.1.0"

// Client calls the Spotify Web API. The underlying oauth2 transport
// acquires the bearer token on first use and refreshes it on expiry.
type Client struct {
	baseURL      string
	country      string
	releaseLimit int
	batchSize    int
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient builds a Client from configuration. The context governs
// the lifetime of token refresh requests.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) *Client {
	creds := &clientcredentials.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		TokenURL:     cfg.Spotify.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	httpClient := creds.Client(ctx)
	httpClient.Timeout = time.Duration(cfg.Spotify.RequestTimeout) * time.Second

	return &Client{
		baseURL:      cfg.Spotify.BaseURL,
		country:      cfg.Spotify.Country,
		releaseLimit: cfg.Spotify.ReleaseLimit,
		batchSize:    cfg.Spotify.FeatureBatchSize,
		httpClient:   httpClient,
		logger:       logging.NewComponentLogger(logger, "spotify"),
	}
}

// Release is the subset of the API album object the pipeline keeps.
type Release struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	AlbumType        *string              `json:"album_type"`
	ReleaseDate      *string              `json:"release_date"`
	TotalTracks      *int64               `json:"total_tracks"`
	Popularity       *int64               `json:"popularity"`
	Artists          []dataset.ArtistRef  `json:"artists"`
	Images           []image              `json:"images"`
	ExternalURLs     dataset.ExternalURLs `json:"external_urls"`
	AvailableMarkets []string             `json:"available_markets"`
}

type image struct {
	URL string `json:"url"`
}

// NewReleases fetches the newest releases, capped at the API limit.
func (c *Client) NewReleases(ctx context.Context) ([]Release, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.releaseLimit))
	if c.country != "" {
		params.Set("country", c.country)
	}

	var envelope struct {
		Albums struct {
			Items []Release `json:"items"`
		} `json:"albums"`
	}
	if err := c.get(ctx, "browse/new-releases", params, &envelope); err != nil {
		return nil, fmt.Errorf("get new releases: %w", err)
	}
	return envelope.Albums.Items, nil
}

// AlbumTracks fetches the tracks of one album.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]dataset.Track, error) {
	params := url.Values{}
	params.Set("limit", "50")

	var envelope struct {
		Items []dataset.Track `json:"items"`
	}
	if err := c.get(ctx, "albums/"+albumID+"/tracks", params, &envelope); err != nil {
		return nil, fmt.Errorf("get tracks for album %s: %w", albumID, err)
	}
	return envelope.Items, nil
}

// Artist fetches full details for one artist.
func (c *Client) Artist(ctx context.Context, artistID string) (*dataset.ArtistDetails, error) {
	var details dataset.ArtistDetails
	if err := c.get(ctx, "artists/"+artistID, nil, &details); err != nil {
		return nil, fmt.Errorf("get artist %s: %w", artistID, err)
	}
	return &details, nil
}

// AudioFeatures fetches analysis for up to one batch of track IDs.
// Null entries in the response are preserved: the API returns null for
// tracks it has no analysis for.
func (c *Client) AudioFeatures(ctx context.Context, trackIDs []string) ([]*dataset.AudioFeature, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}
	if len(trackIDs) > c.batchSize {
		c.logger.Warn("truncating audio features request to batch size",
			logging.Int("requested", len(trackIDs)),
			logging.Int("batch_size", c.batchSize),
		)
		trackIDs = trackIDs[:c.batchSize]
	}

	params := url.Values{}
	params.Set("ids", strings.Join(trackIDs, ","))

	var envelope struct {
		AudioFeatures []*dataset.AudioFeature `json:"audio_features"`
	}
	if err := c.get(ctx, "audio-features", params, &envelope); err != nil {
		return nil, fmt.Errorf("get audio features: %w", err)
	}
	return envelope.AudioFeatures, nil
}

// Categories fetches browse categories as opaque records.
func (c *Client) Categories(ctx context.Context, limit int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var envelope struct {
		Categories struct {
			Items []json.RawMessage `json:"items"`
		} `json:"categories"`
	}
	if err := c.get(ctx, "browse/categories", params, &envelope); err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	return envelope.Categories.Items, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	requestURL := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
