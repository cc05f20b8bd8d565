package transform

import (
	"log/slog"
	"strings"
	"time"

	"tempo/internal/dataset"
	"tempo/internal/logging"
)

// unknownArtist substitutes for a track artist whose name is missing,
// so the joined artists string keeps one segment per artist.
const unknownArtist = "Unknown Artist"

// Transformer reshapes one raw snapshot into flat tables. Tables are
// cached on the instance so the merge can materialize its inputs on
// demand; an instance is used by a single pipeline run sequentially and
// is not safe for concurrent use.
type Transformer struct {
	raw    *dataset.Dataset
	logger *slog.Logger
	now    func() time.Time

	albums     AlbumTable
	tracks     TrackTable
	features   AudioFeatureTable
	categories CategoryTable
}

// New creates a Transformer for the given snapshot.
func New(raw *dataset.Dataset, logger *slog.Logger) *Transformer {
	if raw == nil {
		raw = &dataset.Dataset{}
	}
	return &Transformer{
		raw:    raw,
		logger: logging.NewComponentLogger(logger, "transform"),
		now:    time.Now,
	}
}

// extractionDate is the calendar date stamped on every row of a table.
// It is recomputed per table call, not taken from the snapshot's
// extraction_timestamp; tables produced across a midnight boundary may
// therefore carry different dates. That skew is accepted behavior.
func (t *Transformer) extractionDate() string {
	return t.now().Format("2006-01-02")
}

// Albums flattens the releases into one row per album.
func (t *Transformer) Albums() AlbumTable {
	t.logger.Debug("transforming album data")
	date := t.extractionDate()

	rows := make(AlbumTable, 0, len(t.raw.Releases))
	for _, album := range t.raw.Releases {
		row := AlbumRow{
			AlbumID:        album.AlbumID,
			AlbumName:      album.AlbumName,
			AlbumType:      album.AlbumType,
			ReleaseDate:    album.ReleaseDate,
			TotalTracks:    album.TotalTracks,
			Popularity:     album.Popularity,
			ArtistGenres:   joinGenres(album.MainArtistDetails),
			ImageURL:       album.ImageURL,
			SpotifyURL:     album.SpotifyURL,
			ExtractionDate: date,
		}
		if len(album.Artists) > 0 {
			row.MainArtistID = album.Artists[0].ID
			row.MainArtistName = album.Artists[0].Name
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		t.logger.Warn("no album data to transform")
	} else {
		t.logger.Info("transformed album records", logging.Int("count", len(rows)))
	}
	t.albums = rows
	return rows
}

// Tracks flattens every album's track list into one row per track.
func (t *Transformer) Tracks() TrackTable {
	t.logger.Debug("transforming track data")
	date := t.extractionDate()

	var rows TrackTable
	for _, album := range t.raw.Releases {
		for _, track := range album.Tracks {
			rows = append(rows, TrackRow{
				TrackID:        track.ID,
				TrackName:      track.Name,
				AlbumID:        album.AlbumID,
				Artists:        joinArtistNames(track.Artists),
				TrackNumber:    track.TrackNumber,
				DurationMS:     track.DurationMS,
				Explicit:       track.Explicit != nil && *track.Explicit,
				SpotifyURL:     track.ExternalURLs.Spotify,
				ExtractionDate: date,
			})
		}
	}
	if rows == nil {
		rows = TrackTable{}
	}

	if len(rows) == 0 {
		t.logger.Warn("no track data to transform")
	} else {
		t.logger.Info("transformed track records", logging.Int("count", len(rows)))
	}
	t.tracks = rows
	return rows
}

// AudioFeatures flattens the analysis entries, skipping null entries
// entirely: a null marks "no features available for this track" and
// contributes no row.
func (t *Transformer) AudioFeatures() AudioFeatureTable {
	t.logger.Debug("transforming audio features data")
	date := t.extractionDate()

	rows := make(AudioFeatureTable, 0, len(t.raw.AudioFeatures))
	for _, feature := range t.raw.AudioFeatures {
		if feature == nil {
			continue
		}
		rows = append(rows, AudioFeatureRow{
			TrackID:        feature.ID,
			Danceability:   feature.Danceability,
			Energy:         feature.Energy,
			Loudness:       feature.Loudness,
			Tempo:          feature.Tempo,
			ExtractionDate: date,
		})
	}

	if len(rows) == 0 {
		t.logger.Warn("no audio features data to transform")
	} else {
		t.logger.Info("transformed audio feature records", logging.Int("count", len(rows)))
	}
	t.features = rows
	return rows
}

// Categories returns the categories placeholder table. Raw category
// records are persisted with the snapshot but not reshaped here, so the
// table is always empty.
func (t *Transformer) Categories() CategoryTable {
	t.categories = CategoryTable{}
	return t.categories
}

// MergeTrackAudioFeatures left-joins tracks against audio features on
// track_id. Tracks drive the join: every track row appears exactly
// once, with null feature columns when no analysis matched. Both inputs
// are materialized on demand if a prior call has not produced them.
// Without tracks there is nothing to join and the merge reports the
// condition; a missing features side only means every feature column
// stays null.
func (t *Transformer) MergeTrackAudioFeatures() MergedTable {
	t.logger.Debug("merging track and audio feature data")

	if len(t.tracks) == 0 {
		t.logger.Warn("tracks table empty, materializing before merge")
		t.Tracks()
	}
	if len(t.features) == 0 {
		t.logger.Warn("audio features table empty, materializing before merge")
		t.AudioFeatures()
	}

	if len(t.tracks) == 0 {
		t.logger.Error("cannot merge track and audio features data, no tracks to join",
			logging.Int("audio_features", len(t.features)),
		)
		return MergedTable{}
	}
	if len(t.features) == 0 {
		t.logger.Warn("no audio features to join, feature columns stay null",
			logging.Int("tracks", len(t.tracks)),
		)
	}

	// First analysis row per track_id wins; duplicates must not
	// multiply track rows.
	index := make(map[string]AudioFeatureRow, len(t.features))
	for _, feature := range t.features {
		if _, ok := index[feature.TrackID]; !ok {
			index[feature.TrackID] = feature
		}
	}

	merged := make(MergedTable, 0, len(t.tracks))
	for _, track := range t.tracks {
		row := MergedRow{
			TrackID:        track.TrackID,
			TrackName:      track.TrackName,
			AlbumID:        track.AlbumID,
			Artists:        track.Artists,
			TrackNumber:    track.TrackNumber,
			DurationMS:     track.DurationMS,
			Explicit:       track.Explicit,
			SpotifyURL:     track.SpotifyURL,
			ExtractionDate: track.ExtractionDate,
		}
		if feature, ok := index[track.TrackID]; ok {
			row.Danceability = feature.Danceability
			row.Energy = feature.Energy
			row.Loudness = feature.Loudness
			row.Tempo = feature.Tempo
		}
		merged = append(merged, row)
	}

	t.logger.Info("merged dataset created", logging.Int("count", len(merged)))
	return merged
}

// All produces the four base tables. The merged table is a separate
// call made by the pipeline when configured.
func (t *Transformer) All() map[string]Table {
	t.logger.Debug("starting transformation for all datasets")
	return map[string]Table{
		TableAlbums:        t.Albums(),
		TableTracks:        t.Tracks(),
		TableAudioFeatures: t.AudioFeatures(),
		TableCategories:    t.Categories(),
	}
}

func joinGenres(details *dataset.ArtistDetails) string {
	if details == nil || len(details.Genres) == 0 {
		return ""
	}
	return strings.Join(details.Genres, ", ")
}

func joinArtistNames(artists []dataset.ArtistRef) string {
	if len(artists) == 0 {
		return ""
	}
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		if artist.Name == nil {
			names = append(names, unknownArtist)
			continue
		}
		names = append(names, *artist.Name)
	}
	return strings.Join(names, ", ")
}
