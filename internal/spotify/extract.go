package spotify

import (
	"context"
	"fmt"
	"time"

	"tempo/internal/dataset"
	"tempo/internal/logging"
)

const categoriesLimit = 20

// BuildDataset assembles the denormalized raw snapshot: new releases
// enriched with their tracks and main artist details, audio features
// for every collected track, and browse categories.
//
// A failing new-releases call aborts extraction. Failures while
// enriching a single album, fetching one feature batch, or listing
// categories are logged and degrade that piece to empty so one bad
// record cannot sink the whole snapshot.
func (c *Client) BuildDataset(ctx context.Context) (*dataset.Dataset, error) {
	c.logger.Info("starting dataset extraction")

	releases, err := c.NewReleases(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract dataset: %w", err)
	}
	if len(releases) == 0 {
		c.logger.Error("no new releases found")
		return &dataset.Dataset{
			ExtractionTimestamp: time.Now().Format(time.RFC3339),
		}, nil
	}
	c.logger.Info("found new releases", logging.Int("count", len(releases)))

	var (
		albums   []dataset.Album
		trackIDs []string
	)
	for _, release := range releases {
		tracks, err := c.AlbumTracks(ctx, release.ID)
		if err != nil {
			c.logger.Error("skipping album, track listing failed",
				logging.String("album_id", release.ID),
				logging.Error(err),
			)
			continue
		}
		if len(tracks) == 0 {
			continue
		}

		album := c.enrichAlbum(ctx, release)
		album.Tracks = tracks
		albums = append(albums, album)
		for _, track := range tracks {
			trackIDs = append(trackIDs, track.ID)
		}
	}

	features := c.collectAudioFeatures(ctx, trackIDs)

	categories, err := c.Categories(ctx, categoriesLimit)
	if err != nil {
		c.logger.Error("category listing failed", logging.Error(err))
		categories = nil
	}

	c.logger.Info("dataset extraction complete",
		logging.Int("albums", len(albums)),
		logging.Int("tracks", len(trackIDs)),
		logging.Int("audio_features", len(features)),
		logging.Int("categories", len(categories)),
	)

	return &dataset.Dataset{
		ExtractionTimestamp: time.Now().Format(time.RFC3339),
		Releases:            albums,
		AudioFeatures:       features,
		Categories:          categories,
	}, nil
}

// enrichAlbum shapes one release item into the snapshot album record,
// pulling main artist details when an artist reference is present.
// Missing popularity defaults to zero here; downstream layers preserve
// nulls as-is.
func (c *Client) enrichAlbum(ctx context.Context, release Release) dataset.Album {
	album := dataset.Album{
		AlbumID:          release.ID,
		AlbumName:        release.Name,
		AlbumType:        release.AlbumType,
		ReleaseDate:      release.ReleaseDate,
		TotalTracks:      release.TotalTracks,
		Popularity:       release.Popularity,
		Artists:          release.Artists,
		SpotifyURL:       release.ExternalURLs.Spotify,
		AvailableMarkets: release.AvailableMarkets,
	}
	if album.Popularity == nil {
		zero := int64(0)
		album.Popularity = &zero
	}
	if len(release.Images) > 0 {
		url := release.Images[0].URL
		album.ImageURL = &url
	}

	if len(release.Artists) > 0 && release.Artists[0].ID != nil {
		details, err := c.Artist(ctx, *release.Artists[0].ID)
		if err != nil {
			c.logger.Error("artist lookup failed",
				logging.String("album_id", release.ID),
				logging.Error(err),
			)
		} else {
			album.MainArtistDetails = details
		}
	}
	return album
}

// collectAudioFeatures fetches analysis in batches. A failed batch is
// logged and dropped; entries from successful batches keep their
// position, nulls included.
func (c *Client) collectAudioFeatures(ctx context.Context, trackIDs []string) []*dataset.AudioFeature {
	var features []*dataset.AudioFeature
	for start := 0; start < len(trackIDs); start += c.batchSize {
		end := start + c.batchSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}
		batch, err := c.AudioFeatures(ctx, trackIDs[start:end])
		if err != nil {
			c.logger.Error("audio features batch failed",
				logging.Int("batch_start", start),
				logging.Error(err),
			)
			continue
		}
		features = append(features, batch...)
	}
	return features
}
