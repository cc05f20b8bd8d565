package transform

// Table names used as keys in the transformer's output map and as the
// {name} part of processed file names.
const (
	TableAlbums        = "albums"
	TableTracks        = "tracks"
	TableAudioFeatures = "audio_features"
	TableCategories    = "categories"
	TableMerged        = "tracks_with_features"
)

// AlbumRow is one flattened release. Pointer fields are columns whose
// value may be absent in the raw snapshot; absence is preserved as null
// rather than replaced with a default.
type AlbumRow struct {
	AlbumID        string  `json:"album_id" parquet:"album_id"`
	AlbumName      string  `json:"album_name" parquet:"album_name"`
	AlbumType      *string `json:"album_type" parquet:"album_type"`
	ReleaseDate    *string `json:"release_date" parquet:"release_date"`
	TotalTracks    *int64  `json:"total_tracks" parquet:"total_tracks"`
	Popularity     *int64  `json:"popularity" parquet:"popularity"`
	MainArtistID   *string `json:"main_artist_id" parquet:"main_artist_id"`
	MainArtistName *string `json:"main_artist_name" parquet:"main_artist_name"`
	ArtistGenres   string  `json:"artist_genres" parquet:"artist_genres"`
	ImageURL       *string `json:"image_url" parquet:"image_url"`
	SpotifyURL     *string `json:"spotify_url" parquet:"spotify_url"`
	ExtractionDate string  `json:"extraction_date" parquet:"extraction_date"`
}

// TrackRow is one flattened track. AlbumID references the AlbumRow
// produced from the same release.
type TrackRow struct {
	TrackID        string  `json:"track_id" parquet:"track_id"`
	TrackName      *string `json:"track_name" parquet:"track_name"`
	AlbumID        string  `json:"album_id" parquet:"album_id"`
	Artists        string  `json:"artists" parquet:"artists"`
	TrackNumber    *int64  `json:"track_number" parquet:"track_number"`
	DurationMS     *int64  `json:"duration_ms" parquet:"duration_ms"`
	Explicit       bool    `json:"explicit" parquet:"explicit"`
	SpotifyURL     *string `json:"spotify_url" parquet:"spotify_url"`
	ExtractionDate string  `json:"extraction_date" parquet:"extraction_date"`
}

// AudioFeatureRow is one track's analysis values.
type AudioFeatureRow struct {
	TrackID        string   `json:"track_id" parquet:"track_id"`
	Danceability   *float64 `json:"danceability" parquet:"danceability"`
	Energy         *float64 `json:"energy" parquet:"energy"`
	Loudness       *float64 `json:"loudness" parquet:"loudness"`
	Tempo          *float64 `json:"tempo" parquet:"tempo"`
	ExtractionDate string   `json:"extraction_date" parquet:"extraction_date"`
}

// MergedRow is a TrackRow joined with its audio features. Feature
// columns stay null for tracks without a matching analysis row; the
// track-side extraction_date is the single authoritative copy.
type MergedRow struct {
	TrackID        string   `json:"track_id" parquet:"track_id"`
	TrackName      *string  `json:"track_name" parquet:"track_name"`
	AlbumID        string   `json:"album_id" parquet:"album_id"`
	Artists        string   `json:"artists" parquet:"artists"`
	TrackNumber    *int64   `json:"track_number" parquet:"track_number"`
	DurationMS     *int64   `json:"duration_ms" parquet:"duration_ms"`
	Explicit       bool     `json:"explicit" parquet:"explicit"`
	SpotifyURL     *string  `json:"spotify_url" parquet:"spotify_url"`
	ExtractionDate string   `json:"extraction_date" parquet:"extraction_date"`
	Danceability   *float64 `json:"danceability" parquet:"danceability"`
	Energy         *float64 `json:"energy" parquet:"energy"`
	Loudness       *float64 `json:"loudness" parquet:"loudness"`
	Tempo          *float64 `json:"tempo" parquet:"tempo"`
}

// CategoryRow is the shape the categories table would carry. Category
// records are extracted and persisted raw but not reshaped yet, so the
// table is always produced empty; the loader's skip-empty rule keeps it
// off disk.
type CategoryRow struct {
	CategoryID     string `json:"category_id" parquet:"category_id"`
	CategoryName   string `json:"category_name" parquet:"category_name"`
	ExtractionDate string `json:"extraction_date" parquet:"extraction_date"`
}
