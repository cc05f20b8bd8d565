// Package store persists pipeline output across the three data tiers:
// raw JSON snapshots, processed tables, and final latest-pointers.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"tempo/internal/config"
	"tempo/internal/dataset"
	"tempo/internal/logging"
	"tempo/internal/transform"
)

// TimestampFormat names output files so they sort chronologically.
const TimestampFormat = "20060102_150405"

// FormatCSV and FormatParquet are the supported processed-table formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// SavedTable records where one processed table landed and how many
// rows it carries.
type SavedTable struct {
	Name string
	Path string
	Rows int
}

// Store writes pipeline artifacts under the configured data directory.
type Store struct {
	rawDir       string
	processedDir string
	finalDir     string
	format       string
	prefix       string
	logger       *slog.Logger
}

// New creates the data tiers if missing and returns a Store.
func New(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return &Store{
		rawDir:       cfg.RawDir(),
		processedDir: cfg.ProcessedDir(),
		finalDir:     cfg.FinalDir(),
		format:       cfg.Output.Format,
		prefix:       cfg.Output.Prefix,
		logger:       logging.NewComponentLogger(logger, "store"),
	}, nil
}

// Timestamp returns the file timestamp for a run starting now.
func Timestamp() string {
	return time.Now().Format(TimestampFormat)
}

// SaveRaw writes the snapshot as indented JSON into the raw tier and
// returns the file path.
func (s *Store) SaveRaw(ds *dataset.Dataset, timestamp string) (string, error) {
	payload, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode raw dataset: %w", err)
	}

	path := filepath.Join(s.rawDir, fmt.Sprintf("%s_%s.json", s.prefix, timestamp))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write raw dataset: %w", err)
	}

	s.logger.Info("saved raw dataset", logging.String("path", path))
	return path, nil
}

// LatestRaw returns the newest raw snapshot on disk, determined by the
// timestamp embedded in the file name.
func (s *Store) LatestRaw() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.rawDir, "*.json"))
	if err != nil {
		return "", fmt.Errorf("list raw datasets: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no raw datasets in %s", s.rawDir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// SaveTables writes every non-empty table into the processed tier in
// the configured format. Empty tables are skipped with a warning, the
// way an empty categories table stays off disk.
func (s *Store) SaveTables(tables map[string]transform.Table, timestamp string) ([]SavedTable, error) {
	if s.format != FormatCSV && s.format != FormatParquet {
		return nil, fmt.Errorf("unsupported output format %q", s.format)
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var saved []SavedTable
	for _, name := range names {
		table := tables[name]
		if table.Len() == 0 {
			s.logger.Warn("skipping empty table", logging.Table(name))
			continue
		}

		path := filepath.Join(s.processedDir,
			fmt.Sprintf("%s_%s_%s.%s", s.prefix, name, timestamp, s.format))
		if err := s.writeTable(table, path); err != nil {
			return nil, fmt.Errorf("save table %s: %w", name, err)
		}

		s.logger.Info("saved processed table",
			logging.Table(name),
			logging.Int("rows", table.Len()),
			logging.String("path", path),
		)
		saved = append(saved, SavedTable{Name: name, Path: path, Rows: table.Len()})
	}
	return saved, nil
}

func (s *Store) writeTable(table transform.Table, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	switch s.format {
	case FormatCSV:
		err = table.WriteCSV(file)
	case FormatParquet:
		err = table.WriteParquet(file)
	}
	if err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LinkLatest refreshes the final tier: one relative symlink per table
// pointing at its newest processed file. Existing links are replaced.
func (s *Store) LinkLatest(saved []SavedTable) error {
	for _, entry := range saved {
		linkPath := filepath.Join(s.finalDir,
			fmt.Sprintf("%s_latest%s", entry.Name, filepath.Ext(entry.Path)))

		target, err := filepath.Rel(s.finalDir, entry.Path)
		if err != nil {
			return fmt.Errorf("resolve link target for %s: %w", entry.Name, err)
		}

		if err := os.Remove(linkPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale link %s: %w", linkPath, err)
		}
		if err := os.Symlink(target, linkPath); err != nil {
			return fmt.Errorf("link latest for %s: %w", entry.Name, err)
		}
		s.logger.Debug("updated latest link",
			logging.Table(entry.Name),
			logging.String("target", target),
		)
	}
	return nil
}
