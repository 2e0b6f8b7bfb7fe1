package tasks

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

// Manifest formats accepted by [ParseManifest].
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// RowError records a manifest row that could not be imported. Rows are numbered from 1.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Manifest is a parsed song manifest: the valid rows in order and the rejected ones.
type Manifest struct {
	Songs   []models.SongInput
	Skipped []RowError
}

// FormatFromPath infers the manifest format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unsupported manifest extension %q", shared.ErrInvalidArgument, filepath.Ext(path))
}

// ParseManifest reads a CSV or JSON song manifest.
//
// CSV manifests need a header row naming at least a title column; column names are
// matched case-insensitively against title, artist, album, year, track, duration, size,
// cover_art and audio_ref. JSON manifests are an array of song objects.
func ParseManifest(r io.Reader, format string) (*Manifest, error) {
	switch format {
	case FormatCSV:
		return parseCSV(r)
	case FormatJSON:
		return parseJSON(r)
	}
	return nil, fmt.Errorf("%w: unsupported manifest format %q", shared.ErrInvalidArgument, format)
}

func parseJSON(r io.Reader) (*Manifest, error) {
	var rows []models.SongInput
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: failed to decode manifest: %v", shared.ErrInvalidInput, err)
	}

	m := &Manifest{}
	for i, in := range rows {
		m.add(i+1, in)
	}
	return m, nil
}

func parseCSV(r io.Reader) (*Manifest, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", shared.ErrInvalidInput, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, fmt.Errorf("%w: manifest has no title column", shared.ErrInvalidInput)
	}

	m := &Manifest{}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			m.Skipped = append(m.Skipped, RowError{Row: row, Err: err})
			continue
		}

		in, err := songFromRecord(columns, record)
		if err != nil {
			m.Skipped = append(m.Skipped, RowError{Row: row, Err: err})
			continue
		}
		m.add(row, in)
	}
	return m, nil
}

func (m *Manifest) add(row int, in models.SongInput) {
	if err := in.Validate(); err != nil {
		m.Skipped = append(m.Skipped, RowError{Row: row, Err: err})
		return
	}
	m.Songs = append(m.Songs, in)
}

func songFromRecord(columns map[string]int, record []string) (models.SongInput, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	in := models.SongInput{
		Title:    field("title"),
		Artist:   field("artist"),
		Album:    field("album"),
		CoverArt: field("cover_art"),
		AudioRef: field("audio_ref"),
	}

	var err error
	if in.Year, err = atoi(field("year")); err != nil {
		return in, fmt.Errorf("%w: year: %v", shared.ErrInvalidInput, err)
	}
	if in.Track, err = atoi(field("track")); err != nil {
		return in, fmt.Errorf("%w: track: %v", shared.ErrInvalidInput, err)
	}
	if v := field("duration"); v != "" {
		if in.Duration, err = strconv.ParseFloat(v, 64); err != nil {
			return in, fmt.Errorf("%w: duration: %v", shared.ErrInvalidInput, err)
		}
	}
	if v := field("size"); v != "" {
		if in.Size, err = strconv.ParseInt(v, 10, 64); err != nil {
			return in, fmt.Errorf("%w: size: %v", shared.ErrInvalidInput, err)
		}
	}
	return in, nil
}

func atoi(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
