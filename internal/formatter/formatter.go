// package formatter provides functions to export playlists and song lists to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

// Export is a named song list ready to be written out: a playlist resolved to its songs, or the queue in order.
type Export struct {
	ID    string
	Name  string
	Songs []models.Song
}

// PlaylistExport builds an [Export] from a playlist and its resolved songs.
func PlaylistExport(p models.Playlist, songs []models.Song) *Export {
	return &Export{ID: p.ID, Name: p.Name, Songs: songs}
}

// TotalDuration returns the summed duration of every song in seconds.
func (e *Export) TotalDuration() float64 {
	var total float64
	for _, s := range e.Songs {
		total += s.Duration
	}
	return total
}

// TotalSize returns the summed size of every song in bytes.
func (e *Export) TotalSize() int64 {
	var total int64
	for _, s := range e.Songs {
		total += s.Size
	}
	return total
}

// ExportToCSV converts an Export to CSV format with columns: ID, Title, Artist, Album, Year, Track, Duration, Size
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Year", "Track", "Duration", "Size"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range export.Songs {
		record := []string{
			strconv.FormatInt(song.ID, 10),
			song.Title,
			song.Artist,
			song.Album,
			strconv.Itoa(song.Year),
			strconv.Itoa(song.Track),
			strconv.FormatFloat(song.Duration, 'f', -1, 64),
			strconv.FormatInt(song.Size, 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an Export to Markdown format.
//
// The cover art of the first song that has one is used as the cover image.
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Name)

	for _, song := range export.Songs {
		if song.CoverArt != "" {
			fmt.Fprintf(&buf, "![Cover](%s)\n\n", song.CoverArt)
			break
		}
	}

	fmt.Fprintf(&buf, "**Songs**: %d\n", len(export.Songs))
	fmt.Fprintf(&buf, "**Length**: %s\n", shared.FormatClock(export.TotalDuration()))
	fmt.Fprintf(&buf, "**Size**: %s\n\n", shared.FormatBytes(export.TotalSize(), 2))

	buf.WriteString("## Songs\n\n")
	for i, song := range export.Songs {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s]\n", i+1, song.String(), albumPart, shared.FormatDuration(song.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text format
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Name)
	fmt.Fprintf(&buf, "Songs: %d (%s)\n\n", len(export.Songs), shared.FormatClock(export.TotalDuration()))

	for i, song := range export.Songs {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, song.String())
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of the export metadata (without songs)
func ToMetadataJSON(export *Export) ([]byte, error) {
	meta := struct {
		ID       string  `json:"id,omitempty"`
		Name     string  `json:"name"`
		Songs    int     `json:"songs"`
		Duration float64 `json:"duration"`
		Size     int64   `json:"size"`
	}{
		ID:       export.ID,
		Name:     export.Name,
		Songs:    len(export.Songs),
		Duration: export.TotalDuration(),
		Size:     export.TotalSize(),
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SongsFile    string
	MetadataFile string
}

// WriteCSVExport exports a song list to CSV format with accompanying metadata JSON file.
//
// Defaults to the export ID as the base filename & creates {base}_songs.csv and {base}_metadata.json
func WriteCSVExport(export *Export, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	songsFile := baseFilepath + "_songs.csv"
	if err := os.WriteFile(songsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		SongsFile:    songsFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a song list to {dir}/README.md, creating the directory.
//
// Directory name defaults to the export ID.
func WriteMarkdownExport(export *Export, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = export.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports a song list to plain text format.
//
// Defaults to {export.ID}_songs.txt as the filename.
func WriteTextExport(export *Export, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_songs.txt", export.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
