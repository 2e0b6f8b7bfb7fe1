package tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nix24/phoenixPlayer/internal/models"
)

// stubSource serves fixed playlists with two songs each.
type stubSource map[string]models.Playlist

func (s stubSource) Playlist(id string) *models.Playlist {
	p, ok := s[id]
	if !ok {
		return nil
	}
	return &p
}

func (s stubSource) PlaylistSongs(id string) []models.Song {
	if _, ok := s[id]; !ok {
		return nil
	}
	return []models.Song{
		{ID: 1, Title: "Song One", Artist: "Artist", Duration: 120},
		{ID: 2, Title: "Song Two", Artist: "Artist", Duration: 60},
	}
}

func newSource(ids ...string) stubSource {
	s := stubSource{}
	for _, id := range ids {
		s[id] = models.Playlist{ID: id, Name: "Playlist " + id}
	}
	return s
}

func TestBulkExport(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		ids       []string
		wantFiles int
	}{
		{name: "json", format: "json", ids: []string{"p1"}, wantFiles: 1},
		{name: "csv", format: "csv", ids: []string{"p1", "p2", "p3"}, wantFiles: 2},
		{name: "markdown", format: "markdown", ids: []string{"p1", "p2"}, wantFiles: 1},
		{name: "txt", format: "txt", ids: []string{"p1", "p2"}, wantFiles: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			exporter := NewExporter(newSource(tt.ids...))

			result, err := exporter.BulkExport(context.Background(), nil, tt.ids, BulkExportOpts{Format: tt.format, OutputDir: dir, NumWorkers: 2})
			if err != nil {
				t.Fatalf("BulkExport failed: %v", err)
			}

			if result.SuccessfulExports != len(tt.ids) || result.FailedExports != 0 {
				t.Errorf("expected %d successes, got %+v", len(tt.ids), result)
			}
			for _, res := range result.Results {
				if len(res.Files) != tt.wantFiles {
					t.Errorf("%s: expected %d files, got %v", res.PlaylistID, tt.wantFiles, res.Files)
				}
				for _, f := range res.Files {
					if _, err := os.Stat(f); err != nil {
						t.Errorf("missing file %s", f)
					}
				}
			}
			if result.ManifestPath != filepath.Join(dir, "export_manifest.json") {
				t.Errorf("unexpected manifest path %s", result.ManifestPath)
			}
		})
	}
}

func TestBulkExport_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(newSource("p1"))
	progress := make(chan ProgressUpdate, 10)

	result, err := exporter.BulkExport(context.Background(), progress, []string{"p1", "missing"}, BulkExportOpts{OutputDir: dir})
	if err != nil {
		t.Fatalf("BulkExport failed: %v", err)
	}
	if result.SuccessfulExports != 1 || result.FailedExports != 1 {
		t.Errorf("expected one success and one failure, got %+v", result)
	}

	data, err := os.ReadFile(result.ManifestPath)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	var manifest BulkExportResult
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("invalid manifest: %v", err)
	}
	if manifest.TotalPlaylists != 2 || len(manifest.Results) != 2 {
		t.Errorf("unexpected manifest %+v", manifest)
	}
	for _, r := range manifest.Results {
		if r.PlaylistID == "missing" && r.ErrorMessage == "" {
			t.Error("expected an error message for the missing playlist")
		}
	}

	close(progress)
	if len(progress) == 0 {
		t.Error("expected progress updates")
	}
}

func TestBulkExport_NoSource(t *testing.T) {
	if _, err := NewExporter(nil).BulkExport(context.Background(), nil, []string{"p1"}, BulkExportOpts{OutputDir: t.TempDir()}); err == nil {
		t.Error("expected error without a playlist source")
	}
}
