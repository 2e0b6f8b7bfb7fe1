package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/projection"
	"github.com/nix24/phoenixPlayer/internal/queue"
	"github.com/nix24/phoenixPlayer/internal/shared"
	tu "github.com/nix24/phoenixPlayer/internal/testing"
)

// recordingAdder captures batches and can fail on a given call.
type recordingAdder struct {
	batches [][]models.SongInput
	failOn  int
	next    int64
}

func (r *recordingAdder) AddSongs(ctx context.Context, inputs []models.SongInput) ([]int64, error) {
	if r.failOn > 0 && len(r.batches)+1 == r.failOn {
		return nil, errors.New("storage unavailable")
	}
	r.batches = append(r.batches, inputs)
	ids := make([]int64, len(inputs))
	for i := range ids {
		r.next++
		ids[i] = r.next
	}
	return ids, nil
}

func TestParseManifest(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		input := "Title,Artist,Album,Year,Duration,Size\n" +
			"Blue in Green,Miles Davis,Kind of Blue,1959,337.5,8000000\n" +
			",No Title,,,,\n" +
			"Naima,John Coltrane,Giant Steps,nineteen,,\n" +
			"So What,Miles Davis,Kind of Blue,1959,562,\n"

		m, err := ParseManifest(strings.NewReader(input), FormatCSV)
		if err != nil {
			t.Fatalf("ParseManifest failed: %v", err)
		}

		if len(m.Songs) != 2 {
			t.Fatalf("expected 2 valid songs, got %d", len(m.Songs))
		}
		first := m.Songs[0]
		if first.Title != "Blue in Green" || first.Year != 1959 || first.Duration != 337.5 || first.Size != 8000000 {
			t.Errorf("unexpected first song %+v", first)
		}

		var rows []int
		for _, s := range m.Skipped {
			rows = append(rows, s.Row)
			if !errors.Is(s, shared.ErrInvalidInput) {
				t.Errorf("row %d: expected ErrInvalidInput, got %v", s.Row, s.Err)
			}
		}
		if !slices.Equal(rows, []int{2, 3}) {
			t.Errorf("expected rows 2 and 3 skipped, got %v", rows)
		}
	})

	t.Run("csv without title column", func(t *testing.T) {
		_, err := ParseManifest(strings.NewReader("artist,album\nA,B\n"), FormatCSV)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("empty csv", func(t *testing.T) {
		m, err := ParseManifest(strings.NewReader(""), FormatCSV)
		if err != nil || len(m.Songs) != 0 {
			t.Errorf("expected empty manifest, got %v, %v", m, err)
		}
	})

	t.Run("json", func(t *testing.T) {
		input := `[{"title":"Alpha","artist":"A","duration":100},{"title":""},{"title":"Beta","size":10}]`

		m, err := ParseManifest(strings.NewReader(input), FormatJSON)
		if err != nil {
			t.Fatalf("ParseManifest failed: %v", err)
		}
		if len(m.Songs) != 2 || m.Songs[1].Title != "Beta" {
			t.Errorf("unexpected songs %+v", m.Songs)
		}
		if len(m.Skipped) != 1 || m.Skipped[0].Row != 2 {
			t.Errorf("unexpected skipped rows %+v", m.Skipped)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := ParseManifest(strings.NewReader("{"), FormatJSON); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := ParseManifest(strings.NewReader(""), "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestFormatFromPath(t *testing.T) {
	tc := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "songs.csv", want: FormatCSV},
		{path: "dir/SONGS.JSON", want: FormatJSON},
		{path: "songs.xml", wantErr: true},
		{path: "songs", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFromPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatFromPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("batches in order", func(t *testing.T) {
		adder := &recordingAdder{}
		importer := NewImporter(adder, ImportOpts{BatchSize: 2}, nil)
		progress := make(chan ProgressUpdate, 10)

		result, err := importer.Import(ctx, progress, &Manifest{Songs: tu.SongInputs(5)})
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}

		if result.Imported != 5 || result.Batches != 3 || len(result.IDs) != 5 {
			t.Errorf("unexpected result %+v", result)
		}
		var sizes []int
		for _, b := range adder.batches {
			sizes = append(sizes, len(b))
		}
		if !slices.Equal(sizes, []int{2, 2, 1}) {
			t.Errorf("unexpected batch sizes %v", sizes)
		}
		if adder.batches[2][0].Title != "song 5" {
			t.Errorf("songs out of order: %+v", adder.batches[2])
		}

		close(progress)
		var updates []ProgressUpdate
		for u := range progress {
			updates = append(updates, u)
		}
		if len(updates) != 3 || updates[2].Phase != ImportSongs || updates[2].Step != 3 {
			t.Errorf("unexpected progress updates %+v", updates)
		}
	})

	t.Run("failed batch keeps earlier batches", func(t *testing.T) {
		adder := &recordingAdder{failOn: 2}
		importer := NewImporter(adder, ImportOpts{BatchSize: 2}, nil)

		result, err := importer.Import(ctx, nil, &Manifest{Songs: tu.SongInputs(5)})
		if err == nil {
			t.Fatal("expected error")
		}
		if result.Imported != 2 || result.Batches != 1 {
			t.Errorf("expected the first batch reported, got %+v", result)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		importer := NewImporter(&recordingAdder{}, ImportOpts{BatchSize: 1, RateLimit: 1}, nil)
		if _, err := importer.Import(cctx, nil, &Manifest{Songs: tu.SongInputs(2)}); err == nil {
			t.Error("expected error for a cancelled context")
		}
	})

	t.Run("progress never blocks", func(t *testing.T) {
		importer := NewImporter(&recordingAdder{}, ImportOpts{BatchSize: 1}, nil)
		progress := make(chan ProgressUpdate)

		if _, err := importer.Import(ctx, progress, &Manifest{Songs: tu.SongInputs(3)}); err != nil {
			t.Fatalf("Import failed: %v", err)
		}
	})
}

func TestImporter_ImportFile(t *testing.T) {
	ctx := context.Background()

	store := tu.NewTestStore(t)
	engine := queue.NewEngine(store, projection.New())
	if err := engine.Initialize(ctx); err != nil {
		t.Fatalf("failed to initialize: %v", err)
	}

	path := filepath.Join(t.TempDir(), "songs.csv")
	tu.MustWriteFile(t, path, "title,artist\nOne,A\nTwo,B\nThree,C\n")

	result, err := NewImporter(engine, ImportOpts{BatchSize: 2}, nil).ImportFile(ctx, nil, path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if result.Imported != 3 {
		t.Fatalf("expected 3 songs, got %d", result.Imported)
	}

	var titles []string
	for _, s := range engine.Ordered() {
		titles = append(titles, s.Title)
	}
	if !slices.Equal(titles, []string{"One", "Two", "Three"}) {
		t.Errorf("unexpected queue order %v", titles)
	}

	report, err := engine.Verify(ctx)
	if err != nil || !report.OK() {
		t.Errorf("queue inconsistent after import: %v %v", report.Issues, err)
	}

	if _, err := NewImporter(engine, ImportOpts{}, nil).ImportFile(ctx, nil, filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for a missing file")
	}
}
