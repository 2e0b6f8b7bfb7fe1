package tasks

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/nix24/phoenixPlayer/internal/models"
	"golang.org/x/time/rate"
)

// SongAdder appends songs to the queue; implemented by the queue engine.
type SongAdder interface {
	AddSongs(ctx context.Context, inputs []models.SongInput) ([]int64, error)
}

// ImportOpts contains configuration for song imports.
type ImportOpts struct {
	BatchSize int     // Songs per transaction (default: 50)
	RateLimit float64 // Batches per second, 0 for unlimited
}

// ImportResult summarizes an import.
type ImportResult struct {
	Total    int        // Rows read from the manifest
	Imported int        // Songs added to the queue
	Batches  int        // Committed batches
	IDs      []int64    // Ids of the added songs, in manifest order
	Skipped  []RowError // Rows rejected during parsing
}

// Importer adds manifest songs to the queue in batches.
type Importer struct {
	songs   SongAdder
	opts    ImportOpts
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewImporter creates an Importer writing to songs.
func NewImporter(songs SongAdder, opts ImportOpts, logger *log.Logger) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Importer{
		songs:   songs,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// ImportFile parses the manifest at path and imports it.
func (i *Importer) ImportFile(ctx context.Context, progress chan<- ProgressUpdate, path string) (*ImportResult, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	manifest, err := ParseManifest(f, format)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, readManifestUpdate(path, len(manifest.Songs)))

	return i.Import(ctx, progress, manifest)
}

// Import adds every valid manifest song to the queue, one transaction per batch.
//
// A failed batch stops the import; batches committed before it stay in the queue
// and are reported in the result alongside the error.
func (i *Importer) Import(ctx context.Context, progress chan<- ProgressUpdate, manifest *Manifest) (*ImportResult, error) {
	result := &ImportResult{
		Total:   len(manifest.Songs) + len(manifest.Skipped),
		Skipped: manifest.Skipped,
		IDs:     make([]int64, 0, len(manifest.Songs)),
	}

	for _, row := range manifest.Skipped {
		i.logger.Warn("skipping manifest row", "row", row.Row, "err", row.Err)
		sendProgress(progress, skippedRowUpdate(row))
	}

	size := i.opts.BatchSize
	batches := (len(manifest.Songs) + size - 1) / size
	for b := range batches {
		if err := i.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("import interrupted: %w", err)
		}

		start := b * size
		end := min(start+size, len(manifest.Songs))

		ids, err := i.songs.AddSongs(ctx, manifest.Songs[start:end])
		if err != nil {
			return result, fmt.Errorf("failed to import batch %d/%d: %w", b+1, batches, err)
		}

		result.IDs = append(result.IDs, ids...)
		result.Imported += len(ids)
		result.Batches++
		sendProgress(progress, importBatchUpdate(b+1, batches, result.Imported, len(manifest.Songs)))
	}

	i.logger.Info("import finished", "imported", result.Imported, "skipped", len(result.Skipped), "batches", result.Batches)
	return result, nil
}
