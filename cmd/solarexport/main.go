// Command solarexport generates a series, optionally plays part of it back,
// and writes it as a CSV or XLSX file without starting the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"

	"github.com/solarsim/solarsim/pkg/catalog"
	"github.com/solarsim/solarsim/pkg/export"
	"github.com/solarsim/solarsim/pkg/generator"
	"github.com/solarsim/solarsim/pkg/log"
	"github.com/solarsim/solarsim/pkg/playback"
	"github.com/solarsim/solarsim/pkg/session"
	"github.com/solarsim/solarsim/pkg/storage"
	"github.com/solarsim/solarsim/pkg/types"
)

func main() {
	cat := catalog.Configured()
	gen := generator.Configured(cat)
	settings := session.ConfiguredSettings()
	s := storage.Configured()

	formatFlag := lflag.String("format", "csv", "Export format (csv or xlsx)")
	outDir := lflag.String("out-dir", ".", "Directory the export is written to")
	var advance int
	lflag.JSON(&advance, "advance", advance, "Number of ticks to play back before summarizing")
	archive := lflag.Bool("archive", false, "Also save the export to the configured storage")

	lflag.Configure()

	if llog.GetLevel() == llog.DebugLevel {
		log.SetDefaultLogLevel(slog.LevelDebug)
	}
	// stdout carries the summary
	log.SetDefaultOutput(os.Stderr)

	ctx := context.Background()
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	if err := run(ctx, gen, *settings, s, *formatFlag, *outDir, advance, *archive); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "export failed", "error", err)
		os.Exit(1)
	}
}

// summary is printed to stdout after the export is written.
type summary struct {
	Path  string              `json:"path"`
	Rows  int                 `json:"rows"`
	State types.PlaybackState `json:"state"`
	Today types.Aggregate     `json:"today"`
}

func run(
	ctx context.Context,
	gen session.Generator,
	settings types.Settings,
	db storage.Database,
	formatFlag string,
	outDir string,
	advance int,
	archive bool,
) error {
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	if advance < 0 {
		return fmt.Errorf("%w: advance cannot be negative", types.ErrInvalidParameter)
	}

	sched := &playback.ManualScheduler{}
	sess, err := session.New(ctx, gen, playback.New(playback.WithScheduler(sched)), settings)
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.Start()
	for i := 0; i < advance; i++ {
		if sched.Fire() == 0 {
			// playback reached the end
			break
		}
	}

	rec, err := sess.ExportRecord(format)
	if err != nil {
		return err
	}
	path := filepath.Join(outDir, rec.Filename)
	if err := os.WriteFile(path, rec.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Ctx(ctx).InfoContext(ctx, "wrote export", slog.String("path", path), slog.Int("rows", rec.Rows))

	if archive {
		if err := db.SaveExport(ctx, rec); err != nil {
			return fmt.Errorf("failed to archive export: %w", err)
		}
		log.Ctx(ctx).InfoContext(ctx, "archived export", slog.String("id", rec.ID))
	}

	snap := sess.Snapshot()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary{
		Path:  path,
		Rows:  rec.Rows,
		State: snap.State,
		Today: snap.Today,
	})
}
