package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/solarsim/solarsim/pkg/types"
)

var (
	ErrExportNotFound = errors.New("export not found")
)

// DefaultListLimit is used when ListExports is called with a non-positive
// limit.
const DefaultListLimit = 50

// Database archives exported series so they can be downloaded again later.
type Database interface {
	// SaveExport stores rec under rec.ID, replacing any existing record.
	SaveExport(ctx context.Context, rec types.ExportRecord) error
	// GetExport returns the record with its data or ErrExportNotFound.
	GetExport(ctx context.Context, id string) (types.ExportRecord, error)
	// ListExports returns up to limit records, newest first, without data.
	ListExports(ctx context.Context, limit int) ([]types.ExportRecord, error)

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "memory", "Storage provider to use (available: memory, firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "memory":
			p.Database = NewMemory()
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}

func validateRecord(rec types.ExportRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: export id cannot be empty", types.ErrInvalidParameter)
	}
	return nil
}
