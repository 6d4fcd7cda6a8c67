package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solarsim/solarsim/pkg/log"
	"github.com/solarsim/solarsim/pkg/types"
)

const exportsCollection = "exports"

// FirestoreProvider implements Database using Google Cloud Firestore. Each
// export is one document in the "exports" collection.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
	emulator  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.emulator = *emulator

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured. An empty project
// id is allowed since it can be detected from the environment, except with
// the emulator, which has no credentials to detect it from.
func (f *FirestoreProvider) Validate() error {
	emulator := f.emulator
	if emulator == "" {
		emulator = os.Getenv("FIRESTORE_EMULATOR_HOST")
	}
	if emulator == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(emulator); err != nil {
		return fmt.Errorf("invalid firestore emulator address %q: %w", emulator, err)
	}
	if f.projectID == "" {
		return errors.New("firestore-project-id is required with the emulator")
	}
	return nil
}

// Init creates the Firestore client. It must be called before any other
// method.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

type exportDoc struct {
	LocationID string    `firestore:"locationID"`
	ModelID    string    `firestore:"modelID"`
	RangeDays  int       `firestore:"rangeDays"`
	Format     string    `firestore:"format"`
	Filename   string    `firestore:"filename"`
	Rows       int       `firestore:"rows"`
	CreatedAt  time.Time `firestore:"createdAt"`
	Data       []byte    `firestore:"data,omitempty"`
}

// metadataFields are every exportDoc field except data.
var metadataFields = []string{"locationID", "modelID", "rangeDays", "format", "filename", "rows", "createdAt"}

func (d exportDoc) record(id string) types.ExportRecord {
	return types.ExportRecord{
		ID:         id,
		LocationID: d.LocationID,
		ModelID:    d.ModelID,
		RangeDays:  d.RangeDays,
		Format:     types.ExportFormat(d.Format),
		Filename:   d.Filename,
		Rows:       d.Rows,
		CreatedAt:  d.CreatedAt,
		Data:       d.Data,
	}
}

// SaveExport writes rec to exports/<id>.
func (f *FirestoreProvider) SaveExport(ctx context.Context, rec types.ExportRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	doc := exportDoc{
		LocationID: rec.LocationID,
		ModelID:    rec.ModelID,
		RangeDays:  rec.RangeDays,
		Format:     string(rec.Format),
		Filename:   rec.Filename,
		Rows:       rec.Rows,
		CreatedAt:  rec.CreatedAt.UTC(),
		Data:       rec.Data,
	}
	if _, err := f.client.Collection(exportsCollection).Doc(rec.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to save export %s: %w", rec.ID, err)
	}
	return nil
}

// GetExport reads exports/<id>.
func (f *FirestoreProvider) GetExport(ctx context.Context, id string) (types.ExportRecord, error) {
	if id == "" {
		return types.ExportRecord{}, fmt.Errorf("%w: export id cannot be empty", types.ErrInvalidParameter)
	}
	snap, err := f.client.Collection(exportsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.ExportRecord{}, fmt.Errorf("%w: %s", ErrExportNotFound, id)
		}
		return types.ExportRecord{}, fmt.Errorf("failed to fetch export %s: %w", id, err)
	}
	var doc exportDoc
	if err := snap.DataTo(&doc); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode export doc", slog.String("id", id), slog.Any("err", err))
		return types.ExportRecord{}, fmt.Errorf("failed to decode export %s: %w", id, err)
	}
	return doc.record(snap.Ref.ID), nil
}

// ListExports returns export metadata ordered by creation time, newest
// first. The data field is never fetched.
func (f *FirestoreProvider) ListExports(ctx context.Context, limit int) ([]types.ExportRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	iter := f.client.Collection(exportsCollection).
		Select(metadataFields...).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var out []types.ExportRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate exports: %w", err)
		}
		var doc exportDoc
		if err := snap.DataTo(&doc); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping undecodable export doc", slog.String("id", snap.Ref.ID), slog.Any("err", err))
			continue
		}
		out = append(out, doc.record(snap.Ref.ID))
	}
	return out, nil
}
