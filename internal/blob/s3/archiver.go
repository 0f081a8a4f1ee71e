package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// SettlementArchiveStore provides the read access the archiver needs. The
// Postgres settlement store satisfies it implicitly.
type SettlementArchiveStore interface {
	ListByDay(ctx context.Context, day time.Time) ([]domain.SettlementRecord, error)
}

// PickArchiveStore provides read access to picks for archival purposes.
type PickArchiveStore interface {
	ListByDay(ctx context.Context, day time.Time) ([]domain.Pick, error)
}

// Archiver serializes a day's picks and settlement records to JSONL and
// uploads them to cold storage. Records stay in the primary store; the
// archive is a durable copy for offline analysis, not a purge.
type Archiver struct {
	writer      domain.BlobWriter
	picks       PickArchiveStore
	settlements SettlementArchiveStore
}

// NewArchiver creates a new Archiver.
func NewArchiver(writer domain.BlobWriter, picks PickArchiveStore, settlements SettlementArchiveStore) *Archiver {
	return &Archiver{
		writer:      writer,
		picks:       picks,
		settlements: settlements,
	}
}

// ArchiveDay uploads the given UTC day's picks and settlements as two JSONL
// objects. It returns the total number of records archived. Days with no
// records upload nothing.
func (a *Archiver) ArchiveDay(ctx context.Context, day time.Time) (int64, error) {
	var total int64

	picks, err := a.picks.ListByDay(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive picks query: %w", err)
	}
	if len(picks) > 0 {
		buf, err := marshalJSONL(picks)
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive picks marshal: %w", err)
		}
		if err := a.writer.Put(ctx, archivePath("picks", day), buf, "application/x-ndjson"); err != nil {
			return 0, fmt.Errorf("s3blob: archive picks upload: %w", err)
		}
		total += int64(len(picks))
	}

	recs, err := a.settlements.ListByDay(ctx, day)
	if err != nil {
		return total, fmt.Errorf("s3blob: archive settlements query: %w", err)
	}
	if len(recs) > 0 {
		buf, err := marshalJSONL(recs)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive settlements marshal: %w", err)
		}
		if err := a.writer.Put(ctx, archivePath("settlements", day), buf, "application/x-ndjson"); err != nil {
			return total, fmt.Errorf("s3blob: archive settlements upload: %w", err)
		}
		total += int64(len(recs))
	}

	return total, nil
}

// archivePath builds the S3 key for an archive file, partitioned by day.
//
//	archive/picks/2026-08-30.jsonl
//	archive/settlements/2026-08-30.jsonl
func archivePath(kind string, day time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, day.UTC().Format(time.DateOnly))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
