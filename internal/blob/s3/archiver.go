package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// uploadWriter is the narrow writer surface the archiver needs: single-shot
// puts for settlement records, multipart for bulk exports.
type uploadWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Archiver writes settlement records and bulk market exports to blob
// storage. Records are write-once: nothing here ever deletes or rewrites an
// uploaded object.
type Archiver struct {
	writer uploadWriter
}

// NewArchiver creates an Archiver over the given writer.
func NewArchiver(w *Writer) *Archiver {
	return &Archiver{writer: w}
}

// settlementRecord is the persisted shape of one resolution.
type settlementRecord struct {
	Market     domain.Market `json:"market"`
	Outcome    string        `json:"outcome"`
	ArchivedAt time.Time     `json:"archivedAt"`
}

// ArchiveResolution uploads a JSON snapshot of a resolved market under
// settlements/YYYY-MM/{id}.json and returns the object path.
func (a *Archiver) ArchiveResolution(ctx context.Context, m domain.Market) (string, error) {
	now := time.Now().UTC()
	record := settlementRecord{
		Market:     m,
		Outcome:    string(m.Resolution),
		ArchivedAt: now,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("s3blob: encode settlement %s: %w", m.ID, err)
	}

	path := fmt.Sprintf("settlements/%s/%s.json", now.Format("2006-01"), m.ID)
	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive settlement %s: %w", m.ID, err)
	}
	return path, nil
}

// ExportMarkets uploads the full market catalogue as JSONL, one market per
// line, under exports/markets-{timestamp}.jsonl and returns the object path.
func (a *Archiver) ExportMarkets(ctx context.Context, markets []domain.Market) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, m := range markets {
		if err := enc.Encode(m); err != nil {
			return "", fmt.Errorf("s3blob: encode market %s: %w", m.ID, err)
		}
	}

	path := fmt.Sprintf("exports/markets-%s.jsonl", time.Now().UTC().Format("20060102-150405"))
	if err := a.writer.PutMultipart(ctx, path, &buf, minPartSize); err != nil {
		return "", fmt.Errorf("s3blob: export markets: %w", err)
	}
	return path, nil
}
