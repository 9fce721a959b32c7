package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/shekarbharathi/bank-fdic-v1/internal/storage"
)

type archiveRow struct {
	Dataset         string `parquet:"dataset"`
	FetchedAtUnixMs int64  `parquet:"fetched_at_unix_ms"`
	PayloadJSON     string `parquet:"payload_json"`
}

// EncodeRecordsToParquet serializes one page of raw FDIC records. The raw
// JSON payload is kept verbatim so the archive can replay any field the
// relational schema does not model.
func EncodeRecordsToParquet(dataset string, fetchedAt time.Time, records []Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("records are required")
	}

	rows := make([]archiveRow, 0, len(records))
	fetchedMs := fetchedAt.UTC().UnixMilli()
	for _, rec := range records {
		payload, err := json.Marshal(rec.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal record payload: %w", err)
		}
		rows = append(rows, archiveRow{
			Dataset:         dataset,
			FetchedAtUnixMs: fetchedMs,
			PayloadJSON:     string(payload),
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[archiveRow](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Archiver writes raw ingest pages to the object store.
type Archiver struct {
	store storage.ObjectStore
}

func NewArchiver(store storage.ObjectStore) *Archiver {
	return &Archiver{store: store}
}

// ArchiveState snapshots the post-run watermark next to the page archives.
func (a *Archiver) ArchiveState(ctx context.Context, runTime time.Time, st State) error {
	encoded, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state snapshot: %w", err)
	}
	key, err := storage.BuildStatePath(runTime)
	if err != nil {
		return err
	}
	_, err = a.store.Put(ctx, key, bytes.NewReader(encoded), int64(len(encoded)), storage.PutOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("archive state snapshot: %w", err)
	}
	return nil
}

func (a *Archiver) ArchivePage(ctx context.Context, dataset string, runTime time.Time, page int, records []Record) error {
	encoded, err := EncodeRecordsToParquet(dataset, runTime, records)
	if err != nil {
		return err
	}
	key, err := storage.BuildArchivePath(dataset, runTime, page)
	if err != nil {
		return err
	}
	_, err = a.store.Put(ctx, key, bytes.NewReader(encoded), int64(len(encoded)), storage.PutOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("archive %s page %d: %w", dataset, page, err)
	}
	return nil
}
