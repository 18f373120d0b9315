package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

// snapshot is the on-disk layout. JSON files parse too since JSON is valid YAML.
type snapshot struct {
	Products  []domain.Record `yaml:"products"`
	Customers []domain.Record `yaml:"customers"`
}

func LoadSnapshot(path string) ([]domain.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return ParseSnapshot(raw)
}

func ParseSnapshot(raw []byte) ([]domain.Record, error) {
	var snap snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse snapshot", err)
	}

	out := make([]domain.Record, 0, len(snap.Products)+len(snap.Customers))
	for _, r := range snap.Products {
		r.Category = domain.CategoryProduct
		out = append(out, r)
	}
	for _, r := range snap.Customers {
		r.Category = domain.CategoryCustomer
		out = append(out, r)
	}
	return out, nil
}

func EncodeSnapshot(records []domain.Record) ([]byte, error) {
	var snap snapshot
	for _, r := range records {
		switch r.Category {
		case domain.CategoryProduct:
			snap.Products = append(snap.Products, r)
		case domain.CategoryCustomer:
			snap.Customers = append(snap.Customers, r)
		default:
			return nil, domain.WrapError(domain.ErrInvalidInput, "encode snapshot", fmt.Errorf("record %q has unknown category", r.ID))
		}
	}
	return yaml.Marshal(snap)
}

type blobSaver interface {
	Save(ctx context.Context, key string, data io.Reader) error
}

// SnapshotWriter exports synced records in the format LoadSnapshot reads.
type SnapshotWriter struct {
	storage blobSaver
	key     string
}

func NewSnapshotWriter(storage blobSaver, key string) *SnapshotWriter {
	return &SnapshotWriter{storage: storage, key: key}
}

func (w *SnapshotWriter) WriteSnapshot(ctx context.Context, records []domain.Record) error {
	raw, err := EncodeSnapshot(records)
	if err != nil {
		return err
	}
	if err := w.storage.Save(ctx, w.key, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
