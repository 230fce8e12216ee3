package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DocumentSchema creates the table holding the patient document.
const DocumentSchema = `CREATE TABLE IF NOT EXISTS patient_documents (
    name VARCHAR(64) PRIMARY KEY,
    document JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const defaultDocumentName = "patients"

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore keeps the document as a single jsonb row, so the Postgres backend
// behaves exactly like the file: loaded whole and rewritten whole.
type PGStore struct {
	db   querier
	name string
}

// NewPGStore stores the document under the row named "patients". db is
// usually a *pgxpool.Pool.
func NewPGStore(db querier) *PGStore {
	return &PGStore{db: db, name: defaultDocumentName}
}

func (s *PGStore) Load(ctx context.Context) (Document, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT document FROM patient_documents WHERE name = $1`, s.name,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load document: %w", ErrStorageUnavailable, err)
	}
	return decodeDocument(data)
}

func (s *PGStore) Save(ctx context.Context, doc Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO patient_documents (name, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`,
		s.name, data,
	)
	if err != nil {
		return fmt.Errorf("%w: save document: %w", ErrStorageUnavailable, err)
	}
	return nil
}
