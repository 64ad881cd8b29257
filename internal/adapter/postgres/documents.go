package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"luminapos/internal/domain"
)

// ListDocuments returns a collection in insertion order.
func (d *DB) ListDocuments(ctx context.Context, collection string) ([]domain.Document, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, data FROM documents WHERE collection=$1 ORDER BY seq;",
		collection,
	)
	if err != nil {
		return nil, err
	}
	return scanDocuments(rows)
}

// GetDocument returns one document, or nil if absent.
func (d *DB) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	var data []byte
	err := d.sql.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection=$1 AND id=$2;",
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Document{ID: id, Data: data}, nil
}

// PutDocument creates or overwrites a document. An overwrite keeps its position.
func (d *DB) PutDocument(ctx context.Context, collection, id string, data json.RawMessage) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO documents(collection, id, data, updated_at) VALUES($1, $2, $3, now())
		 ON CONFLICT (collection, id) DO UPDATE SET data=EXCLUDED.data, updated_at=now();`,
		collection, id, string(data),
	)
	return err
}

// DeleteDocument removes a document if present.
func (d *DB) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM documents WHERE collection=$1 AND id=$2;", collection, id)
	return err
}

// QueryByField returns documents whose top-level field equals value, using JSONB
// containment.
func (d *DB) QueryByField(ctx context.Context, collection, field string, value any, limit int) ([]domain.Document, error) {
	filter, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	query := "SELECT id, data FROM documents WHERE collection=$1 AND data @> $2::jsonb ORDER BY seq"
	args := []any{collection, string(filter)}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}
	rows, err := d.sql.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, err
	}
	return scanDocuments(rows)
}

// UpdateDocument applies fn inside a transaction holding the row lock.
func (d *DB) UpdateDocument(ctx context.Context, collection, id string, fn domain.MutateFunc) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var data []byte
	err = tx.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection=$1 AND id=$2 FOR UPDATE;",
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	next, err := fn(data)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET data=$3, updated_at=now() WHERE collection=$1 AND id=$2;",
		collection, id, string(next),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	defer rows.Close()
	var out []domain.Document
	for rows.Next() {
		var doc domain.Document
		var data []byte
		if err := rows.Scan(&doc.ID, &data); err != nil {
			return nil, err
		}
		doc.Data = data
		out = append(out, doc)
	}
	return out, rows.Err()
}
