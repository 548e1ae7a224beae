package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. The allow-list and findings are
// stored as JSONB arrays on the documents row.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, object_key, file_name, title, description, size_bytes, owner_id, uploaded_at, allowed_readers, status, findings`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (` + documentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	readers, err := marshalStrings(doc.AllowedReaders)
	if err != nil {
		return fmt.Errorf("marshal allowed readers: %w", err)
	}
	findings, err := marshalStrings(doc.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.ObjectKey,
		doc.FileName,
		doc.Title,
		doc.Description,
		doc.SizeBytes,
		doc.Owner,
		doc.UploadedAt,
		readers,
		string(doc.Status),
		findings,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1
LIMIT 1`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// Update persists the mutable fields of an existing document.
func (r *PGRepo) Update(ctx context.Context, doc Document) error {
	const query = `
UPDATE documents
SET title = $1, description = $2, allowed_readers = $3, status = $4, findings = $5
WHERE id = $6`

	readers, err := marshalStrings(doc.AllowedReaders)
	if err != nil {
		return fmt.Errorf("marshal allowed readers: %w", err)
	}
	findings, err := marshalStrings(doc.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, query, doc.Title, doc.Description, readers, string(doc.Status), findings, doc.ID)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document record. Deleting a missing record is a no-op.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

// ListReadable lists documents owned by or shared with userID, newest first.
func (r *PGRepo) ListReadable(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE owner_id = $1 OR allowed_readers @> $2::jsonb
ORDER BY uploaded_at DESC, id
LIMIT $3 OFFSET $4`

	member, err := json.Marshal([]string{userID})
	if err != nil {
		return nil, fmt.Errorf("marshal reader filter: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, userID, member, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var status string
	var readers, findings []byte
	if err := row.Scan(
		&doc.ID,
		&doc.ObjectKey,
		&doc.FileName,
		&doc.Title,
		&doc.Description,
		&doc.SizeBytes,
		&doc.Owner,
		&doc.UploadedAt,
		&readers,
		&status,
		&findings,
	); err != nil {
		return Document{}, err
	}
	doc.Status = Status(status)
	if err := unmarshalStrings(readers, &doc.AllowedReaders); err != nil {
		return Document{}, fmt.Errorf("unmarshal allowed readers: %w", err)
	}
	if err := unmarshalStrings(findings, &doc.Findings); err != nil {
		return Document{}, fmt.Errorf("unmarshal findings: %w", err)
	}
	return doc, nil
}

func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func unmarshalStrings(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		*dst = nil
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return err
	}
	if len(values) == 0 {
		*dst = nil
		return nil
	}
	*dst = values
	return nil
}

var _ Repo = (*PGRepo)(nil)
