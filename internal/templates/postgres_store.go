package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) Store {
	return &PostgresStore{db: db}
}

type contentJSON struct {
	Columns    []Column `json:"columns"`
	SampleRows int      `json:"sample_rows"`
}

func (s *PostgresStore) Create(ctx context.Context, tpl *Template) error {
	content, err := json.Marshal(contentJSON{Columns: tpl.Columns, SampleRows: tpl.SampleRows})
	if err != nil {
		return fmt.Errorf("failed to encode template content: %w", err)
	}

	query := `
		INSERT INTO templates (tenant_id, name, description, content_json, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = s.db.QueryRow(ctx, query,
		tpl.TenantID, tpl.Name, tpl.Description, content, tpl.ExpiresAt,
	).Scan(&tpl.ID, &tpl.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id, tenantID string) (*Template, error) {
	query := `
		SELECT id, tenant_id, name, description, content_json, expires_at, created_at
		FROM templates
		WHERE id = $1 AND tenant_id = $2
	`

	var tpl Template
	var content []byte
	err := s.db.QueryRow(ctx, query, id, tenantID).Scan(
		&tpl.ID, &tpl.TenantID, &tpl.Name, &tpl.Description, &content, &tpl.ExpiresAt, &tpl.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	var c contentJSON
	if err := json.Unmarshal(content, &c); err != nil {
		return nil, fmt.Errorf("failed to decode template content: %w", err)
	}
	tpl.Columns = c.Columns
	tpl.SampleRows = c.SampleRows

	return &tpl, nil
}
