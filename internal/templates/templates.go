// Package templates persists the spreadsheet structures the template
// capability produces. A thin collaborator of the gated core: generation
// goes through the gateway, storage and export live here.
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"
)

var ErrTemplateNotFound = errors.New("template not found")

type Column struct {
	Name    string `json:"name"`
	Type    string `json:"type"` // text|number|date|boolean|currency
	Example string `json:"example"`
}

type Template struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Columns     []Column   `json:"columns"`
	SampleRows  int        `json:"sample_rows"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"` // nil = permanent
	CreatedAt   time.Time  `json:"created_at"`
}

type Store interface {
	Create(ctx context.Context, tpl *Template) error
	Get(ctx context.Context, id, tenantID string) (*Template, error)
}

var jsonBlock = regexp.MustCompile(`\{[\s\S]*\}`)

// Parse pulls the structure JSON out of a model response. The assistant is
// instructed to answer with bare JSON once the structure is settled; before
// that point its replies are clarifying questions and Parse reports false.
func Parse(text string) (*Template, bool) {
	match := jsonBlock.FindString(text)
	if match == "" {
		return nil, false
	}

	var tpl Template
	if err := json.Unmarshal([]byte(match), &tpl); err != nil {
		return nil, false
	}
	if tpl.Name == "" || len(tpl.Columns) == 0 {
		return nil, false
	}
	return &tpl, true
}
