// Package catalog decodes and validates process payload documents.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/terminus-flow/terminus/pkg/models"
)

// ErrMalformedDocument marks a payload that is structurally unusable as a
// catalog document. Unlike transient fetch failures, these cannot succeed on
// retry.
var ErrMalformedDocument = errors.New("malformed catalog document")

// documentSchema is the minimal shape every catalog document must satisfy.
// Extra fields (process definitions, features, metadata) pass through
// untouched; only the identity contract is enforced here.
const documentSchema = `{
	"type": "object",
	"required": ["id"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"process": {"type": "object"},
		"features": {"type": "array"}
	}
}`

// ObjectStore fetches JSON documents referenced by URL. Payloads too large to
// embed in an event are delivered as {"url": "..."} and resolved through it.
type ObjectStore interface {
	GetJSON(ctx context.Context, url string) ([]byte, error)
}

// Resolver turns raw payload bytes into validated Catalog values.
type Resolver struct {
	objects  ObjectStore
	schema   *gojsonschema.Schema
	validate *validator.Validate
	logger   *slog.Logger
}

func NewResolver(objects ObjectStore, logger *slog.Logger) (*Resolver, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile catalog document schema: %w", err)
	}

	return &Resolver{
		objects:  objects,
		schema:   schema,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("module", "catalog"),
	}, nil
}

// FromPayload decodes a catalog document from raw payload bytes. A payload
// carrying a "url" reference instead of an inline document is fetched from
// the object store first.
func (r *Resolver) FromPayload(ctx context.Context, payload []byte) (*models.Catalog, error) {
	var document map[string]any
	if err := json.Unmarshal(payload, &document); err != nil {
		return nil, fmt.Errorf("%w: failed to decode payload: %w", ErrMalformedDocument, err)
	}

	if url, ok := document["url"].(string); ok && document["id"] == nil {
		if r.objects == nil {
			return nil, fmt.Errorf("payload references %q but no object store is configured", url)
		}

		r.logger.DebugContext(ctx, "Resolving indirect catalog payload", "url", url)

		fetched, err := r.objects.GetJSON(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog payload from %s: %w", url, err)
		}

		if err := json.Unmarshal(fetched, &document); err != nil {
			return nil, fmt.Errorf("%w: failed to decode payload from %s: %w", ErrMalformedDocument, url, err)
		}

		payload = fetched
	}

	if err := r.validateDocument(document); err != nil {
		return nil, err
	}

	catalog := &models.Catalog{Document: document}
	if err := json.Unmarshal(payload, catalog); err != nil {
		return nil, fmt.Errorf("%w: failed to decode identity: %w", ErrMalformedDocument, err)
	}

	if err := r.validate.Struct(catalog); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	return catalog, nil
}

func (r *Resolver) validateDocument(document map[string]any) error {
	result, err := r.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("failed to validate catalog document: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			details = append(details, schemaErr.String())
		}

		return fmt.Errorf("%w: schema validation failed: %s", ErrMalformedDocument, strings.Join(details, "; "))
	}

	return nil
}
