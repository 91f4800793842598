// Package docstore is the remote document store gateway: create, get,
// update, query and subscribe over named collections of JSON-like documents.
package docstore

import (
	"context"
	"encoding/json"
	"time"
)

// Fields is a document body keyed by wire field name.
type Fields map[string]any

// Document is a stored document and its id.
type Document struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Decode copies the document fields into v (a pointer to a struct with json tags).
func (d Document) Decode(v any) error {
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// FieldsOf converts a json-tagged struct into Fields. The "id" key is dropped:
// ids live outside the body.
func FieldsOf(v any) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var f Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	delete(f, "id")
	return f, nil
}

type serverTimestamp struct{}

// ServerTimestamp is a field value the store replaces with its commit time.
var ServerTimestamp = serverTimestamp{}

// Filter is an equality condition on one field.
type Filter struct {
	Field string
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

type OrderBy struct {
	Field string
	Desc  bool
}

type Query struct {
	Filters []Filter
	OrderBy []OrderBy
	Limit   int
}

// Gateway is the contract the lifecycle engine and aggregator depend on.
// Implementations report failures with the apperr kinds NotFound,
// Unavailable and PermissionDenied.
type Gateway interface {
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Update(ctx context.Context, collection, id string, fields Fields) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// Subscribe delivers the full result set of q now and after every change
	// to the collection until the subscription is cancelled.
	Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error)
}

// normalize resolves ServerTimestamp placeholders and reduces values to their
// JSON form so both stores compare and return identical representations.
func normalize(f Fields, now time.Time) (Fields, error) {
	resolved := make(Fields, len(f))
	for k, v := range f {
		if _, ok := v.(serverTimestamp); ok {
			v = now.UTC()
		}
		resolved[k] = v
	}
	raw, err := json.Marshal(resolved)
	if err != nil {
		return nil, err
	}
	var out Fields
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
