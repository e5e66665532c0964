// Package store provides the typed gateway to the document store holding
// callback and initiated-action records. The gateway performs no business
// logic; absence of a record is a normal outcome, not an error.
package store

import "context"

// Correlated is any record keyed by a correlation id.
type Correlated interface {
	CorrelationID() string
}

// Query is the structured predicate supported by repositories. The zero
// value matches every record.
type Query struct {
	MessageID string
}

func (q Query) matches(id string) bool {
	return q.MessageID == "" || q.MessageID == id
}

// Repository is a generic collection of records of one shape. FindOne with
// multiple matches returns the first record in insertion order; with no
// match it reports ok=false rather than an error.
type Repository[R Correlated] interface {
	InsertOne(ctx context.Context, record R) error
	InsertMany(ctx context.Context, records []R) error
	FindAll(ctx context.Context, query Query) ([]R, error)
	FindOne(ctx context.Context, query Query) (R, bool, error)
	All(ctx context.Context) ([]R, error)
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int64, error)
}
