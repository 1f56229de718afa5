package database

import (
	"context"
	"fmt"
	"strings"
)

// Flat collections shared by every product.
const (
	ReviewsCollection  = "reviews"
	CommentsCollection = "comments"
	OrdersCollection   = "orders"
	UsersCollection    = "users"
)

// Snapshot is one document read from a DocumentStore.
type Snapshot interface {
	ID() string
	// DataTo decodes the document into a struct carrying bson and firestore tags.
	DataTo(v any) error
}

// Ref addresses a single document.
type Ref struct {
	Collection string
	ID         string
}

func (r Ref) String() string {
	return r.Collection + "/" + r.ID
}

// DocumentStore is a hierarchical document database. Collections are addressed by
// slash-separated paths such as "reviews" or "brewed-drinks/P1/reviews".
type DocumentStore interface {
	// Create writes data under the given id, replacing any existing document.
	Create(ctx context.Context, collection, id string, data any) error
	// Get returns the document or a NOT_FOUND AppError.
	Get(ctx context.Context, collection, id string) (Snapshot, error)
	Exists(ctx context.Context, collection, id string) (bool, error)
	// Query returns every document whose field equals value.
	Query(ctx context.Context, collection, field string, value any) ([]Snapshot, error)
	List(ctx context.Context, collection string) ([]Snapshot, error)
	// Update applies field operators to an existing document, or returns NOT_FOUND.
	Update(ctx context.Context, collection, id string, updates ...Update) error
	Delete(ctx context.Context, collection, id string) error
	// DeleteBatch removes all refs atomically.
	DeleteBatch(ctx context.Context, refs []Ref) error
	Close(ctx context.Context) error
}

// UpdateOp is a field-level write operator.
type UpdateOp int

const (
	OpSet UpdateOp = iota
	OpAddToSet
	OpRemoveFromSet
	OpIncrement
)

func (op UpdateOp) String() string {
	switch op {
	case OpSet:
		return "set"
	case OpAddToSet:
		return "add-to-set"
	case OpRemoveFromSet:
		return "remove-from-set"
	case OpIncrement:
		return "increment"
	}
	return fmt.Sprintf("UpdateOp(%d)", int(op))
}

type Update struct {
	Field string
	Op    UpdateOp
	Value any
}

func Set(field string, value any) Update {
	return Update{Field: field, Op: OpSet, Value: value}
}

// AddToSet appends value to an array field unless already present.
func AddToSet(field string, value any) Update {
	return Update{Field: field, Op: OpAddToSet, Value: value}
}

// RemoveFromSet removes every occurrence of value from an array field.
func RemoveFromSet(field string, value any) Update {
	return Update{Field: field, Op: OpRemoveFromSet, Value: value}
}

// Increment atomically adds delta to a numeric field.
func Increment(field string, delta int) Update {
	return Update{Field: field, Op: OpIncrement, Value: delta}
}

// Path joins collection and document segments.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// SubcollectionPath is the path of a collection nested under a document.
func SubcollectionPath(parentCollection, parentID, name string) string {
	return Path(parentCollection, parentID, name)
}

// splitPath separates a collection path into its collection names and the ids of the
// documents it is nested under: "a/P1/b" becomes [a b] and [P1].
func splitPath(collection string) (names []string, parents []string, err error) {
	segments := strings.Split(strings.Trim(collection, "/"), "/")
	if len(segments)%2 == 0 {
		return nil, nil, fmt.Errorf("invalid collection path %q", collection)
	}
	for i, s := range segments {
		if s == "" {
			return nil, nil, fmt.Errorf("invalid collection path %q", collection)
		}
		if i%2 == 0 {
			names = append(names, s)
		} else {
			parents = append(parents, s)
		}
	}
	return names, parents, nil
}
