package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"brew-reviews/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process DocumentStore. Documents are kept as BSON maps so
// they decode with the same rules as the MongoDB backend.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]bson.M
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]bson.M)}
}

type memorySnapshot struct {
	id   string
	data bson.M
}

func (s *memorySnapshot) ID() string { return s.id }

func (s *memorySnapshot) DataTo(v any) error {
	raw, err := bson.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", s.id, err)
	}
	if err := bson.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", s.id, err)
	}
	return nil
}

func (m *MemoryStore) Create(ctx context.Context, collection, id string, data any) error {
	if _, _, err := splitPath(collection); err != nil {
		return err
	}
	doc, err := toBSONMap(data)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}
	delete(doc, "_id")

	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]bson.M)
		m.collections[collection] = docs
	}
	docs[id] = doc
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, utils.NewNotFoundError("document", Ref{Collection: collection, ID: id}.String())
	}
	return &memorySnapshot{id: id, data: copyMap(doc)}, nil
}

func (m *MemoryStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[collection][id]
	return ok, nil
}

func (m *MemoryStore) Query(ctx context.Context, collection, field string, value any) ([]Snapshot, error) {
	want, err := normalizeValue(value)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Snapshot
	for _, id := range m.sortedIDs(collection) {
		doc := m.collections[collection][id]
		if got, ok := doc[field]; ok && valuesEqual(got, want) {
			out = append(out, &memorySnapshot{id: id, data: copyMap(doc)})
		}
	}
	return out, nil
}

func (m *MemoryStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Snapshot
	for _, id := range m.sortedIDs(collection) {
		out = append(out, &memorySnapshot{id: id, data: copyMap(m.collections[collection][id])})
	}
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, updates ...Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return utils.NewNotFoundError("document", Ref{Collection: collection, ID: id}.String())
	}

	// Apply to a copy so a failing operator leaves the document untouched.
	next := copyMap(doc)
	for _, u := range updates {
		value, err := normalizeValue(u.Value)
		if err != nil {
			return err
		}
		switch u.Op {
		case OpSet:
			next[u.Field] = value
		case OpIncrement:
			n, err := addNumber(next[u.Field], value)
			if err != nil {
				return fmt.Errorf("increment %s: %w", u.Field, err)
			}
			next[u.Field] = n
		case OpAddToSet:
			arr := toArray(next[u.Field])
			if !containsValue(arr, value) {
				arr = append(arr, value)
			}
			next[u.Field] = arr
		case OpRemoveFromSet:
			arr := toArray(next[u.Field])
			kept := primitive.A{}
			for _, v := range arr {
				if !valuesEqual(v, value) {
					kept = append(kept, v)
				}
			}
			next[u.Field] = kept
		default:
			return fmt.Errorf("unsupported update operator %s", u.Op)
		}
	}
	m.collections[collection][id] = next
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

func (m *MemoryStore) DeleteBatch(ctx context.Context, refs []Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ref := range refs {
		delete(m.collections[ref.Collection], ref.ID)
	}
	return nil
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Count returns the number of documents in a collection.
func (m *MemoryStore) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func (m *MemoryStore) sortedIDs(collection string) []string {
	ids := make([]string, 0, len(m.collections[collection]))
	for id := range m.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func toBSONMap(data any) (bson.M, error) {
	raw, err := bson.Marshal(data)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalizeValue round-trips a single value through BSON so stored values and
// operands share one representation.
func normalizeValue(v any) (any, error) {
	doc, err := toBSONMap(bson.M{"v": v})
	if err != nil {
		return nil, fmt.Errorf("failed to encode value %v: %w", v, err)
	}
	return doc["v"], nil
}

func copyMap(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if arr, ok := v.(primitive.A); ok {
			v = append(primitive.A{}, arr...)
		}
		out[k] = v
	}
	return out
}

func toArray(v any) primitive.A {
	switch arr := v.(type) {
	case primitive.A:
		return append(primitive.A{}, arr...)
	case []any:
		return append(primitive.A{}, arr...)
	}
	return primitive.A{}
}

func containsValue(arr primitive.A, v any) bool {
	for _, item := range arr {
		if valuesEqual(item, v) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	fa, aNum := asFloat(a)
	fb, bNum := asFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func addNumber(current, delta any) (any, error) {
	d, ok := asFloat(delta)
	if !ok {
		return nil, fmt.Errorf("non-numeric delta %v", delta)
	}
	if current == nil {
		current = int64(0)
	}
	switch n := current.(type) {
	case int32:
		return int64(n) + int64(d), nil
	case int64:
		return n + int64(d), nil
	case float64:
		return n + d, nil
	}
	return nil, fmt.Errorf("non-numeric field value %v", current)
}
