package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/logger"
	"github.com/saiset-co/sai-commerce/types"
)

func testLogger() types.Logger {
	return logger.NewZapWrapper(zap.NewNop())
}

// memCache is a minimal in-process cache for service tests; TTL is recorded
// but never enforced.
type memCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{
		data: map[string][]byte{},
		ttls: map[string]time.Duration{},
	}
}

func (m *memCache) Get(key string) ([]byte, bool) {
	value, ok := m.data[key]
	return value, ok
}

func (m *memCache) Set(key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Has(key string) bool {
	_, ok := m.data[key]
	return ok
}

func (m *memCache) Delete(keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memCache) Start() error    { return nil }
func (m *memCache) Stop() error     { return nil }
func (m *memCache) IsRunning() bool { return true }

// fakeStore keeps documents in ordered slices per collection. Filters support
// direct equality only, which is all the service tests need; Sort is ignored
// and documents come back in insertion order.
type fakeStore struct {
	docs      map[string][]map[string]interface{}
	nextID    int
	findCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string][]map[string]interface{}{}}
}

func (f *fakeStore) seed(collection string, docs ...map[string]interface{}) {
	f.docs[collection] = append(f.docs[collection], docs...)
}

func (f *fakeStore) Insert(ctx context.Context, collection string, docs ...map[string]interface{}) ([]string, error) {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id, ok := doc["internal_id"].(string)
		if !ok || id == "" {
			f.nextID++
			id = fmt.Sprintf("generated-%d", f.nextID)
			doc["internal_id"] = id
		}
		if _, ok := doc["cr_time"]; !ok {
			doc["cr_time"] = time.Now().UnixNano()
		}
		f.docs[collection] = append(f.docs[collection], doc)
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) FindByID(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	for _, doc := range f.docs[collection] {
		if doc["internal_id"] == id {
			return doc, nil
		}
	}
	return nil, types.ErrDocumentNotFound
}

func (f *fakeStore) Find(ctx context.Context, query types.FindQuery) ([]map[string]interface{}, error) {
	f.findCalls++

	var out []map[string]interface{}
	for _, doc := range f.docs[query.Collection] {
		if matchesEquality(doc, query.Filter) {
			out = append(out, doc)
		}
	}

	if query.Skip > 0 {
		if query.Skip >= len(out) {
			return nil, nil
		}
		out = out[query.Skip:]
	}
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (f *fakeStore) Count(ctx context.Context, collection string, filter map[string]interface{}) (int64, error) {
	var count int64
	for _, doc := range f.docs[collection] {
		if matchesEquality(doc, filter) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Distinct(ctx context.Context, collection, field string, filter map[string]interface{}) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, doc := range f.docs[collection] {
		if value, ok := doc[field].(string); ok && value != "" && !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateByID(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	for _, doc := range f.docs[collection] {
		if doc["internal_id"] == id {
			for key, value := range fields {
				doc[key] = value
			}
			return nil
		}
	}
	return types.ErrDocumentNotFound
}

func (f *fakeStore) DeleteByID(ctx context.Context, collection, id string) error {
	docs := f.docs[collection]
	for i, doc := range docs {
		if doc["internal_id"] == id {
			f.docs[collection] = append(docs[:i], docs[i+1:]...)
			return nil
		}
	}
	return types.ErrDocumentNotFound
}

func (f *fakeStore) Start() error    { return nil }
func (f *fakeStore) Stop() error     { return nil }
func (f *fakeStore) IsRunning() bool { return true }

func matchesEquality(doc, filter map[string]interface{}) bool {
	for field, expected := range filter {
		if _, isOperator := expected.(map[string]interface{}); isOperator {
			// Operator filters pass through; equality is enough for tests.
			continue
		}
		if doc[field] != expected {
			return false
		}
	}
	return true
}
