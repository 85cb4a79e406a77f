package database

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ostafen/clover"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/types"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

type CloverStore struct {
	db     *clover.DB
	logger types.Logger
	config *types.DatabaseConfig
	state  atomic.Value
}

func NewCloverStore(ctx context.Context, logger types.Logger, config *types.DatabaseConfig) (types.DocumentStore, error) {
	db, err := clover.Open(config.Path)
	if err != nil {
		return nil, types.WrapError(err, "failed to open CloverDB")
	}

	store := &CloverStore{
		db:     db,
		logger: logger,
		config: config,
	}

	store.state.Store(StateStopped)
	return store, nil
}

func (c *CloverStore) Start() error {
	if !c.transitionState(StateStopped, StateStarting) {
		return types.ErrServerAlreadyRunning
	}

	defer func() {
		if c.getState() == StateStarting {
			c.setState(StateRunning)
		}
	}()

	c.logger.Info("CloverDB started", zap.String("path", c.config.Path))
	return nil
}

func (c *CloverStore) Stop() error {
	if !c.transitionState(StateRunning, StateStopping) {
		return types.ErrServerNotRunning
	}

	defer func() {
		c.setState(StateStopped)
	}()

	if err := c.db.Close(); err != nil {
		return types.WrapError(err, "failed to close CloverDB")
	}

	c.logger.Info("CloverDB stopped gracefully")
	return nil
}

func (c *CloverStore) IsRunning() bool {
	return c.getState() == StateRunning
}

func (c *CloverStore) Insert(ctx context.Context, collection string, docs ...map[string]interface{}) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	if err := c.ensureCollection(collection); err != nil {
		return nil, err
	}

	var cloverDocs []*clover.Document
	var ids []string
	now := time.Now().UnixNano()

	for i, data := range docs {
		id, ok := data["internal_id"].(string)
		if !ok || id == "" {
			id = uuid.New().String()
			data["internal_id"] = id
		}
		data["cr_time"] = now + int64(i)
		data["ch_time"] = now + int64(i)

		doc := clover.NewDocument()
		for key, value := range data {
			doc.Set(key, value)
		}

		cloverDocs = append(cloverDocs, doc)
		ids = append(ids, id)
	}

	if err := c.db.Insert(collection, cloverDocs...); err != nil {
		return nil, types.WrapError(err, "failed to insert documents")
	}

	return ids, nil
}

func (c *CloverStore) FindByID(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	exists, err := c.db.HasCollection(collection)
	if err != nil {
		return nil, types.WrapError(err, "failed to check collection existence")
	}

	if !exists {
		return nil, types.ErrDocumentNotFound
	}

	doc, err := c.db.Query(collection).Where(clover.Field("internal_id").Eq(id)).FindFirst()
	if err != nil {
		return nil, types.WrapError(err, "failed to find document")
	}

	if doc == nil {
		return nil, types.ErrDocumentNotFound
	}

	return c.decode(doc)
}

func (c *CloverStore) Find(ctx context.Context, query types.FindQuery) ([]map[string]interface{}, error) {
	exists, err := c.db.HasCollection(query.Collection)
	if err != nil {
		return nil, types.WrapError(err, "failed to check collection existence")
	}

	if !exists {
		return []map[string]interface{}{}, nil
	}

	q := c.db.Query(query.Collection)

	if len(query.Filter) > 0 {
		q = c.applyFilters(q, query.Filter)
	}

	for field, order := range query.Sort {
		q = q.Sort(clover.SortOption{Field: field, Direction: order})
	}

	if query.Skip > 0 {
		q = q.Skip(query.Skip)
	}

	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	cloverDocs, err := q.FindAll()
	if err != nil {
		return nil, types.WrapError(err, "failed to find documents")
	}

	results := make([]map[string]interface{}, 0, len(cloverDocs))
	for _, doc := range cloverDocs {
		docMap, err := c.decode(doc)
		if err != nil {
			continue
		}
		results = append(results, docMap)
	}

	return results, nil
}

func (c *CloverStore) Count(ctx context.Context, collection string, filter map[string]interface{}) (int64, error) {
	exists, err := c.db.HasCollection(collection)
	if err != nil {
		return 0, types.WrapError(err, "failed to check collection existence")
	}

	if !exists {
		return 0, nil
	}

	q := c.db.Query(collection)
	if len(filter) > 0 {
		q = c.applyFilters(q, filter)
	}

	count, err := q.Count()
	if err != nil {
		return 0, types.WrapError(err, "failed to count documents")
	}

	return int64(count), nil
}

// Distinct collects the unique string values of one field. CloverDB has no
// native distinct, so this scans the filtered collection.
func (c *CloverStore) Distinct(ctx context.Context, collection, field string, filter map[string]interface{}) ([]string, error) {
	docs, err := c.Find(ctx, types.FindQuery{Collection: collection, Filter: filter})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, doc := range docs {
		if value, ok := doc[field].(string); ok && value != "" {
			seen[value] = struct{}{}
		}
	}

	values := make([]string, 0, len(seen))
	for value := range seen {
		values = append(values, value)
	}
	sort.Strings(values)

	return values, nil
}

func (c *CloverStore) UpdateByID(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	exists, err := c.db.HasCollection(collection)
	if err != nil {
		return types.WrapError(err, "failed to check collection existence")
	}

	if !exists {
		return types.ErrDocumentNotFound
	}

	q := c.db.Query(collection).Where(clover.Field("internal_id").Eq(id))

	count, err := q.Count()
	if err != nil {
		return types.WrapError(err, "failed to count matching documents")
	}

	if count == 0 {
		return types.ErrDocumentNotFound
	}

	update := make(map[string]interface{}, len(fields)+1)
	for key, value := range fields {
		update[key] = value
	}
	update["ch_time"] = time.Now().UnixNano()

	if err := q.Update(update); err != nil {
		return types.WrapError(err, "failed to update document")
	}

	return nil
}

func (c *CloverStore) DeleteByID(ctx context.Context, collection, id string) error {
	exists, err := c.db.HasCollection(collection)
	if err != nil {
		return types.WrapError(err, "failed to check collection existence")
	}

	if !exists {
		return types.ErrDocumentNotFound
	}

	q := c.db.Query(collection).Where(clover.Field("internal_id").Eq(id))

	count, err := q.Count()
	if err != nil {
		return types.WrapError(err, "failed to count matching documents")
	}

	if count == 0 {
		return types.ErrDocumentNotFound
	}

	if err := q.Delete(); err != nil {
		return types.WrapError(err, "failed to delete document")
	}

	return nil
}

func (c *CloverStore) ensureCollection(collection string) error {
	exists, err := c.db.HasCollection(collection)
	if err != nil {
		return types.WrapError(err, "failed to check collection existence")
	}

	if !exists {
		if err := c.db.CreateCollection(collection); err != nil {
			return types.WrapError(err, "failed to create collection")
		}
	}

	return nil
}

func (c *CloverStore) decode(doc *clover.Document) (map[string]interface{}, error) {
	docMap := make(map[string]interface{})

	if err := doc.Unmarshal(&docMap); err != nil {
		return nil, types.WrapError(err, "failed to decode document")
	}

	delete(docMap, "_id")
	return docMap, nil
}

func (c *CloverStore) applyFilters(query *clover.Query, filter map[string]interface{}) *clover.Query {
	for key, value := range filter {
		query = c.applyFieldFilter(query, key, value)
	}
	return query
}

func (c *CloverStore) applyFieldFilter(query *clover.Query, key string, value interface{}) *clover.Query {
	operators, ok := value.(map[string]interface{})
	if !ok {
		return query.Where(clover.Field(key).Eq(value))
	}

	for op, opValue := range operators {
		switch op {
		case "$eq":
			query = query.Where(clover.Field(key).Eq(opValue))
		case "$ne":
			query = query.Where(clover.Field(key).Neq(opValue))
		case "$gt":
			query = query.Where(clover.Field(key).Gt(opValue))
		case "$gte":
			query = query.Where(clover.Field(key).GtEq(opValue))
		case "$lt":
			query = query.Where(clover.Field(key).Lt(opValue))
		case "$lte":
			query = query.Where(clover.Field(key).LtEq(opValue))
		case "$in":
			if arr, ok := opValue.([]interface{}); ok {
				query = query.Where(clover.Field(key).In(arr...))
			}
		case "$regex":
			if pattern, ok := opValue.(string); ok {
				query = query.Where(clover.Field(key).Like(pattern))
			}
		}
	}

	return query
}

func (c *CloverStore) getState() State {
	return c.state.Load().(State)
}

func (c *CloverStore) setState(newState State) bool {
	return c.state.CompareAndSwap(c.getState(), newState)
}

func (c *CloverStore) transitionState(from, to State) bool {
	return c.state.CompareAndSwap(from, to)
}
