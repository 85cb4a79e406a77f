package types

import (
	"context"
)

const (
	SortAsc  = 1
	SortDesc = -1
)

// FindQuery describes a filtered, sorted, paginated scan over one collection.
// Filter values are either direct equality matches or mongo-style operator
// maps ({"$lte": 100}, {"$regex": "..."}), matching the store implementation.
type FindQuery struct {
	Collection string
	Filter     map[string]interface{}
	Sort       map[string]int
	Limit      int
	Skip       int
}

type DocumentStore interface {
	LifecycleManager
	Insert(ctx context.Context, collection string, docs ...map[string]interface{}) ([]string, error)
	FindByID(ctx context.Context, collection, id string) (map[string]interface{}, error)
	Find(ctx context.Context, query FindQuery) ([]map[string]interface{}, error)
	Count(ctx context.Context, collection string, filter map[string]interface{}) (int64, error)
	Distinct(ctx context.Context, collection, field string, filter map[string]interface{}) ([]string, error)
	UpdateByID(ctx context.Context, collection, id string, fields map[string]interface{}) error
	DeleteByID(ctx context.Context, collection, id string) error
}
