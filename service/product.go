package service

import (
	"context"
	"math"

	"github.com/saiset-co/sai-commerce/cache"
	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

// ProductService owns the products collection and every cached projection of
// it. All catalog reads go through cache views; all writes end with an
// eviction of the keys those views populate.
type ProductService struct {
	store       types.DocumentStore
	logger      types.Logger
	invalidator *cache.Invalidator
	catalog     *types.CatalogConfig

	latestView     *cache.View[[]types.Product]
	allView        *cache.View[[]types.Product]
	categoriesView *cache.View[[]string]
	productView    *cache.View[types.Product]
}

func NewProductService(store types.DocumentStore, c types.Cache, invalidator *cache.Invalidator, logger types.Logger, catalog *types.CatalogConfig) *ProductService {
	return &ProductService{
		store:       store,
		logger:      logger,
		invalidator: invalidator,
		catalog:     catalog,

		latestView:     cache.NewView[[]types.Product](c),
		allView:        cache.NewView[[]types.Product](c),
		categoriesView: cache.NewView[[]string](c),
		productView: cache.NewView[types.Product](c).
			WithIdentity(func(p types.Product) string { return p.ID }),
	}
}

// Latest returns the newest products, capped by the configured limit.
func (s *ProductService) Latest(ctx context.Context) ([]types.Product, error) {
	return s.latestView.GetOrCompute(ctx, cache.KeyLatestProducts, func(ctx context.Context) ([]types.Product, error) {
		docs, err := s.store.Find(ctx, types.FindQuery{
			Collection: types.CollectionProducts,
			Sort:       map[string]int{"cr_time": types.SortDesc},
			Limit:      s.catalog.LatestLimit,
		})
		if err != nil {
			return nil, err
		}
		return decodeProducts(docs)
	})
}

// All returns the unfiltered catalog for the admin listing.
func (s *ProductService) All(ctx context.Context) ([]types.Product, error) {
	return s.allView.GetOrCompute(ctx, cache.KeyAllProducts, func(ctx context.Context) ([]types.Product, error) {
		docs, err := s.store.Find(ctx, types.FindQuery{
			Collection: types.CollectionProducts,
			Sort:       map[string]int{"cr_time": types.SortDesc},
		})
		if err != nil {
			return nil, err
		}
		return decodeProducts(docs)
	})
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.categoriesView.GetOrCompute(ctx, cache.KeyCategories, func(ctx context.Context) ([]string, error) {
		return s.store.Distinct(ctx, types.CollectionProducts, "category", nil)
	})
}

func (s *ProductService) Get(ctx context.Context, id string) (types.Product, error) {
	return s.productView.GetOrComputeEntity(ctx, cache.ProductKey(id), id, func(ctx context.Context) (types.Product, error) {
		return s.fetch(ctx, id)
	})
}

// Search runs a filtered, sorted, paginated catalog scan. Results are never
// cached: the filter space is unbounded and stale pages would be invisible to
// the eviction policy.
func (s *ProductService) Search(ctx context.Context, query types.ProductSearchQuery) (types.ProductSearchResult, error) {
	filter := map[string]interface{}{}

	if query.Search != "" {
		filter["title"] = map[string]interface{}{"$regex": query.Search}
	}
	if query.Price > 0 {
		filter["price"] = map[string]interface{}{"$lte": query.Price}
	}
	if query.Category != "" {
		filter["category"] = query.Category
	}

	sort := map[string]int{}
	switch query.Sort {
	case "asc":
		sort["price"] = types.SortAsc
	case "dsc":
		sort["price"] = types.SortDesc
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := s.catalog.ProductsPerPage

	total, err := s.store.Count(ctx, types.CollectionProducts, filter)
	if err != nil {
		return types.ProductSearchResult{}, err
	}

	docs, err := s.store.Find(ctx, types.FindQuery{
		Collection: types.CollectionProducts,
		Filter:     filter,
		Sort:       sort,
		Limit:      perPage,
		Skip:       (page - 1) * perPage,
	})
	if err != nil {
		return types.ProductSearchResult{}, err
	}

	products, err := decodeProducts(docs)
	if err != nil {
		return types.ProductSearchResult{}, err
	}

	return types.ProductSearchResult{
		Products:   products,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}, nil
}

func (s *ProductService) Create(ctx context.Context, req types.NewProductRequest) (types.Product, error) {
	doc := map[string]interface{}{
		"title":    req.Title,
		"image":    req.Image,
		"price":    req.Price,
		"stock":    req.Stock,
		"category": req.Category,
	}

	ids, err := s.store.Insert(ctx, types.CollectionProducts, doc)
	if err != nil {
		return types.Product{}, err
	}

	s.invalidator.Invalidate(cache.ProductMutation{IDs: ids}, cache.AdminMutation{})

	return s.fetch(ctx, ids[0])
}

func (s *ProductService) Update(ctx context.Context, id string, req types.UpdateProductRequest) (types.Product, error) {
	if _, err := s.fetch(ctx, id); err != nil {
		return types.Product{}, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Stock != nil {
		fields["stock"] = *req.Stock
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}

	if len(fields) > 0 {
		if err := s.store.UpdateByID(ctx, types.CollectionProducts, id, fields); err != nil {
			return types.Product{}, err
		}
	}

	s.invalidator.Invalidate(cache.ProductMutation{IDs: []string{id}}, cache.AdminMutation{})

	return s.fetch(ctx, id)
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, types.CollectionProducts, id); err != nil {
		if types.IsError(err, types.ErrDocumentNotFound) {
			return types.ErrProductNotFound
		}
		return err
	}

	s.invalidator.Invalidate(cache.ProductMutation{IDs: []string{id}}, cache.AdminMutation{})
	return nil
}

func (s *ProductService) fetch(ctx context.Context, id string) (types.Product, error) {
	doc, err := s.store.FindByID(ctx, types.CollectionProducts, id)
	if err != nil {
		if types.IsError(err, types.ErrDocumentNotFound) {
			return types.Product{}, types.ErrProductNotFound
		}
		return types.Product{}, err
	}

	return utils.DecodeDocument[types.Product](doc)
}

func decodeProducts(docs []map[string]interface{}) ([]types.Product, error) {
	products := make([]types.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := utils.DecodeDocument[types.Product](doc)
		if err != nil {
			return nil, types.WrapError(err, "failed to decode product document")
		}
		products = append(products, product)
	}
	return products, nil
}
