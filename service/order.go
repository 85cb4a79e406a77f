package service

import (
	"context"
	"time"

	"github.com/saiset-co/sai-commerce/cache"
	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

// userOrdersTTL bounds staleness of per-user order lists even if an eviction
// is ever missed.
const userOrdersTTL = 5 * time.Minute

type OrderService struct {
	store       types.DocumentStore
	logger      types.Logger
	invalidator *cache.Invalidator

	userOrdersView *cache.View[[]types.Order]
	allOrdersView  *cache.View[[]types.Order]
	orderView      *cache.View[types.Order]
}

func NewOrderService(store types.DocumentStore, c types.Cache, invalidator *cache.Invalidator, logger types.Logger) *OrderService {
	return &OrderService{
		store:       store,
		logger:      logger,
		invalidator: invalidator,

		userOrdersView: cache.NewView[[]types.Order](c).WithTTL(userOrdersTTL),
		allOrdersView:  cache.NewView[[]types.Order](c),
		orderView: cache.NewView[types.Order](c).
			WithIdentity(func(o types.Order) string { return o.ID }),
	}
}

// Create persists the order and decrements stock for every line item. Stock is
// verified for all items before any of them is reduced, so an order with one
// unavailable item touches nothing.
func (s *OrderService) Create(ctx context.Context, req types.NewOrderRequest) (types.Order, error) {
	products := make(map[string]types.Product, len(req.OrderItems))
	productIDs := make([]string, 0, len(req.OrderItems))

	for _, item := range req.OrderItems {
		doc, err := s.store.FindByID(ctx, types.CollectionProducts, item.ProductID)
		if err != nil {
			if types.IsError(err, types.ErrDocumentNotFound) {
				return types.Order{}, types.Errorf(types.ErrProductNotFound, "id: %s", item.ProductID)
			}
			return types.Order{}, err
		}

		product, err := utils.DecodeDocument[types.Product](doc)
		if err != nil {
			return types.Order{}, types.WrapError(err, "failed to decode product document")
		}

		if product.Stock < item.Quantity {
			return types.Order{}, types.Errorf(types.ErrInsufficientStock, "product: %s, stock: %d, requested: %d",
				product.Title, product.Stock, item.Quantity)
		}

		products[item.ProductID] = product
		productIDs = append(productIDs, item.ProductID)
	}

	for _, item := range req.OrderItems {
		product := products[item.ProductID]
		err := s.store.UpdateByID(ctx, types.CollectionProducts, item.ProductID, map[string]interface{}{
			"stock": product.Stock - item.Quantity,
		})
		if err != nil {
			return types.Order{}, err
		}
	}

	userName := ""
	if userDoc, err := s.store.FindByID(ctx, types.CollectionUsers, req.UserID); err == nil {
		if user, err := utils.DecodeDocument[types.User](userDoc); err == nil {
			userName = user.Name
		}
	}

	doc, err := utils.EncodeDocument(types.Order{
		UserID:          req.UserID,
		UserName:        userName,
		ShippingInfo:    req.ShippingInfo,
		OrderItems:      req.OrderItems,
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		ShippingCharges: req.ShippingCharges,
		Discount:        req.Discount,
		Total:           req.Total,
		Status:          types.OrderStatusProcessing,
	})
	if err != nil {
		return types.Order{}, types.WrapError(err, "failed to encode order")
	}
	delete(doc, "internal_id")

	ids, err := s.store.Insert(ctx, types.CollectionOrders, doc)
	if err != nil {
		return types.Order{}, err
	}

	s.invalidator.Invalidate(
		cache.ProductMutation{IDs: productIDs},
		cache.OrderMutation{UserID: req.UserID, OrderID: ids[0]},
		cache.AdminMutation{},
	)

	return s.fetch(ctx, ids[0])
}

// ForUser returns one user's orders, newest first.
func (s *OrderService) ForUser(ctx context.Context, userID string) ([]types.Order, error) {
	return s.userOrdersView.GetOrCompute(ctx, cache.UserOrdersKey(userID), func(ctx context.Context) ([]types.Order, error) {
		docs, err := s.store.Find(ctx, types.FindQuery{
			Collection: types.CollectionOrders,
			Filter:     map[string]interface{}{"user_id": userID},
			Sort:       map[string]int{"cr_time": types.SortDesc},
		})
		if err != nil {
			return nil, err
		}
		return decodeOrders(docs)
	})
}

func (s *OrderService) All(ctx context.Context) ([]types.Order, error) {
	return s.allOrdersView.GetOrCompute(ctx, cache.KeyAllOrders, func(ctx context.Context) ([]types.Order, error) {
		docs, err := s.store.Find(ctx, types.FindQuery{
			Collection: types.CollectionOrders,
			Sort:       map[string]int{"cr_time": types.SortDesc},
		})
		if err != nil {
			return nil, err
		}
		return decodeOrders(docs)
	})
}

func (s *OrderService) Get(ctx context.Context, id string) (types.Order, error) {
	return s.orderView.GetOrComputeEntity(ctx, cache.OrderKey(id), id, func(ctx context.Context) (types.Order, error) {
		return s.fetch(ctx, id)
	})
}

// Process advances an order one step along Processing -> Shipped -> Delivered.
// A delivered order cannot advance further.
func (s *OrderService) Process(ctx context.Context, id string) (types.Order, error) {
	order, err := s.fetch(ctx, id)
	if err != nil {
		return types.Order{}, err
	}

	var next string
	switch order.Status {
	case types.OrderStatusProcessing:
		next = types.OrderStatusShipped
	case types.OrderStatusShipped:
		next = types.OrderStatusDelivered
	default:
		return types.Order{}, types.Errorf(types.ErrValidationFailed, "order already %s", order.Status)
	}

	err = s.store.UpdateByID(ctx, types.CollectionOrders, id, map[string]interface{}{"status": next})
	if err != nil {
		return types.Order{}, err
	}

	s.invalidator.Invalidate(
		cache.ProductMutation{},
		cache.OrderMutation{UserID: order.UserID, OrderID: id},
		cache.AdminMutation{},
	)

	order.Status = next
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	order, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteByID(ctx, types.CollectionOrders, id); err != nil {
		return err
	}

	s.invalidator.Invalidate(
		cache.ProductMutation{},
		cache.OrderMutation{UserID: order.UserID, OrderID: id},
		cache.AdminMutation{},
	)
	return nil
}

func (s *OrderService) fetch(ctx context.Context, id string) (types.Order, error) {
	doc, err := s.store.FindByID(ctx, types.CollectionOrders, id)
	if err != nil {
		if types.IsError(err, types.ErrDocumentNotFound) {
			return types.Order{}, types.ErrOrderNotFound
		}
		return types.Order{}, err
	}

	return utils.DecodeDocument[types.Order](doc)
}

func decodeOrders(docs []map[string]interface{}) ([]types.Order, error) {
	orders := make([]types.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := utils.DecodeDocument[types.Order](doc)
		if err != nil {
			return nil, types.WrapError(err, "failed to decode order document")
		}
		orders = append(orders, order)
	}
	return orders, nil
}
