package service

import (
	"context"

	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

// CouponService holds discount codes. Coupons are checkout-time lookups and
// never cached, so no invalidator is involved.
type CouponService struct {
	store  types.DocumentStore
	logger types.Logger
}

func NewCouponService(store types.DocumentStore, logger types.Logger) *CouponService {
	return &CouponService{
		store:  store,
		logger: logger,
	}
}

func (s *CouponService) Create(ctx context.Context, req types.NewCouponRequest) (types.Coupon, error) {
	count, err := s.store.Count(ctx, types.CollectionCoupons, map[string]interface{}{"code": req.Coupon})
	if err != nil {
		return types.Coupon{}, err
	}
	if count > 0 {
		return types.Coupon{}, types.Errorf(types.ErrCouponAlreadyExists, "code: %s", req.Coupon)
	}

	doc := map[string]interface{}{
		"code":   req.Coupon,
		"amount": req.Amount,
	}

	ids, err := s.store.Insert(ctx, types.CollectionCoupons, doc)
	if err != nil {
		return types.Coupon{}, err
	}

	raw, err := s.store.FindByID(ctx, types.CollectionCoupons, ids[0])
	if err != nil {
		return types.Coupon{}, err
	}

	return utils.DecodeDocument[types.Coupon](raw)
}

// Discount resolves a code to its discount amount.
func (s *CouponService) Discount(ctx context.Context, code string) (float64, error) {
	docs, err := s.store.Find(ctx, types.FindQuery{
		Collection: types.CollectionCoupons,
		Filter:     map[string]interface{}{"code": code},
		Limit:      1,
	})
	if err != nil {
		return 0, err
	}

	if len(docs) == 0 {
		return 0, types.ErrCouponNotFound
	}

	coupon, err := utils.DecodeDocument[types.Coupon](docs[0])
	if err != nil {
		return 0, types.WrapError(err, "failed to decode coupon document")
	}

	return coupon.Amount, nil
}

func (s *CouponService) All(ctx context.Context) ([]types.Coupon, error) {
	docs, err := s.store.Find(ctx, types.FindQuery{
		Collection: types.CollectionCoupons,
		Sort:       map[string]int{"cr_time": types.SortDesc},
	})
	if err != nil {
		return nil, err
	}

	coupons := make([]types.Coupon, 0, len(docs))
	for _, doc := range docs {
		coupon, err := utils.DecodeDocument[types.Coupon](doc)
		if err != nil {
			return nil, types.WrapError(err, "failed to decode coupon document")
		}
		coupons = append(coupons, coupon)
	}

	return coupons, nil
}

func (s *CouponService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, types.CollectionCoupons, id); err != nil {
		if types.IsError(err, types.ErrDocumentNotFound) {
			return types.ErrCouponNotFound
		}
		return err
	}
	return nil
}
