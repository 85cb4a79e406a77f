package service

import (
	"context"

	"github.com/saiset-co/sai-commerce/cache"
	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

// UserService is idempotent on create: sign-in flows post the same profile
// every session, and an existing user is simply returned.
type UserService struct {
	store       types.DocumentStore
	logger      types.Logger
	invalidator *cache.Invalidator
}

func NewUserService(store types.DocumentStore, invalidator *cache.Invalidator, logger types.Logger) *UserService {
	return &UserService{
		store:       store,
		logger:      logger,
		invalidator: invalidator,
	}
}

func (s *UserService) Create(ctx context.Context, req types.NewUserRequest) (types.User, bool, error) {
	if existing, err := s.Get(ctx, req.ID); err == nil {
		return existing, false, nil
	} else if !types.IsError(err, types.ErrUserNotFound) {
		return types.User{}, false, err
	}

	doc := map[string]interface{}{
		"internal_id": req.ID,
		"name":        req.Name,
		"email":       req.Email,
		"image":       req.Image,
		"gender":      req.Gender,
		"role":        "user",
		"dob":         req.DOB,
	}

	if _, err := s.store.Insert(ctx, types.CollectionUsers, doc); err != nil {
		return types.User{}, false, err
	}

	s.invalidator.Invalidate(cache.AdminMutation{})

	user, err := s.Get(ctx, req.ID)
	return user, true, err
}

func (s *UserService) All(ctx context.Context) ([]types.User, error) {
	docs, err := s.store.Find(ctx, types.FindQuery{
		Collection: types.CollectionUsers,
		Sort:       map[string]int{"cr_time": types.SortDesc},
	})
	if err != nil {
		return nil, err
	}

	return decodeUsers(docs)
}

func decodeUsers(docs []map[string]interface{}) ([]types.User, error) {
	users := make([]types.User, 0, len(docs))
	for _, doc := range docs {
		user, err := utils.DecodeDocument[types.User](doc)
		if err != nil {
			return nil, types.WrapError(err, "failed to decode user document")
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (types.User, error) {
	doc, err := s.store.FindByID(ctx, types.CollectionUsers, id)
	if err != nil {
		if types.IsError(err, types.ErrDocumentNotFound) {
			return types.User{}, types.ErrUserNotFound
		}
		return types.User{}, err
	}

	return utils.DecodeDocument[types.User](doc)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, types.CollectionUsers, id); err != nil {
		if types.IsError(err, types.ErrDocumentNotFound) {
			return types.ErrUserNotFound
		}
		return err
	}

	s.invalidator.Invalidate(cache.AdminMutation{})
	return nil
}
