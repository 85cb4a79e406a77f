package types

import (
	"errors"
	"fmt"
)

var (
	ErrConfigNotFound       = errors.New("config not found")
	ErrConfigParseFailed    = errors.New("config parse failed")
	ErrConfigValidateFailed = errors.New("config validate failed")
)

var (
	ErrServerNotRunning     = errors.New("server not running")
	ErrServerAlreadyRunning = errors.New("server already running")
	ErrServerStartFailed    = errors.New("server start failed")
	ErrRouteNotFound        = errors.New("route not found")
)

var (
	ErrCacheKeyEmpty        = errors.New("cache key empty")
	ErrCacheTypeUnknown     = errors.New("cache type unknown")
	ErrCacheOperationFailed = errors.New("cache operation failed")
)

var (
	ErrDocumentNotFound         = errors.New("document not found")
	ErrDatabaseCollectionExists = errors.New("collection exists")
	ErrDatabaseOperationFailed  = errors.New("database operation failed")
)

var (
	ErrCronIsRunning         = errors.New("cron is running")
	ErrCronJobNameIsEmpty    = errors.New("cron job name is empty")
	ErrCronJobIsNil          = errors.New("cron job is nil")
	ErrCronExpressionInvalid = errors.New("cron expression invalid")
)

var (
	ErrActionNotInitialized = errors.New("action not initialized")
	ErrActionIsDisabled     = errors.New("action broker is disabled")
	ErrWebhookNotFound      = errors.New("webhook not found")
)

var (
	ErrAuthTokenInvalid = errors.New("auth token invalid")
	ErrBodyTooLarge     = errors.New("body too large")
	ErrValidationFailed = errors.New("validation failed")
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrCouponNotFound      = errors.New("invalid coupon code")
	ErrCouponAlreadyExists = errors.New("coupon already exists")
	ErrInsufficientStock   = errors.New("insufficient stock")
)

func NewError(message string) error {
	return errors.New(message)
}

func NewErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func Errorf(baseErr error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", baseErr, fmt.Sprintf(format, args...))
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func IsError(err, target error) bool {
	return errors.Is(err, target)
}
