package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/service"
	"github.com/saiset-co/sai-commerce/types"
	"github.com/saiset-co/sai-commerce/utils"
)

const apiPrefix = "/api/v1"

// Handlers binds the HTTP surface to the service layer. The action broker is
// optional; when present, mutations publish events for the ops dashboard and
// webhook subscribers.
type Handlers struct {
	products *service.ProductService
	orders   *service.OrderService
	users    *service.UserService
	coupons  *service.CouponService
	stats    *service.StatsService
	broker   types.ActionBroker
	logger   types.Logger
	validate *validator.Validate
}

func NewHandlers(
	products *service.ProductService,
	orders *service.OrderService,
	users *service.UserService,
	coupons *service.CouponService,
	stats *service.StatsService,
	broker types.ActionBroker,
	logger types.Logger,
) *Handlers {
	return &Handlers{
		products: products,
		orders:   orders,
		users:    users,
		coupons:  coupons,
		stats:    stats,
		broker:   broker,
		logger:   logger,
		validate: validator.New(),
	}
}

// Register wires every route onto the server. Static paths are registered
// before parameterized ones so "latest" never resolves as a product id.
func (h *Handlers) Register(server types.HTTPServer) {
	admin := &types.RouteConfig{AdminOnly: true}

	server.GET(apiPrefix+"/product/latest", h.LatestProducts, nil)
	server.GET(apiPrefix+"/product/categories", h.ProductCategories, nil)
	server.GET(apiPrefix+"/product/search", h.SearchProducts, nil)
	server.GET(apiPrefix+"/product/admin-products", h.AllProducts, admin)
	server.POST(apiPrefix+"/product/new", h.CreateProduct, admin)
	server.GET(apiPrefix+"/product/{id}", h.GetProduct, nil)
	server.PUT(apiPrefix+"/product/{id}", h.UpdateProduct, admin)
	server.DELETE(apiPrefix+"/product/{id}", h.DeleteProduct, admin)

	server.POST(apiPrefix+"/order/new", h.CreateOrder, nil)
	server.GET(apiPrefix+"/order/my", h.MyOrders, nil)
	server.GET(apiPrefix+"/order/all", h.AllOrders, admin)
	server.GET(apiPrefix+"/order/{id}", h.GetOrder, nil)
	server.PUT(apiPrefix+"/order/{id}", h.ProcessOrder, admin)
	server.DELETE(apiPrefix+"/order/{id}", h.DeleteOrder, admin)

	server.POST(apiPrefix+"/user/new", h.CreateUser, nil)
	server.GET(apiPrefix+"/user/all", h.AllUsers, admin)
	server.GET(apiPrefix+"/user/{id}", h.GetUser, nil)
	server.DELETE(apiPrefix+"/user/{id}", h.DeleteUser, admin)

	server.POST(apiPrefix+"/payment/coupon/new", h.CreateCoupon, admin)
	server.GET(apiPrefix+"/payment/discount", h.ApplyCoupon, nil)
	server.GET(apiPrefix+"/payment/coupon/all", h.AllCoupons, admin)
	server.DELETE(apiPrefix+"/payment/coupon/{id}", h.DeleteCoupon, admin)

	server.GET(apiPrefix+"/dashboard/stats", h.DashboardStats, admin)
	server.GET(apiPrefix+"/dashboard/pie", h.DashboardPie, admin)
	server.GET(apiPrefix+"/dashboard/bar", h.DashboardBar, admin)
	server.GET(apiPrefix+"/dashboard/line", h.DashboardLine, admin)
}

func (h *Handlers) decodeBody(ctx *fasthttp.RequestCtx, target interface{}) error {
	if err := utils.Unmarshal(ctx.PostBody(), target); err != nil {
		return types.Errorf(types.ErrValidationFailed, "invalid request body")
	}

	if err := h.validate.Struct(target); err != nil {
		return types.Errorf(types.ErrValidationFailed, "%s", err.Error())
	}

	return nil
}

func (h *Handlers) publish(action string, payload interface{}) {
	if h.broker == nil {
		return
	}

	if err := h.broker.Publish(action, payload); err != nil {
		h.logger.Debug("Event publish skipped",
			zap.String("action", action), zap.Error(err))
	}
}

// respondError translates service errors into HTTP statuses. Unrecognized
// errors are logged and hidden behind a generic 500.
func (h *Handlers) respondError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case types.IsError(err, types.ErrProductNotFound),
		types.IsError(err, types.ErrOrderNotFound),
		types.IsError(err, types.ErrUserNotFound),
		types.IsError(err, types.ErrWebhookNotFound):
		utils.WriteError(ctx, fasthttp.StatusNotFound, err.Error())
	case types.IsError(err, types.ErrValidationFailed),
		types.IsError(err, types.ErrCouponNotFound),
		types.IsError(err, types.ErrCouponAlreadyExists),
		types.IsError(err, types.ErrUserAlreadyExists),
		types.IsError(err, types.ErrInsufficientStock):
		utils.WriteError(ctx, fasthttp.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Request failed",
			zap.String("path", string(ctx.Path())),
			zap.Error(err))
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, "internal server error")
	}
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	if value, ok := ctx.UserValue(name).(string); ok {
		return value
	}
	return ""
}
