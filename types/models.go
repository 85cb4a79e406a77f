package types

import (
	"time"
)

const (
	CollectionProducts = "products"
	CollectionOrders   = "orders"
	CollectionUsers    = "users"
	CollectionCoupons  = "coupons"
)

const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
)

type Product struct {
	ID       string  `json:"internal_id"`
	Title    string  `json:"title"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
	Stock    int64   `json:"stock"`
	Category string  `json:"category"`
	CrTime   int64   `json:"cr_time"`
	ChTime   int64   `json:"ch_time"`
}

func (p Product) CreatedAt() time.Time {
	return time.Unix(0, p.CrTime)
}

type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode int    `json:"postal_code"`
}

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
}

type Order struct {
	ID              string       `json:"internal_id"`
	UserID          string       `json:"user_id"`
	UserName        string       `json:"user_name,omitempty"`
	ShippingInfo    ShippingInfo `json:"shipping_info"`
	OrderItems      []OrderItem  `json:"order_items"`
	Subtotal        float64      `json:"subtotal"`
	Tax             float64      `json:"tax"`
	ShippingCharges float64      `json:"shipping_charges"`
	Discount        float64      `json:"discount"`
	Total           float64      `json:"total"`
	Status          string       `json:"status"`
	CrTime          int64        `json:"cr_time"`
	ChTime          int64        `json:"ch_time"`
}

func (o Order) CreatedAt() time.Time {
	return time.Unix(0, o.CrTime)
}

type User struct {
	ID     string `json:"internal_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Image  string `json:"image"`
	Gender string `json:"gender"`
	Role   string `json:"role"`
	DOB    string `json:"dob"`
	CrTime int64  `json:"cr_time"`
	ChTime int64  `json:"ch_time"`
}

func (u User) CreatedAt() time.Time {
	return time.Unix(0, u.CrTime)
}

type Coupon struct {
	ID     string  `json:"internal_id"`
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
	CrTime int64   `json:"cr_time"`
}

// Request bodies.

type NewProductRequest struct {
	Title    string  `json:"title" validate:"required"`
	Image    string  `json:"image"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Stock    int64   `json:"stock" validate:"min=0"`
	Category string  `json:"category" validate:"required"`
}

type UpdateProductRequest struct {
	Title    *string  `json:"title,omitempty"`
	Image    *string  `json:"image,omitempty"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock    *int64   `json:"stock,omitempty" validate:"omitempty,min=0"`
	Category *string  `json:"category,omitempty"`
}

type NewOrderRequest struct {
	ShippingInfo    ShippingInfo `json:"shipping_info" validate:"required"`
	OrderItems      []OrderItem  `json:"order_items" validate:"required,min=1,dive"`
	UserID          string       `json:"user_id" validate:"required"`
	Subtotal        float64      `json:"subtotal" validate:"required"`
	Tax             float64      `json:"tax"`
	ShippingCharges float64      `json:"shipping_charges"`
	Discount        float64      `json:"discount"`
	Total           float64      `json:"total" validate:"required"`
}

type NewUserRequest struct {
	ID     string `json:"internal_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Image  string `json:"image" validate:"required"`
	Gender string `json:"gender" validate:"required"`
	DOB    string `json:"dob" validate:"required"`
}

type NewCouponRequest struct {
	Coupon string  `json:"coupon" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type ProductSearchQuery struct {
	Search   string
	Price    float64
	Category string
	Sort     string
	Page     int
}

type ProductSearchResult struct {
	Products   []Product `json:"products"`
	TotalPages int       `json:"total_pages"`
}

// Admin analytics payloads.

type PercentChange struct {
	Revenue float64 `json:"revenue"`
	Product float64 `json:"product"`
	User    float64 `json:"user"`
	Order   float64 `json:"order"`
}

type EntityCount struct {
	Revenue float64 `json:"revenue"`
	User    int64   `json:"user"`
	Product int64   `json:"product"`
	Order   int64   `json:"order"`
}

type MonthlyChart struct {
	Order   []int64   `json:"order"`
	Revenue []float64 `json:"revenue"`
}

type UserRatio struct {
	Male   int64 `json:"male"`
	Female int64 `json:"female"`
}

type TransactionSummary struct {
	ID       string  `json:"internal_id"`
	Discount float64 `json:"discount"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
	Quantity int     `json:"quantity"`
}

type DashboardStats struct {
	CategoryCount      []map[string]int64   `json:"category_count"`
	PercentChange      PercentChange        `json:"percent_change"`
	Count              EntityCount          `json:"count"`
	Chart              MonthlyChart         `json:"chart"`
	UserRatio          UserRatio            `json:"user_ratio"`
	LatestTransactions []TransactionSummary `json:"latest_transactions"`
}

type OrderFulfillment struct {
	Processing int64 `json:"processing"`
	Shipped    int64 `json:"shipped"`
	Delivered  int64 `json:"delivered"`
}

type StockAvailability struct {
	InStock    int64 `json:"in_stock"`
	OutOfStock int64 `json:"out_of_stock"`
}

type RevenueDistribution struct {
	NetMargin      float64 `json:"net_margin"`
	Discount       float64 `json:"discount"`
	ProductionCost float64 `json:"production_cost"`
	Burnt          float64 `json:"burnt"`
	MarketingCost  float64 `json:"marketing_cost"`
}

type UsersAgeGroup struct {
	Teen  int64 `json:"teen"`
	Adult int64 `json:"adult"`
	Old   int64 `json:"old"`
}

type AdminCustomers struct {
	Admin    int64 `json:"admin"`
	Customer int64 `json:"customer"`
}

type PieCharts struct {
	OrderFulfillment    OrderFulfillment    `json:"order_fulfillment"`
	ProductCategories   []map[string]int64  `json:"product_categories"`
	StockAvailability   StockAvailability   `json:"stock_availability"`
	RevenueDistribution RevenueDistribution `json:"revenue_distribution"`
	UsersAgeGroup       UsersAgeGroup       `json:"users_age_group"`
	AdminCustomers      AdminCustomers      `json:"admin_customers"`
}

type BarCharts struct {
	Users    []int64 `json:"users"`
	Products []int64 `json:"products"`
	Orders   []int64 `json:"orders"`
}

type LineCharts struct {
	Users    []int64   `json:"users"`
	Products []int64   `json:"products"`
	Discount []float64 `json:"discount"`
	Revenue  []float64 `json:"revenue"`
}
