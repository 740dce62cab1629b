package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain/model"
)

// 一覧の絞り込み。Statusが空なら全件
type OrderListFilter struct {
	Status model.OrderStatus
	Limit  int
}

// ステータス遷移の更新内容。現在のステータスがFromのどれかのときだけ更新する
type StatusChange struct {
	From           []model.OrderStatus
	To             model.OrderStatus
	At             time.Time
	AddressID      *int64
	Note           *string
	TrackingNumber *string
}

type OrderRepository interface {
	CreateBulk(ctx context.Context, orders []model.Order) ([]model.Order, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByIDs(ctx context.Context, orderIDs []int64) ([]model.Order, error)
	ListByBuyer(ctx context.Context, buyerID int64, f OrderListFilter) ([]model.Order, error)
	//出品者の商品に対する注文
	ListBySeller(ctx context.Context, sellerID int64, f OrderListFilter) ([]model.Order, error)

	//遷移できたらtrue。別リクエストで先に変わっていたらfalse
	Transition(ctx context.Context, orderID int64, ch StatusChange) (bool, error)

	CountByAddressID(ctx context.Context, addressID int64) (int64, error)
	HasCompleted(ctx context.Context, buyerID int64, productID int64) (bool, error)

	//ダッシュボード用
	CountBySellerGroupByStatus(ctx context.Context, sellerID int64) (map[model.OrderStatus]int64, error)
	SumCompletedRevenueBySeller(ctx context.Context, sellerID int64) (decimal.Decimal, error)
}
