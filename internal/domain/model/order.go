package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// 表示・集計用の並び順
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCanceled,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped: {OrderStatusCompleted},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCanceled:
		return true
	}
	return false
}

// COMPLETED / CANCELED は終端
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// 1注文=1商品。カートの1行から1件作る
type Order struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID   int64 `gorm:"not null;index" json:"buyer_id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	//支払い時に確定する
	AddressID *int64 `gorm:"index" json:"address_id"`

	Quantity int64 `gorm:"not null" json:"quantity"`

	//作成時点の単価。以後の価格変更の影響を受けない
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`

	Status         OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TrackingNumber string      `gorm:"type:varchar(64)" json:"tracking_number"`
	Note           string      `gorm:"type:varchar(255)" json:"note"`

	PaidAt      *time.Time `json:"paid_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CanceledAt  *time.Time `json:"canceled_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文ステータスが変わったときに外部へ流す内容
type OrderEvent struct {
	OrderID   int64       `json:"order_id"`
	BuyerID   int64       `json:"buyer_id"`
	ProductID int64       `json:"product_id"`
	Quantity  int64       `json:"quantity"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ActorID   int64       `json:"actor_id"`
	At        time.Time   `json:"at"`
}
