package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// SellerOrderUsecase は出品者側の注文処理（発送・キャンセル）
type SellerOrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	products  repo.ProductRepository
	addresses repo.AddressRepository
	events    OrderEventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewSellerOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	products repo.ProductRepository,
	addresses repo.AddressRepository,
	events OrderEventPublisher,
	log *zap.Logger,
) *SellerOrderUsecase {
	return &SellerOrderUsecase{
		tx:        tx,
		orders:    orders,
		products:  products,
		addresses: addresses,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

type ShipInput struct {
	TrackingNumber string `json:"tracking_number" validate:"required,notblank,max=64"`
}

func (u *SellerOrderUsecase) List(ctx context.Context, seller auth.Seller, status string) ([]OrderView, error) {
	st, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	orders, err := u.orders.ListBySeller(ctx, seller.ID, repo.OrderListFilter{Status: st, Limit: orderListLimit})
	if err != nil {
		return nil, Internal("seller_order.list", err)
	}
	out, err := orderViews(ctx, u.products, orders)
	if err != nil {
		return nil, Internal("seller_order.list.products", err)
	}
	return out, nil
}

func (u *SellerOrderUsecase) Detail(ctx context.Context, seller auth.Seller, orderID int64) (OrderView, error) {
	o, err := u.ownedOrder(ctx, seller, orderID)
	if err != nil {
		return OrderView{}, err
	}
	return u.view(ctx, o)
}

// PAID → SHIPPED。追跡番号は必須
func (u *SellerOrderUsecase) Ship(ctx context.Context, seller auth.Seller, orderID int64, in ShipInput) (OrderView, error) {
	if err := validate(in); err != nil {
		return OrderView{}, err
	}
	tracking := strings.TrimSpace(in.TrackingNumber)

	o, err := u.ownedOrder(ctx, seller, orderID)
	if err != nil {
		return OrderView{}, err
	}
	if !o.Status.CanTransitionTo(model.OrderStatusShipped) {
		return OrderView{}, Conflict(CodeInvalidTransition, "only paid orders can be shipped")
	}

	now := u.now()
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Orders().Transition(ctx, o.ID, repo.StatusChange{
			From:           []model.OrderStatus{model.OrderStatusPaid},
			To:             model.OrderStatusShipped,
			At:             now,
			TrackingNumber: &tracking,
		})
		if err != nil {
			return err
		}
		if !ok {
			return Conflict(CodeInvalidTransition, "only paid orders can be shipped")
		}
		return r.AuditLogs().Create(ctx, orderAudit(seller, o, model.OrderStatusShipped, tracking, now))
	})
	if err != nil {
		return OrderView{}, passOrInternal("seller_order.ship", err)
	}

	from := o.Status
	o.Status = model.OrderStatusShipped
	o.TrackingNumber = tracking
	o.ShippedAt = &now
	o.UpdatedAt = now
	publishTransitions(ctx, u.events, u.log, []model.Order{o}, from, seller.ID, now)
	return u.view(ctx, o)
}

// 出品者はPENDINGのみキャンセルできる
func (u *SellerOrderUsecase) Cancel(ctx context.Context, seller auth.Seller, orderID int64) (OrderView, error) {
	o, err := u.ownedOrder(ctx, seller, orderID)
	if err != nil {
		return OrderView{}, err
	}
	if o.Status != model.OrderStatusPending {
		return OrderView{}, Conflict(CodeInvalidTransition, "only pending orders can be canceled by the seller")
	}

	now := u.now()
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := cancelInTx(ctx, r, o, now, false); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, orderAudit(seller, o, model.OrderStatusCanceled, "", now))
	})
	if err != nil {
		return OrderView{}, passOrInternal("seller_order.cancel", err)
	}

	from := o.Status
	o.Status = model.OrderStatusCanceled
	o.CanceledAt = &now
	o.UpdatedAt = now
	publishTransitions(ctx, u.events, u.log, []model.Order{o}, from, seller.ID, now)
	return u.view(ctx, o)
}

func (u *SellerOrderUsecase) view(ctx context.Context, o model.Order) (OrderView, error) {
	v, err := orderDetailView(ctx, u.products, u.addresses, o)
	if err != nil {
		return OrderView{}, Internal("seller_order.view", err)
	}
	return v, nil
}

// 自分の商品の注文でなければ存在しない扱い
func (u *SellerOrderUsecase) ownedOrder(ctx context.Context, seller auth.Seller, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NotFound()
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NotFound()
	}
	if err != nil {
		return model.Order{}, Internal("seller_order.find", err)
	}

	found, err := u.products.FindByIDs(ctx, []int64{o.ProductID})
	if err != nil {
		return model.Order{}, Internal("seller_order.product", err)
	}
	if len(found) == 0 || found[0].SellerID != seller.ID {
		return model.Order{}, NotFound()
	}
	return o, nil
}

type orderAuditState struct {
	Status         model.OrderStatus `json:"status"`
	TrackingNumber string            `json:"tracking_number,omitempty"`
}

func orderAudit(seller auth.Seller, o model.Order, to model.OrderStatus, tracking string, at time.Time) model.AuditLog {
	before, _ := json.Marshal(orderAuditState{Status: o.Status, TrackingNumber: o.TrackingNumber})
	after, _ := json.Marshal(orderAuditState{Status: to, TrackingNumber: tracking})
	return model.AuditLog{
		ActorUserID:  seller.ID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   o.ID,
		Before:       before,
		After:        after,
		CreatedAt:    at,
	}
}
