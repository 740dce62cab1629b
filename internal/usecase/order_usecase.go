package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

const orderListLimit = 100

type OrderOptions struct {
	// 支払い済み注文のキャンセルで在庫と販売数を戻す
	RestockOnCancel bool
}

// OrderUsecase は購入者側の注文ワークフロー
type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	products  repo.ProductRepository
	cartItems repo.CartItemRepository
	addresses repo.AddressRepository
	events    OrderEventPublisher
	log       *zap.Logger
	opts      OrderOptions
	now       func() time.Time
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	products repo.ProductRepository,
	cartItems repo.CartItemRepository,
	addresses repo.AddressRepository,
	events OrderEventPublisher,
	log *zap.Logger,
	opts OrderOptions,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		orders:    orders,
		products:  products,
		cartItems: cartItems,
		addresses: addresses,
		events:    events,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

type CheckoutResult struct {
	Orders  []OrderView     `json:"orders"`
	Address model.Address   `json:"address"`
	Total   decimal.Decimal `json:"total"`
}

// カート → PENDING注文。全行OKのときだけ作成し、カートを空にする
func (u *OrderUsecase) Checkout(ctx context.Context, buyer auth.Buyer) (CheckoutResult, error) {
	items, err := u.cartItems.ListByUserID(ctx, buyer.ID)
	if err != nil {
		return CheckoutResult{}, Internal("checkout.cart", err)
	}
	if len(items) == 0 {
		return CheckoutResult{}, Unprocessable(CodeCartEmpty, "your cart is empty")
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	found, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return CheckoutResult{}, Internal("checkout.products", err)
	}
	products := productMap(found)

	//最初にNGだった商品名を返す
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return CheckoutResult{}, unavailable("")
		}
		if !purchasable(p) {
			return CheckoutResult{}, unavailable(p.Name)
		}
		if p.Stock < it.Quantity {
			return CheckoutResult{}, insufficientStock(p.Name)
		}
	}

	addr, err := u.addresses.FindDefaultOrLatest(ctx, buyer.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutResult{}, needsAddress()
	}
	if err != nil {
		return CheckoutResult{}, Internal("checkout.address", err)
	}

	now := u.now()
	pending := make([]model.Order, 0, len(items))
	for _, it := range items {
		p := products[it.ProductID]
		addrID := addr.ID
		pending = append(pending, model.Order{
			BuyerID:    buyer.ID,
			ProductID:  p.ID,
			AddressID:  &addrID,
			Quantity:   it.Quantity,
			UnitPrice:  p.Price,
			TotalPrice: lineTotal(p.Price, it.Quantity),
			Status:     model.OrderStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	var created []model.Order
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		created, err = r.Orders().CreateBulk(ctx, pending)
		if err != nil {
			return err
		}
		return r.CartItems().DeleteByUserID(ctx, buyer.ID)
	})
	if err != nil {
		return CheckoutResult{}, Internal("checkout.tx", err)
	}

	out := CheckoutResult{Orders: make([]OrderView, 0, len(created)), Address: addr, Total: decimal.Zero}
	for _, o := range created {
		p := products[o.ProductID]
		out.Orders = append(out.Orders, toOrderView(o, &p))
		out.Total = out.Total.Add(o.TotalPrice)
	}
	u.committed(ctx, created, "", buyer.ID, now)
	return out, nil
}

type PayInput struct {
	// 空なら自分のPENDING注文すべて
	OrderIDs      []int64 `json:"order_ids" validate:"omitempty,max=100,dive,gt=0"`
	AddressID     int64   `json:"address_id" validate:"gte=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,notblank,max=32"`
}

type PayResult struct {
	Orders []OrderView     `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

// PENDING → PAID。在庫の減算とステータス更新を1トランザクションで行う
func (u *OrderUsecase) Pay(ctx context.Context, buyer auth.Buyer, in PayInput) (PayResult, error) {
	if err := validate(in); err != nil {
		return PayResult{}, err
	}

	addr, err := u.resolveAddress(ctx, buyer, in.AddressID)
	if err != nil {
		return PayResult{}, err
	}

	orders, err := u.payableOrders(ctx, buyer, in.OrderIDs)
	if err != nil {
		return PayResult{}, err
	}

	ids := make([]int64, 0, len(orders))
	need := make(map[int64]int64, len(orders))
	for _, o := range orders {
		if _, ok := need[o.ProductID]; !ok {
			ids = append(ids, o.ProductID)
		}
		need[o.ProductID] += o.Quantity
	}
	found, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return PayResult{}, Internal("pay.products", err)
	}
	products := productMap(found)

	//先にわかりやすいメッセージを出すための確認。確定はトランザクション内の条件付き更新
	for _, pid := range ids {
		p, ok := products[pid]
		if !ok {
			return PayResult{}, unavailable("")
		}
		if !purchasable(p) {
			return PayResult{}, unavailable(p.Name)
		}
		if p.Stock < need[pid] {
			return PayResult{}, insufficientStock(p.Name)
		}
	}

	now := u.now()
	note := "payment method: " + strings.TrimSpace(in.PaymentMethod)
	addrID := addr.ID

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for _, o := range orders {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, o.ProductID, o.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return insufficientStock(products[o.ProductID].Name)
			}

			ok, err = r.Orders().Transition(ctx, o.ID, repo.StatusChange{
				From:      []model.OrderStatus{model.OrderStatusPending},
				To:        model.OrderStatusPaid,
				At:        now,
				AddressID: &addrID,
				Note:      &note,
			})
			if err != nil {
				return err
			}
			if !ok {
				return orderNotPayable(o.ID)
			}
		}
		return nil
	})
	if err != nil {
		return PayResult{}, passOrInternal("pay.tx", err)
	}

	out := PayResult{Orders: make([]OrderView, 0, len(orders)), Total: decimal.Zero}
	for i := range orders {
		o := &orders[i]
		o.Status = model.OrderStatusPaid
		o.AddressID = &addrID
		o.Note = note
		o.PaidAt = &now
		o.UpdatedAt = now

		p := products[o.ProductID]
		v := toOrderView(*o, &p)
		v.Address = &addr
		out.Orders = append(out.Orders, v)
		out.Total = out.Total.Add(o.TotalPrice)
	}
	u.committed(ctx, orders, model.OrderStatusPending, buyer.ID, now)
	return out, nil
}

// SHIPPED → COMPLETED（受け取り確認）
func (u *OrderUsecase) Confirm(ctx context.Context, buyer auth.Buyer, orderID int64) (OrderView, error) {
	o, err := u.ownedOrder(ctx, buyer, orderID)
	if err != nil {
		return OrderView{}, err
	}
	if !o.Status.CanTransitionTo(model.OrderStatusCompleted) {
		return OrderView{}, Conflict(CodeInvalidTransition, "only shipped orders can be confirmed")
	}

	now := u.now()
	ok, err := u.orders.Transition(ctx, o.ID, repo.StatusChange{
		From: []model.OrderStatus{model.OrderStatusShipped},
		To:   model.OrderStatusCompleted,
		At:   now,
	})
	if err != nil {
		return OrderView{}, Internal("order.confirm", err)
	}
	if !ok {
		return OrderView{}, Conflict(CodeInvalidTransition, "only shipped orders can be confirmed")
	}

	from := o.Status
	o.Status = model.OrderStatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	u.committed(ctx, []model.Order{o}, from, buyer.ID, now)
	return u.view(ctx, o)
}

// PENDING / PAID → CANCELED
func (u *OrderUsecase) Cancel(ctx context.Context, buyer auth.Buyer, orderID int64) (OrderView, error) {
	o, err := u.ownedOrder(ctx, buyer, orderID)
	if err != nil {
		return OrderView{}, err
	}
	if !o.Status.CanTransitionTo(model.OrderStatusCanceled) {
		return OrderView{}, Conflict(CodeInvalidTransition, "only pending or paid orders can be canceled")
	}

	now := u.now()
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return cancelInTx(ctx, r, o, now, u.opts.RestockOnCancel)
	})
	if err != nil {
		return OrderView{}, passOrInternal("order.cancel", err)
	}

	from := o.Status
	o.Status = model.OrderStatusCanceled
	o.CanceledAt = &now
	o.UpdatedAt = now
	u.committed(ctx, []model.Order{o}, from, buyer.ID, now)
	return u.view(ctx, o)
}

// 自分の注文一覧。statusが空なら全件
func (u *OrderUsecase) ListMine(ctx context.Context, buyer auth.Buyer, status string) ([]OrderView, error) {
	st, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	orders, err := u.orders.ListByBuyer(ctx, buyer.ID, repo.OrderListFilter{Status: st, Limit: orderListLimit})
	if err != nil {
		return nil, Internal("order.list", err)
	}
	out, err := orderViews(ctx, u.products, orders)
	if err != nil {
		return nil, Internal("order.list.products", err)
	}
	return out, nil
}

func (u *OrderUsecase) Detail(ctx context.Context, buyer auth.Buyer, orderID int64) (OrderView, error) {
	o, err := u.ownedOrder(ctx, buyer, orderID)
	if err != nil {
		return OrderView{}, err
	}
	return u.view(ctx, o)
}

func (u *OrderUsecase) view(ctx context.Context, o model.Order) (OrderView, error) {
	v, err := orderDetailView(ctx, u.products, u.addresses, o)
	if err != nil {
		return OrderView{}, Internal("order.view", err)
	}
	return v, nil
}

// 他人の注文は「存在しない扱い」にする
func (u *OrderUsecase) ownedOrder(ctx context.Context, buyer auth.Buyer, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NotFound()
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NotFound()
	}
	if err != nil {
		return model.Order{}, Internal("order.find", err)
	}
	if o.BuyerID != buyer.ID {
		return model.Order{}, NotFound()
	}
	return o, nil
}

// address_idが0ならデフォルト→最新の住所
func (u *OrderUsecase) resolveAddress(ctx context.Context, buyer auth.Buyer, addressID int64) (model.Address, error) {
	if addressID == 0 {
		addr, err := u.addresses.FindDefaultOrLatest(ctx, buyer.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Address{}, needsAddress()
		}
		if err != nil {
			return model.Address{}, Internal("pay.address", err)
		}
		return addr, nil
	}

	addr, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NotFound()
	}
	if err != nil {
		return model.Address{}, Internal("pay.address", err)
	}
	if addr.UserID != buyer.ID {
		return model.Address{}, NotFound()
	}
	return addr, nil
}

func (u *OrderUsecase) payableOrders(ctx context.Context, buyer auth.Buyer, orderIDs []int64) ([]model.Order, error) {
	if len(orderIDs) == 0 {
		orders, err := u.orders.ListByBuyer(ctx, buyer.ID, repo.OrderListFilter{Status: model.OrderStatusPending})
		if err != nil {
			return nil, Internal("pay.pending", err)
		}
		if len(orders) == 0 {
			return nil, Unprocessable(CodeNoPendingOrders, "no pending orders to pay")
		}
		sortOrders(orders)
		return orders, nil
	}

	ids := uniqueIDs(orderIDs)
	orders, err := u.orders.FindByIDs(ctx, ids)
	if err != nil {
		return nil, Internal("pay.orders", err)
	}
	if len(orders) != len(ids) {
		return nil, NotFound()
	}
	for _, o := range orders {
		if o.BuyerID != buyer.ID {
			return nil, NotFound()
		}
		if o.Status != model.OrderStatusPending {
			return nil, orderNotPayable(o.ID)
		}
	}
	sortOrders(orders)
	return orders, nil
}

// コミット後の通知。失敗してもロールバックしない
func (u *OrderUsecase) committed(ctx context.Context, orders []model.Order, from model.OrderStatus, actorID int64, at time.Time) {
	publishTransitions(ctx, u.events, u.log, orders, from, actorID, at)
}

func publishTransitions(ctx context.Context, events OrderEventPublisher, log *zap.Logger, orders []model.Order, from model.OrderStatus, actorID int64, at time.Time) {
	if len(orders) == 0 {
		return
	}
	countTransition(orders[0].Status, len(orders))
	for _, o := range orders {
		evt := model.OrderEvent{
			OrderID:   o.ID,
			BuyerID:   o.BuyerID,
			ProductID: o.ProductID,
			Quantity:  o.Quantity,
			From:      from,
			To:        o.Status,
			ActorID:   actorID,
			At:        at,
		}
		if err := events.PublishOrderEvent(ctx, evt); err != nil {
			log.Warn("publish order event failed",
				zap.Int64("order_id", o.ID),
				zap.String("to", string(o.Status)),
				zap.Error(err),
			)
		}
	}
}

// キャンセルの共通処理。在庫戻しは設定で有効なときだけ
func cancelInTx(ctx context.Context, r repo.TxRepos, o model.Order, now time.Time, restock bool) error {
	ok, err := r.Orders().Transition(ctx, o.ID, repo.StatusChange{
		From: []model.OrderStatus{o.Status},
		To:   model.OrderStatusCanceled,
		At:   now,
	})
	if err != nil {
		return err
	}
	if !ok {
		return Conflict(CodeInvalidTransition, "order status has changed, please reload")
	}
	if restock && o.Status == model.OrderStatusPaid {
		if err := r.Inventory().IncreaseStock(ctx, o.ProductID, o.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func orderViews(ctx context.Context, products repo.ProductRepository, orders []model.Order) ([]OrderView, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ProductID)
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := productMap(found)

	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		if p, ok := byID[o.ProductID]; ok {
			out = append(out, toOrderView(o, &p))
			continue
		}
		out = append(out, toOrderView(o, nil))
	}
	return out, nil
}

func orderDetailView(ctx context.Context, products repo.ProductRepository, addresses repo.AddressRepository, o model.Order) (OrderView, error) {
	list, err := orderViews(ctx, products, []model.Order{o})
	if err != nil {
		return OrderView{}, err
	}
	v := list[0]
	if o.AddressID != nil {
		addr, err := addresses.FindByID(ctx, *o.AddressID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return OrderView{}, err
		}
		if err == nil {
			v.Address = &addr
		}
	}
	return v, nil
}

func parseStatusFilter(status string) (model.OrderStatus, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		return "", nil
	}
	st := model.OrderStatus(status)
	if !st.Valid() {
		return "", Invalid("status must be one of: PENDING PAID SHIPPED COMPLETED CANCELED")
	}
	return st, nil
}

func needsAddress() error {
	return Unprocessable(CodeNeedsAddress, "please add a shipping address first")
}

func orderNotPayable(orderID int64) error {
	return Conflict(CodeInvalidTransition, fmt.Sprintf("order %d is not awaiting payment", orderID))
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// 商品の行ロックを常に同じ順で取る
func sortOrders(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].ProductID != orders[j].ProductID {
			return orders[i].ProductID < orders[j].ProductID
		}
		return orders[i].ID < orders[j].ID
	})
}
