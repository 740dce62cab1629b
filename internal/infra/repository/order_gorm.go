package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) CreateBulk(ctx context.Context, orders []model.Order) ([]model.Order, error) {
	if len(orders) == 0 {
		return orders, nil
	}
	if err := r.db.WithContext(ctx).Create(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByIDs(ctx context.Context, orderIDs []int64) ([]model.Order, error) {
	if len(orderIDs) == 0 {
		return []model.Order{}, nil
	}
	var items []model.Order
	if err := r.db.WithContext(ctx).Where("id IN ?", orderIDs).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *OrderGormRepository) ListByBuyer(ctx context.Context, buyerID int64, f repo.OrderListFilter) ([]model.Order, error) {
	q := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var items []model.Order
	if err := q.Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *OrderGormRepository) sellerScope(ctx context.Context, sellerID int64) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Joins("JOIN products ON products.id = orders.product_id").
		Where("products.seller_id = ?", sellerID)
}

func (r *OrderGormRepository) ListBySeller(ctx context.Context, sellerID int64, f repo.OrderListFilter) ([]model.Order, error) {
	q := r.sellerScope(ctx, sellerID).Select("orders.*")
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var items []model.Order
	if err := q.Order("orders.id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// 現在のステータスがFromのときだけ更新する
func (r *OrderGormRepository) Transition(ctx context.Context, orderID int64, ch repo.StatusChange) (bool, error) {
	updates := map[string]interface{}{
		"status":     ch.To,
		"updated_at": ch.At,
	}
	switch ch.To {
	case model.OrderStatusPaid:
		updates["paid_at"] = ch.At
	case model.OrderStatusShipped:
		updates["shipped_at"] = ch.At
	case model.OrderStatusCompleted:
		updates["completed_at"] = ch.At
	case model.OrderStatusCanceled:
		updates["canceled_at"] = ch.At
	}
	if ch.AddressID != nil {
		updates["address_id"] = *ch.AddressID
	}
	if ch.Note != nil {
		updates["note"] = *ch.Note
	}
	if ch.TrackingNumber != nil {
		updates["tracking_number"] = *ch.TrackingNumber
	}

	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, ch.From).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderGormRepository) CountByAddressID(ctx context.Context, addressID int64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("address_id = ?", addressID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *OrderGormRepository) HasCompleted(ctx context.Context, buyerID int64, productID int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("buyer_id = ? AND product_id = ? AND status = ?", buyerID, productID, model.OrderStatusCompleted).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *OrderGormRepository) CountBySellerGroupByStatus(ctx context.Context, sellerID int64) (map[model.OrderStatus]int64, error) {
	type row struct {
		Status model.OrderStatus
		N      int64
	}
	var rows []row
	if err := r.sellerScope(ctx, sellerID).
		Select("orders.status AS status, COUNT(*) AS n").
		Group("orders.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[model.OrderStatus]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.N
	}
	return out, nil
}

func (r *OrderGormRepository) SumCompletedRevenueBySeller(ctx context.Context, sellerID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.sellerScope(ctx, sellerID).
		Where("orders.status = ?", model.OrderStatusCompleted).
		Select("COALESCE(SUM(orders.total_price), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
