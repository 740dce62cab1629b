package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

const (
	stockHistoryLimit = 50
	activityLimit     = 50
	lowStockThreshold = 5
)

// ProductUsecase は出品者の商品・在庫管理
type ProductUsecase struct {
	tx        repo.TransactionManager
	products  repo.ProductRepository
	inventory repo.InventoryRepository
	orders    repo.OrderRepository
	audits    repo.AuditLogRepository
	cache     ReadCache
	log       *zap.Logger
	now       func() time.Time
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	inventory repo.InventoryRepository,
	orders repo.OrderRepository,
	audits repo.AuditLogRepository,
	cache ReadCache,
	log *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		tx:        tx,
		products:  products,
		inventory: inventory,
		orders:    orders,
		audits:    audits,
		cache:     cache,
		log:       log,
		now:       time.Now,
	}
}

type ProductInput struct {
	Name        string          `json:"name" validate:"required,notblank,max=255"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"max=64"`
	Images      []string        `json:"images" validate:"max=9,dive,required,max=512"`
	IsActive    *bool           `json:"is_active"`
}

type CreateProductInput struct {
	ProductInput
	Stock int64 `json:"stock" validate:"gte=0"`
}

type AdjustStockInput struct {
	Stock  int64  `json:"stock" validate:"gte=0"`
	Reason string `json:"reason" validate:"required,notblank,max=255"`
}

type SetActiveInput struct {
	IsActive bool `json:"is_active"`
}

type Dashboard struct {
	ProductCount   int64                       `json:"product_count"`
	ActiveCount    int64                       `json:"active_count"`
	OrdersByStatus map[model.OrderStatus]int64 `json:"orders_by_status"`
	Revenue        decimal.Decimal             `json:"revenue"`
	LowStock       []ProductCard               `json:"low_stock"`
}

func (u *ProductUsecase) ListMine(ctx context.Context, seller auth.Seller) ([]model.Product, error) {
	list, err := u.products.ListBySeller(ctx, seller.ID)
	if err != nil {
		return nil, Internal("product.list_mine", err)
	}
	if list == nil {
		list = []model.Product{}
	}
	return list, nil
}

func (u *ProductUsecase) Get(ctx context.Context, seller auth.Seller, productID int64) (model.Product, error) {
	return u.owned(ctx, seller, productID)
}

// 初期在庫があれば在庫履歴も同じTxで残す
func (u *ProductUsecase) Create(ctx context.Context, seller auth.Seller, in CreateProductInput) (model.Product, error) {
	if err := validateProduct(in.ProductInput); err != nil {
		return model.Product{}, err
	}
	if err := validate(in); err != nil {
		return model.Product{}, err
	}

	p := applyProductInput(model.Product{SellerID: seller.ID, IsActive: true}, in.ProductInput)
	p.Stock = in.Stock

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		created, err = r.Products().Create(ctx, p)
		if err != nil {
			return err
		}
		if created.Stock == 0 {
			return nil
		}
		return r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:    created.ID,
			SellerUserID: seller.ID,
			Delta:        created.Stock,
			Reason:       "initial stock",
			CreatedAt:    u.now(),
		})
	})
	if err != nil {
		return model.Product{}, Internal("product.create", err)
	}

	invalidateCatalog(ctx, u.cache, u.log)
	return created, nil
}

// 在庫はAdjustStockでのみ変える
func (u *ProductUsecase) Update(ctx context.Context, seller auth.Seller, productID int64, in ProductInput) (model.Product, error) {
	if err := validateProduct(in); err != nil {
		return model.Product{}, err
	}
	p, err := u.owned(ctx, seller, productID)
	if err != nil {
		return model.Product{}, err
	}

	p = applyProductInput(p, in)
	if err := u.products.Update(ctx, p); err != nil {
		return model.Product{}, u.mutationError("product.update", err)
	}

	invalidateCatalog(ctx, u.cache, u.log)
	return u.owned(ctx, seller, productID)
}

func (u *ProductUsecase) SetActive(ctx context.Context, seller auth.Seller, productID int64, in SetActiveInput) (model.Product, error) {
	p, err := u.owned(ctx, seller, productID)
	if err != nil {
		return model.Product{}, err
	}
	if err := u.products.SetActive(ctx, p.ID, in.IsActive); err != nil {
		return model.Product{}, u.mutationError("product.set_active", err)
	}
	p.IsActive = in.IsActive

	invalidateCatalog(ctx, u.cache, u.log)
	return p, nil
}

// 論理削除。既存の注文からは引き続き参照できる
func (u *ProductUsecase) Delete(ctx context.Context, seller auth.Seller, productID int64) error {
	p, err := u.owned(ctx, seller, productID)
	if err != nil {
		return err
	}
	if err := u.products.SoftDelete(ctx, p.ID); err != nil {
		return u.mutationError("product.delete", err)
	}

	invalidateCatalog(ctx, u.cache, u.log)
	return nil
}

type stockState struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason,omitempty"`
}

// 在庫の現在値を設定し、差分の履歴と監査ログを残す
func (u *ProductUsecase) AdjustStock(ctx context.Context, seller auth.Seller, productID int64, in AdjustStockInput) (model.Product, error) {
	if err := validate(in); err != nil {
		return model.Product{}, err
	}
	reason := strings.TrimSpace(in.Reason)

	p, err := u.owned(ctx, seller, productID)
	if err != nil {
		return model.Product{}, err
	}

	now := u.now()
	after, _ := json.Marshal(stockState{Stock: in.Stock, Reason: reason})

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫はTx内で読み直す（支払いと競合するため）
		cur, err := r.Products().FindByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := r.Inventory().SetStock(ctx, p.ID, in.Stock); err != nil {
			return err
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:    p.ID,
			SellerUserID: seller.ID,
			Delta:        in.Stock - cur.Stock,
			Reason:       reason,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		before, _ := json.Marshal(stockState{Stock: cur.Stock})
		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  seller.ID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			Before:       before,
			After:        after,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return model.Product{}, u.mutationError("product.adjust_stock", err)
	}

	invalidateCatalog(ctx, u.cache, u.log)
	p.Stock = in.Stock
	p.UpdatedAt = now
	return p, nil
}

func (u *ProductUsecase) StockHistory(ctx context.Context, seller auth.Seller, productID int64) ([]model.InventoryAdjustment, error) {
	p, err := u.owned(ctx, seller, productID)
	if err != nil {
		return nil, err
	}
	list, err := u.inventory.ListAdjustments(ctx, p.ID, stockHistoryLimit)
	if err != nil {
		return nil, Internal("product.stock_history", err)
	}
	if list == nil {
		list = []model.InventoryAdjustment{}
	}
	return list, nil
}

// 出品者自身の操作履歴（在庫・注文）
func (u *ProductUsecase) Activity(ctx context.Context, seller auth.Seller) ([]model.AuditLog, error) {
	actor := seller.ID
	list, err := u.audits.List(ctx, repo.AuditLogFilter{ActorUserID: &actor, Limit: activityLimit})
	if err != nil {
		return nil, Internal("product.activity", err)
	}
	if list == nil {
		list = []model.AuditLog{}
	}
	return list, nil
}

func (u *ProductUsecase) Dashboard(ctx context.Context, seller auth.Seller) (Dashboard, error) {
	total, active, err := u.products.CountBySeller(ctx, seller.ID)
	if err != nil {
		return Dashboard{}, Internal("dashboard.products", err)
	}
	byStatus, err := u.orders.CountBySellerGroupByStatus(ctx, seller.ID)
	if err != nil {
		return Dashboard{}, Internal("dashboard.orders", err)
	}
	revenue, err := u.orders.SumCompletedRevenueBySeller(ctx, seller.ID)
	if err != nil {
		return Dashboard{}, Internal("dashboard.revenue", err)
	}
	mine, err := u.products.ListBySeller(ctx, seller.ID)
	if err != nil {
		return Dashboard{}, Internal("dashboard.low_stock", err)
	}

	//全ステータスを0埋めして返す
	counts := make(map[model.OrderStatus]int64, len(model.OrderStatuses))
	for _, st := range model.OrderStatuses {
		counts[st] = byStatus[st]
	}

	low := []ProductCard{}
	for _, p := range mine {
		if p.IsActive && p.Stock <= lowStockThreshold {
			low = append(low, toProductCard(p, 0))
		}
	}

	return Dashboard{
		ProductCount:   total,
		ActiveCount:    active,
		OrdersByStatus: counts,
		Revenue:        revenue,
		LowStock:       low,
	}, nil
}

// 他の出品者の商品は存在しない扱い
func (u *ProductUsecase) owned(ctx context.Context, seller auth.Seller, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NotFound()
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NotFound()
	}
	if err != nil {
		return model.Product{}, Internal("product.find", err)
	}
	if p.SellerID != seller.ID {
		return model.Product{}, NotFound()
	}
	return p, nil
}

func (u *ProductUsecase) mutationError(op string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NotFound()
	}
	return passOrInternal(op, err)
}

func validateProduct(in ProductInput) error {
	if err := validate(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return Invalid("price must be at least 0")
	}
	return nil
}

func applyProductInput(p model.Product, in ProductInput) model.Product {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.Category = strings.TrimSpace(in.Category)
	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		images = append(images, strings.TrimSpace(img))
	}
	p.Images = images
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return p
}
