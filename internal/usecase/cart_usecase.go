package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"marketplace/internal/auth"
	repo "marketplace/internal/repository"
)

// CartUsecase は購入者のカート
type CartUsecase struct {
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
}

func NewCartUsecase(cartItems repo.CartItemRepository, products repo.ProductRepository) *CartUsecase {
	return &CartUsecase{cartItems: cartItems, products: products}
}

type AddCartInput struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int64 `json:"quantity" validate:"gt=0,lte=999"`
}

type UpdateCartItemInput struct {
	Quantity int64 `json:"quantity" validate:"gt=0,lte=999"`
}

func (u *CartUsecase) Get(ctx context.Context, buyer auth.Buyer) (CartView, error) {
	return u.view(ctx, buyer.ID)
}

// 同一商品は数量加算。合計が在庫を超えるなら追加しない
func (u *CartUsecase) Add(ctx context.Context, buyer auth.Buyer, in AddCartInput) (CartView, error) {
	if err := validate(in); err != nil {
		return CartView{}, err
	}

	p, err := u.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NotFound()
	}
	if err != nil {
		return CartView{}, Internal("cart.add.product", err)
	}
	if !p.IsActive {
		return CartView{}, NotFound()
	}

	var existing int64
	item, err := u.cartItems.FindByUserAndProduct(ctx, buyer.ID, in.ProductID)
	switch {
	case err == nil:
		existing = item.Quantity
	case errors.Is(err, repo.ErrNotFound):
	default:
		return CartView{}, Internal("cart.add.find", err)
	}

	if existing+in.Quantity > p.Stock {
		return CartView{}, insufficientStock(p.Name)
	}

	if err := u.cartItems.Upsert(ctx, buyer.ID, in.ProductID, in.Quantity); err != nil {
		return CartView{}, Internal("cart.add.upsert", err)
	}
	return u.view(ctx, buyer.ID)
}

// 数量を上書き
func (u *CartUsecase) UpdateQuantity(ctx context.Context, buyer auth.Buyer, itemID int64, in UpdateCartItemInput) (CartView, error) {
	if err := validate(in); err != nil {
		return CartView{}, err
	}

	item, err := u.ownedItem(ctx, buyer, itemID)
	if err != nil {
		return CartView{}, err
	}

	p, err := u.products.FindByID(ctx, item.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NotFound()
	}
	if err != nil {
		return CartView{}, Internal("cart.update.product", err)
	}
	if in.Quantity > p.Stock {
		return CartView{}, insufficientStock(p.Name)
	}

	if err := u.cartItems.UpdateQuantity(ctx, item.ID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartView{}, NotFound()
		}
		return CartView{}, Internal("cart.update", err)
	}
	return u.view(ctx, buyer.ID)
}

func (u *CartUsecase) Remove(ctx context.Context, buyer auth.Buyer, itemID int64) (CartView, error) {
	item, err := u.ownedItem(ctx, buyer, itemID)
	if err != nil {
		return CartView{}, err
	}
	if err := u.cartItems.DeleteByID(ctx, item.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return CartView{}, Internal("cart.remove", err)
	}
	return u.view(ctx, buyer.ID)
}

func (u *CartUsecase) Clear(ctx context.Context, buyer auth.Buyer) (CartView, error) {
	if err := u.cartItems.DeleteByUserID(ctx, buyer.ID); err != nil {
		return CartView{}, Internal("cart.clear", err)
	}
	return u.view(ctx, buyer.ID)
}

// 他人の明細は存在しない扱い
func (u *CartUsecase) ownedItem(ctx context.Context, buyer auth.Buyer, itemID int64) (itemRef, error) {
	if itemID <= 0 {
		return itemRef{}, NotFound()
	}
	item, err := u.cartItems.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return itemRef{}, NotFound()
	}
	if err != nil {
		return itemRef{}, Internal("cart.find_item", err)
	}
	if item.UserID != buyer.ID {
		return itemRef{}, NotFound()
	}
	return itemRef{ID: item.ID, ProductID: item.ProductID}, nil
}

type itemRef struct {
	ID        int64
	ProductID int64
}

// 現在の商品情報でカートを組み立てる
func (u *CartUsecase) view(ctx context.Context, userID int64) (CartView, error) {
	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartView{}, Internal("cart.list", err)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	found, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return CartView{}, Internal("cart.products", err)
	}
	products := productMap(found)

	out := CartView{Items: make([]CartLine, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		line := CartLine{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, Subtotal: decimal.Zero}
		if p, ok := products[it.ProductID]; ok {
			line.Name = p.Name
			line.Price = p.Price
			line.Image = p.Cover()
			line.Stock = p.Stock
			line.Available = purchasable(p)
			line.Subtotal = lineTotal(p.Price, it.Quantity)
		}
		if line.Available {
			out.Total = out.Total.Add(line.Subtotal)
		}
		out.Count += it.Quantity
		out.Items = append(out.Items, line)
	}
	return out, nil
}

func insufficientStock(name string) error {
	return Conflict(CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", name))
}

func unavailable(name string) error {
	if name == "" {
		return Conflict(CodeProductUnavailable, "a product in your cart is no longer available")
	}
	return Conflict(CodeProductUnavailable, fmt.Sprintf("%s is no longer available", name))
}
