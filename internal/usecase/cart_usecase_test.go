package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
	"marketplace/internal/usecase"
)

func TestCart_AddMergesSameProduct(t *testing.T) {
	s := newMemStore()
	uc := usecase.NewCartUsecase(s.CartItems(), s.Products())
	buyer := auth.Buyer{ID: s.addUser("buyer1", model.RoleBuyer).ID}
	p := s.addProduct(1, "Mug", "2.50", 5)
	ctx := context.Background()

	_, err := uc.Add(ctx, buyer, usecase.AddCartInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	cart, err := uc.Add(ctx, buyer, usecase.AddCartInput{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(5), cart.Items[0].Quantity)
	assert.Equal(t, int64(5), cart.Count)
	assert.True(t, decimal.RequireFromString("12.50").Equal(cart.Total))
	assert.True(t, cart.Items[0].Available)
}

func TestCart_AddRespectsStock(t *testing.T) {
	s := newMemStore()
	uc := usecase.NewCartUsecase(s.CartItems(), s.Products())
	buyer := auth.Buyer{ID: s.addUser("buyer1", model.RoleBuyer).ID}
	p := s.addProduct(1, "Mug", "2.50", 3)
	ctx := context.Background()

	_, err := uc.Add(ctx, buyer, usecase.AddCartInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	//既存2 + 追加2 > 在庫3
	_, err = uc.Add(ctx, buyer, usecase.AddCartInput{ProductID: p.ID, Quantity: 2})
	requireAppError(t, err, http.StatusConflict, usecase.CodeInsufficientStock)
	assert.Equal(t, int64(2), s.cartOf(buyer.ID)[0].Quantity)

	_, err = uc.Add(ctx, buyer, usecase.AddCartInput{ProductID: p.ID, Quantity: 0})
	requireAppError(t, err, http.StatusBadRequest, usecase.CodeValidation)
}

func TestCart_AddInactiveOrMissingProduct(t *testing.T) {
	s := newMemStore()
	uc := usecase.NewCartUsecase(s.CartItems(), s.Products())
	buyer := auth.Buyer{ID: 1}
	p := s.addProduct(2, "Mug", "1", 3)
	require.NoError(t, s.Products().SetActive(context.Background(), p.ID, false))

	_, err := uc.Add(context.Background(), buyer, usecase.AddCartInput{ProductID: p.ID, Quantity: 1})
	requireNotFound(t, err)
	_, err = uc.Add(context.Background(), buyer, usecase.AddCartInput{ProductID: 999, Quantity: 1})
	requireNotFound(t, err)
}

func TestCart_UpdateQuantity(t *testing.T) {
	s := newMemStore()
	uc := usecase.NewCartUsecase(s.CartItems(), s.Products())
	buyer := auth.Buyer{ID: 1}
	p := s.addProduct(2, "Mug", "1", 4)
	it := s.addCartItem(buyer.ID, p.ID, 1)
	ctx := context.Background()

	cart, err := uc.UpdateQuantity(ctx, buyer, it.ID, usecase.UpdateCartItemInput{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(4), cart.Items[0].Quantity)

	_, err = uc.UpdateQuantity(ctx, buyer, it.ID, usecase.UpdateCartItemInput{Quantity: 5})
	requireAppError(t, err, http.StatusConflict, usecase.CodeInsufficientStock)

	_, err = uc.UpdateQuantity(ctx, auth.Buyer{ID: 99}, it.ID, usecase.UpdateCartItemInput{Quantity: 1})
	requireNotFound(t, err)
}

func TestCart_RemoveAndClear(t *testing.T) {
	s := newMemStore()
	uc := usecase.NewCartUsecase(s.CartItems(), s.Products())
	buyer := auth.Buyer{ID: 1}
	a := s.addProduct(2, "Mug", "1", 4)
	b := s.addProduct(2, "Pen", "1", 4)
	ia := s.addCartItem(buyer.ID, a.ID, 1)
	s.addCartItem(buyer.ID, b.ID, 1)
	theirs := s.addCartItem(50, a.ID, 1)
	ctx := context.Background()

	_, err := uc.Remove(ctx, buyer, theirs.ID)
	requireNotFound(t, err)

	cart, err := uc.Remove(ctx, buyer, ia.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, b.ID, cart.Items[0].ProductID)

	cart, err = uc.Clear(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
	assert.Len(t, s.cartOf(50), 1)
}

func TestCart_UnavailableLinesAreExcludedFromTotal(t *testing.T) {
	s := newMemStore()
	uc := usecase.NewCartUsecase(s.CartItems(), s.Products())
	buyer := auth.Buyer{ID: 1}
	a := s.addProduct(2, "Mug", "5", 4)
	b := s.addProduct(2, "Pen", "3", 4)
	s.addCartItem(buyer.ID, a.ID, 1)
	s.addCartItem(buyer.ID, b.ID, 2)
	require.NoError(t, s.Products().SoftDelete(context.Background(), b.ID))

	cart, err := uc.Get(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.True(t, cart.Items[0].Available)
	assert.False(t, cart.Items[1].Available)
	assert.Equal(t, "Pen", cart.Items[1].Name)
	assert.True(t, decimal.NewFromInt(5).Equal(cart.Total))
	assert.Equal(t, int64(3), cart.Count)
}
