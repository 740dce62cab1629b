package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/infra/db"
)

// 実DBに対して流す。TEST_DATABASE_DSN が無ければスキップ。
// 1テスト=1トランザクションで最後にロールバックする
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}
	driver := os.Getenv("TEST_DATABASE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	gdb, err := db.Connect(config.DB{
		Driver:          driver,
		DSN:             dsn,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		LogLevel:        "silent",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	tx := gdb.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		tx.Rollback()
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return tx
}

func seedUser(t *testing.T, tx *gorm.DB, role model.Role) model.User {
	t.Helper()
	u := &model.User{
		Username:     "u_" + uuid.NewString()[:8],
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, NewUserGormRepository(tx).Create(context.Background(), u))
	return *u
}

func seedProduct(t *testing.T, tx *gorm.DB, sellerID int64, price string, stock int64) model.Product {
	t.Helper()
	p, err := NewProductGormRepository(tx).Create(context.Background(), model.Product{
		SellerID: sellerID,
		Name:     "item-" + uuid.NewString()[:6],
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: "general",
		IsActive: true,
	})
	require.NoError(t, err)
	return p
}

func seedOrder(t *testing.T, tx *gorm.DB, buyerID int64, p model.Product, qty int64, status model.OrderStatus) model.Order {
	t.Helper()
	created, err := NewOrderGormRepository(tx).CreateBulk(context.Background(), []model.Order{{
		BuyerID:    buyerID,
		ProductID:  p.ID,
		Quantity:   qty,
		UnitPrice:  p.Price,
		TotalPrice: p.Price.Mul(decimal.NewFromInt(qty)),
		Status:     status,
	}})
	require.NoError(t, err)
	return created[0]
}

func seedAddress(t *testing.T, tx *gorm.DB, userID int64, isDefault bool) model.Address {
	t.Helper()
	a, err := NewAddressGormRepository(tx).Create(context.Background(), model.Address{
		UserID:       userID,
		ReceiverName: "Taro",
		Phone:        "090-0000-0000",
		Province:     "Tokyo",
		City:         "Shibuya",
		Detail:       "1-2-3",
		IsDefault:    isDefault,
	})
	require.NoError(t, err)
	return a
}
