package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 公開商品の一覧条件。空の項目は絞り込まない
type ProductListQuery struct {
	Q        string
	Category string
	Limit    int
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	//販売中の商品を売れた順→新しい順で返す
	ListActive(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	//販売中商品のカテゴリ一覧
	Categories(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, productID int64) (model.Product, error)
	//削除済み（DeletedAt.Valid）も含めて返す
	FindByIDs(ctx context.Context, productIDs []int64) ([]model.Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error)
	CountBySeller(ctx context.Context, sellerID int64) (total int64, active int64, err error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SetActive(ctx context.Context, productID int64, isActive bool) error
	SoftDelete(ctx context.Context, productID int64) error
}
