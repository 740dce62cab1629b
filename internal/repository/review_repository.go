package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type ReviewRepository interface {
	//同じユーザー×商品が既にあればErrDuplicate
	Create(ctx context.Context, review model.Review) (model.Review, error)
	Exists(ctx context.Context, userID int64, productID int64) (bool, error)
	//新しい順
	ListByProduct(ctx context.Context, productID int64, limit int) ([]model.Review, error)
	CountByProducts(ctx context.Context, productIDs []int64) (map[int64]int64, error)
}
