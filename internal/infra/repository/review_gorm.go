package repository

import (
	"context"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type reviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) repo.ReviewRepository {
	return &reviewGormRepository{db: db}
}

func (r *reviewGormRepository) Create(ctx context.Context, review model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&review).Error; err != nil {
		return model.Review{}, translate(err)
	}
	return review, nil
}

func (r *reviewGormRepository) Exists(ctx context.Context, userID int64, productID int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *reviewGormRepository) ListByProduct(ctx context.Context, productID int64, limit int) ([]model.Review, error) {
	q := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var list []model.Review
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewGormRepository) CountByProducts(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	type row struct {
		ProductID int64
		N         int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("product_id, COUNT(*) AS n").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.ProductID] = rw.N
	}
	return out, nil
}
