package usecase

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

const reviewListLimit = 100

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=500"`
}

type ReviewEligibility struct {
	CanReview       bool `json:"can_review"`
	AlreadyReviewed bool `json:"already_reviewed"`
	HasCompleted    bool `json:"has_completed_order"`
}

// ReviewUsecase は受け取り済みの購入者だけがレビューできる
type ReviewUsecase struct {
	reviews  repo.ReviewRepository
	orders   repo.OrderRepository
	products repo.ProductRepository
	users    repo.UserRepository
}

func NewReviewUsecase(
	reviews repo.ReviewRepository,
	orders repo.OrderRepository,
	products repo.ProductRepository,
	users repo.UserRepository,
) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, orders: orders, products: products, users: users}
}

func (u *ReviewUsecase) Create(ctx context.Context, buyer auth.Buyer, productID int64, in ReviewInput) (ReviewView, error) {
	if err := validate(in); err != nil {
		return ReviewView{}, err
	}
	if err := u.productExists(ctx, productID); err != nil {
		return ReviewView{}, err
	}

	el, err := u.eligibility(ctx, buyer, productID)
	if err != nil {
		return ReviewView{}, err
	}
	if el.AlreadyReviewed {
		return ReviewView{}, alreadyReviewed()
	}
	if !el.HasCompleted {
		return ReviewView{}, Unprocessable(CodeReviewNotAllowed, "you can only review products from completed orders")
	}

	created, err := u.reviews.Create(ctx, model.Review{
		UserID:    buyer.ID,
		ProductID: productID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	})
	//同時投稿は一意制約で弾かれる
	if errors.Is(err, repo.ErrDuplicate) {
		return ReviewView{}, alreadyReviewed()
	}
	if err != nil {
		return ReviewView{}, Internal("review.create", err)
	}

	views, err := reviewViews(ctx, u.users, []model.Review{created})
	if err != nil {
		return ReviewView{}, Internal("review.create.user", err)
	}
	return views[0], nil
}

func (u *ReviewUsecase) ListByProduct(ctx context.Context, productID int64) ([]ReviewView, error) {
	if err := u.productExists(ctx, productID); err != nil {
		return nil, err
	}
	list, err := u.reviews.ListByProduct(ctx, productID, reviewListLimit)
	if err != nil {
		return nil, Internal("review.list", err)
	}
	out, err := reviewViews(ctx, u.users, list)
	if err != nil {
		return nil, Internal("review.list.users", err)
	}
	return out, nil
}

func (u *ReviewUsecase) Eligibility(ctx context.Context, buyer auth.Buyer, productID int64) (ReviewEligibility, error) {
	if err := u.productExists(ctx, productID); err != nil {
		return ReviewEligibility{}, err
	}
	return u.eligibility(ctx, buyer, productID)
}

func (u *ReviewUsecase) eligibility(ctx context.Context, buyer auth.Buyer, productID int64) (ReviewEligibility, error) {
	reviewed, err := u.reviews.Exists(ctx, buyer.ID, productID)
	if err != nil {
		return ReviewEligibility{}, Internal("review.exists", err)
	}
	completed, err := u.orders.HasCompleted(ctx, buyer.ID, productID)
	if err != nil {
		return ReviewEligibility{}, Internal("review.completed", err)
	}
	return ReviewEligibility{
		CanReview:       completed && !reviewed,
		AlreadyReviewed: reviewed,
		HasCompleted:    completed,
	}, nil
}

// 削除済みでも過去の注文があればレビューは見せる
func (u *ReviewUsecase) productExists(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return NotFound()
	}
	found, err := u.products.FindByIDs(ctx, []int64{productID})
	if err != nil {
		return Internal("review.product", err)
	}
	if len(found) == 0 {
		return NotFound()
	}
	return nil
}

func alreadyReviewed() error {
	return Conflict(CodeAlreadyReviewed, "you have already reviewed this product")
}
