package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

const (
	homeLimit        = 20
	searchLimit      = 40
	detailReviewSize = 5

	cacheKeyHome       = "catalog:home"
	cacheKeyCategories = "catalog:categories"
)

// CatalogUsecase は購入者向けの商品閲覧
type CatalogUsecase struct {
	products repo.ProductRepository
	users    repo.UserRepository
	reviews  repo.ReviewRepository
	cache    ReadCache
	ttl      time.Duration
}

func NewCatalogUsecase(
	products repo.ProductRepository,
	users repo.UserRepository,
	reviews repo.ReviewRepository,
	cache ReadCache,
	ttl time.Duration,
) *CatalogUsecase {
	return &CatalogUsecase{
		products: products,
		users:    users,
		reviews:  reviews,
		cache:    cache,
		ttl:      ttl,
	}
}

// トップページ。売れた順→新しい順で20件
func (u *CatalogUsecase) Home(ctx context.Context) ([]ProductCard, error) {
	out, err := getOrLoadJSON(ctx, u.cache, cacheKeyHome, u.ttl, func(ctx context.Context) ([]ProductCard, error) {
		return u.list(ctx, repo.ProductListQuery{Limit: homeLimit})
	})
	if err != nil {
		return nil, passOrInternal("catalog.home", err)
	}
	return out, nil
}

// 商品名・説明・カテゴリの部分一致
func (u *CatalogUsecase) Search(ctx context.Context, q string) ([]ProductCard, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) > 100 {
		return nil, Invalid("q must be at most 100 characters")
	}
	out, err := u.list(ctx, repo.ProductListQuery{Q: q, Limit: searchLimit})
	if err != nil {
		return nil, Internal("catalog.search", err)
	}
	return out, nil
}

func (u *CatalogUsecase) ByCategory(ctx context.Context, category string) ([]ProductCard, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, Invalid("category is required")
	}
	out, err := u.list(ctx, repo.ProductListQuery{Category: category, Limit: searchLimit})
	if err != nil {
		return nil, Internal("catalog.by_category", err)
	}
	return out, nil
}

func (u *CatalogUsecase) Categories(ctx context.Context) ([]string, error) {
	out, err := getOrLoadJSON(ctx, u.cache, cacheKeyCategories, u.ttl, func(ctx context.Context) ([]string, error) {
		cats, err := u.products.Categories(ctx)
		if err != nil {
			return nil, err
		}
		if cats == nil {
			cats = []string{}
		}
		return cats, nil
	})
	if err != nil {
		return nil, Internal("catalog.categories", err)
	}
	return out, nil
}

// 商品詳細。在庫を正しく見せるためキャッシュしない
func (u *CatalogUsecase) Detail(ctx context.Context, productID int64) (ProductDetail, error) {
	if productID <= 0 {
		return ProductDetail{}, NotFound()
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductDetail{}, NotFound()
	}
	if err != nil {
		return ProductDetail{}, Internal("catalog.detail", err)
	}
	if !p.IsActive {
		return ProductDetail{}, NotFound()
	}

	out := ProductDetail{Product: p, Reviews: []ReviewView{}}

	seller, err := u.users.FindByID(ctx, p.SellerID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return ProductDetail{}, Internal("catalog.detail.seller", err)
	}
	if err == nil {
		out.Seller = toPublicUser(seller)
	}

	counts, err := u.reviews.CountByProducts(ctx, []int64{p.ID})
	if err != nil {
		return ProductDetail{}, Internal("catalog.detail.review_count", err)
	}
	out.ReviewCount = counts[p.ID]

	latest, err := u.reviews.ListByProduct(ctx, p.ID, detailReviewSize)
	if err != nil {
		return ProductDetail{}, Internal("catalog.detail.reviews", err)
	}
	out.Reviews, err = reviewViews(ctx, u.users, latest)
	if err != nil {
		return ProductDetail{}, Internal("catalog.detail.reviewers", err)
	}
	return out, nil
}

func (u *CatalogUsecase) list(ctx context.Context, q repo.ProductListQuery) ([]ProductCard, error) {
	products, err := u.products.ListActive(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	counts, err := u.reviews.CountByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ProductCard, 0, len(products))
	for _, p := range products {
		out = append(out, toProductCard(p, counts[p.ID]))
	}
	return out, nil
}

func reviewViews(ctx context.Context, users repo.UserRepository, list []model.Review) ([]ReviewView, error) {
	out := make([]ReviewView, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.UserID)
	}
	found, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.User, len(found))
	for _, usr := range found {
		byID[usr.ID] = usr
	}

	for _, r := range list {
		out = append(out, ReviewView{
			ID:        r.ID,
			ProductID: r.ProductID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			User:      toPublicUser(byID[r.UserID]),
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// キャッシュ経由でJSONを読み書きする
func getOrLoadJSON[T any](ctx context.Context, c ReadCache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// 商品の変更後に一覧キャッシュを捨てる。失敗してもTTLで消えるのでログだけ
func invalidateCatalog(ctx context.Context, c ReadCache, log *zap.Logger) {
	if err := c.Delete(ctx, cacheKeyHome, cacheKeyCategories); err != nil {
		log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
