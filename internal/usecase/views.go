package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain/model"
)

type UserView struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Role      model.Role `json:"role"`
	Nickname  string     `json:"nickname"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Avatar    string     `json:"avatar"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUserView(u model.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Nickname:  u.Nickname,
		Email:     u.Email,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

// 出品者・レビュー投稿者として公開する項目だけ
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

func toPublicUser(u model.User) PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Nickname: u.Nickname, Avatar: u.Avatar}
}

type ProductCard struct {
	ID          int64           `json:"id"`
	SellerID    int64           `json:"seller_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Cover       string          `json:"cover"`
	Category    string          `json:"category"`
	SalesCount  int64           `json:"sales_count"`
	ReviewCount int64           `json:"review_count"`
}

func toProductCard(p model.Product, reviewCount int64) ProductCard {
	return ProductCard{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		Cover:       p.Cover(),
		Category:    p.Category,
		SalesCount:  p.SalesCount,
		ReviewCount: reviewCount,
	}
}

type ReviewView struct {
	ID        int64      `json:"id"`
	ProductID int64      `json:"product_id"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment"`
	User      PublicUser `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
}

type ProductDetail struct {
	model.Product
	Seller      PublicUser   `json:"seller"`
	ReviewCount int64        `json:"review_count"`
	Reviews     []ReviewView `json:"reviews"`
}

// 注文＋表示用の商品情報
type OrderView struct {
	model.Order
	ProductName  string         `json:"product_name"`
	ProductImage string         `json:"product_image"`
	Address      *model.Address `json:"address,omitempty"`
}

func toOrderView(o model.Order, p *model.Product) OrderView {
	v := OrderView{Order: o}
	if p != nil {
		v.ProductName = p.Name
		v.ProductImage = p.Cover()
	}
	return v
}

type CartLine struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Stock     int64           `json:"stock"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	// 販売停止・削除済みの商品はfalse
	Available bool `json:"available"`
}

type CartView struct {
	Items []CartLine      `json:"items"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func lineTotal(price decimal.Decimal, qty int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(qty))
}

func productMap(list []model.Product) map[int64]model.Product {
	m := make(map[int64]model.Product, len(list))
	for _, p := range list {
		m[p.ID] = p
	}
	return m
}

// 公開中（販売中かつ未削除）か
func purchasable(p model.Product) bool {
	return p.IsActive && !p.DeletedAt.Valid
}
