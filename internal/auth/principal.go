package auth

import "marketplace/internal/domain/model"

// Principal はリクエストごとに一度だけ作られるログイン中ユーザー
type Principal struct {
	UserID int64
	Role   model.Role
}

// 購入者としての操作権限
type Buyer struct {
	ID int64
}

// 出品者としての操作権限
type Seller struct {
	ID int64
}

func (p Principal) Authenticated() bool {
	return p.UserID > 0 && p.Role.Valid()
}

func (p Principal) Buyer() (Buyer, bool) {
	if !p.Authenticated() || p.Role != model.RoleBuyer {
		return Buyer{}, false
	}
	return Buyer{ID: p.UserID}, true
}

func (p Principal) Seller() (Seller, bool) {
	if !p.Authenticated() || p.Role != model.RoleSeller {
		return Seller{}, false
	}
	return Seller{ID: p.UserID}, true
}

// ロールごとのトップページ
func (p Principal) Home() string {
	if p.Role == model.RoleSeller {
		return "/seller/dashboard"
	}
	return "/"
}
