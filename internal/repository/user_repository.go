package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成。ユーザー名が重複したらErrDuplicate
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	//出品者の表示用にまとめて取得
	FindByIDs(ctx context.Context, userIDs []int64) ([]model.User, error)
	//nickname / email / phone / avatar を更新
	UpdateProfile(ctx context.Context, user model.User) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}
