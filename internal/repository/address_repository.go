package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	//作成後はaddress（IDなどが埋まったもの）を返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//デフォルト→新しい順
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)

	//デフォルト住所、無ければ最後に作った住所
	FindDefaultOrLatest(ctx context.Context, userID int64) (model.Address, error)

	CountByUserID(ctx context.Context, userID int64) (int64, error)

	//宛名・住所欄を更新（is_defaultは触らない）
	Update(ctx context.Context, address model.Address) error

	Delete(ctx context.Context, addressID int64) error

	//ユーザーのデフォルトを全部外す
	ClearDefault(ctx context.Context, userID int64) error

	//指定住所をデフォルトにする
	MarkDefault(ctx context.Context, userID, addressID int64) error
}
