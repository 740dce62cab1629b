package usecase

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type AddressInput struct {
	ReceiverName string `json:"receiver_name" validate:"required,notblank,max=64"`
	Phone        string `json:"phone" validate:"required,notblank,max=30"`
	Province     string `json:"province" validate:"required,notblank,max=64"`
	City         string `json:"city" validate:"required,notblank,max=64"`
	District     string `json:"district" validate:"max=64"`
	Detail       string `json:"detail" validate:"required,notblank,max=255"`
	IsDefault    bool   `json:"is_default"`
}

func (in AddressInput) apply(a *model.Address) {
	a.ReceiverName = strings.TrimSpace(in.ReceiverName)
	a.Phone = strings.TrimSpace(in.Phone)
	a.Province = strings.TrimSpace(in.Province)
	a.City = strings.TrimSpace(in.City)
	a.District = strings.TrimSpace(in.District)
	a.Detail = strings.TrimSpace(in.Detail)
}

// AddressUsecase は配送先住所。デフォルトの切り替えは必ずトランザクション内で行う
type AddressUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	orders    repo.OrderRepository
}

func NewAddressUsecase(tx repo.TransactionManager, addresses repo.AddressRepository, orders repo.OrderRepository) *AddressUsecase {
	return &AddressUsecase{tx: tx, addresses: addresses, orders: orders}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]model.Address, error) {
	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, Internal("address.list", err)
	}
	if list == nil {
		list = []model.Address{}
	}
	return list, nil
}

// 最初の住所は自動でデフォルトになる
func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (model.Address, error) {
	if err := validate(in); err != nil {
		return model.Address{}, err
	}

	a := model.Address{UserID: userID}
	in.apply(&a)

	var created model.Address
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		n, err := r.Addresses().CountByUserID(ctx, userID)
		if err != nil {
			return err
		}
		a.IsDefault = in.IsDefault || n == 0
		if a.IsDefault {
			if err := r.Addresses().ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		created, err = r.Addresses().Create(ctx, a)
		return err
	})
	if err != nil {
		return model.Address{}, Internal("address.create", err)
	}
	return created, nil
}

// is_default=false を送ってもデフォルトは外さない
func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressInput) (model.Address, error) {
	if err := validate(in); err != nil {
		return model.Address{}, err
	}
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}
	in.apply(&a)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Addresses().Update(ctx, a); err != nil {
			return err
		}
		if in.IsDefault && !a.IsDefault {
			if err := r.Addresses().ClearDefault(ctx, userID); err != nil {
				return err
			}
			if err := r.Addresses().MarkDefault(ctx, userID, a.ID); err != nil {
				return err
			}
			a.IsDefault = true
		}
		return nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NotFound()
	}
	if err != nil {
		return model.Address{}, Internal("address.update", err)
	}
	return a, nil
}

// 注文で使われている住所は消せない
func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return err
	}

	n, err := u.orders.CountByAddressID(ctx, a.ID)
	if err != nil {
		return Internal("address.delete.count", err)
	}
	if n > 0 {
		return Conflict(CodeAddressInUse, "this address is used by an order and cannot be deleted")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Addresses().Delete(ctx, a.ID); err != nil {
			return err
		}
		if !a.IsDefault {
			return nil
		}
		//デフォルトを消したら最新の住所を繰り上げる
		next, err := r.Addresses().FindDefaultOrLatest(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return r.Addresses().MarkDefault(ctx, userID, next.ID)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NotFound()
	}
	if err != nil {
		return Internal("address.delete", err)
	}
	return nil
}

// user内でdefaultは1つ
func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) (model.Address, error) {
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Addresses().ClearDefault(ctx, userID); err != nil {
			return err
		}
		return r.Addresses().MarkDefault(ctx, userID, a.ID)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NotFound()
	}
	if err != nil {
		return model.Address{}, Internal("address.set_default", err)
	}
	a.IsDefault = true
	return a, nil
}

// 他人の住所は存在しない扱い
func (u *AddressUsecase) owned(ctx context.Context, userID, addressID int64) (model.Address, error) {
	if addressID <= 0 {
		return model.Address{}, NotFound()
	}
	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NotFound()
	}
	if err != nil {
		return model.Address{}, Internal("address.find", err)
	}
	if a.UserID != userID {
		return model.Address{}, NotFound()
	}
	return a, nil
}
