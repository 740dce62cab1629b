package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID          int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    int64                       `gorm:"not null;index" json:"seller_id"`
	Name        string                      `gorm:"type:varchar(255);not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	Price       decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       int64                       `gorm:"not null;check:stock >= 0" json:"stock"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	Category    string                      `gorm:"type:varchar(64);index" json:"category"`
	SalesCount  int64                       `gorm:"not null;default:0;index" json:"sales_count"`
	// default:true を付けると false での作成が効かないので付けない
	IsActive  bool           `gorm:"not null" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// 一覧・カート表示用の先頭画像
func (p Product) Cover() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
