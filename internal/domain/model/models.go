package model

// マイグレーション対象
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&CartItem{},
		&Address{},
		&Order{},
		&Review{},
		&InventoryAdjustment{},
		&AuditLog{},
	}
}
