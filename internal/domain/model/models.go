package model

// AutoMigrateに渡すモデル一覧
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&CartItem{},
		&WishlistItem{},
		&Order{},
		&OrderItem{},
		&AuditLog{},
		&InventoryAdjustment{},
	}
}
