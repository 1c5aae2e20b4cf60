package model

import (
	"time"
)

// Brand is a canonical brand record. MergedTo marks the brand as a
// one-hop alias of another brand: catalog rows created for an aliased
// brand are assigned the target's id. Brands are never hard-deleted.
type Brand struct {
	ID       uint   `json:"id" gorm:"primarykey"`
	Name     string `json:"name" gorm:"type:varchar(255);unique;not null"`
	MergedTo *uint  `json:"merged_to" gorm:"index"`
	// Rollup counters recomputed at the end of every reconciliation run.
	AllCatalogCount      int        `json:"all_catalog_count" gorm:"default:0"`
	ProfitableAndSelling int        `json:"profitable_and_selling" gorm:"default:0"`
	LastItemInsertedAt   *time.Time `json:"last_item_inserted_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
