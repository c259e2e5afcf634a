package models

import "time"

// CatalogItem is a purchasable item master record. Material request lines
// may reference a catalog code or carry free-text for not-yet-cataloged items.
type CatalogItem struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	Unit        string    `db:"unit" json:"unit"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CatalogItemFilter constrains catalog listings.
type CatalogItemFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
