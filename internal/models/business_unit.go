package models

import "time"

// BusinessUnit is the top-level organizational scope partitioning
// requests, departments, and document series.
type BusinessUnit struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Department belongs to a business unit and scopes material requests.
type Department struct {
	ID             string    `db:"id" json:"id"`
	BusinessUnitID string    `db:"business_unit_id" json:"business_unit_id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// BusinessUnitMembership links a user to a business unit they may operate in.
type BusinessUnitMembership struct {
	UserID         string    `db:"user_id" json:"user_id"`
	BusinessUnitID string    `db:"business_unit_id" json:"business_unit_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// BusinessUnitFilter constrains business unit listings.
type BusinessUnitFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// DocumentSeries tracks the next document number per business unit and series code.
type DocumentSeries struct {
	ID             string    `db:"id" json:"id"`
	BusinessUnitID string    `db:"business_unit_id" json:"business_unit_id"`
	Code           string    `db:"code" json:"code"`
	Prefix         string    `db:"prefix" json:"prefix"`
	NextNumber     int64     `db:"next_number" json:"next_number"`
	Padding        int       `db:"padding" json:"padding"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
