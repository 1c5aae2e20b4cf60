// Package store defines the storage port the pricing and reconciliation
// code is written against, plus its gorm-backed implementation. The
// relational schema is an implementation detail behind this interface.
package store

import (
	"errors"

	"catalog-service/internal/model"
)

// ErrDuplicate is returned by Create* methods when a unique constraint
// is violated. Callers are expected to re-lookup and use the existing
// row (brand creation race during a batch run).
var ErrDuplicate = errors.New("store: duplicate key")

// ErrNotFound is returned by keyed updates when no row matched.
var ErrNotFound = errors.New("store: record not found")

// BrandCount is one row of a grouped catalog aggregation.
type BrandCount struct {
	BrandID uint  `gorm:"column:brand_id"`
	Count   int64 `gorm:"column:count"`
}

// Store is the narrow storage surface consumed by the catalog service
// and the reconciliation pipeline. Every method is an atomic per-key
// operation; no cross-record transactions are required.
type Store interface {
	// FindCatalogByASIN returns (nil, nil) when no row matches.
	FindCatalogByASIN(asin string) (*model.Catalog, error)
	CreateCatalog(c *model.Catalog) error
	// UpdateCatalogByASIN applies fields to the row with the given asin
	// as a single atomic update. Returns ErrNotFound when absent.
	UpdateCatalogByASIN(asin string, fields map[string]interface{}) (*model.Catalog, error)
	// UpdateCatalogsByBrand sets selling_status on every catalog row of
	// the named brand and reports the number of rows touched.
	UpdateCatalogsByBrand(brand string, fields map[string]interface{}) (int64, error)

	// FindBrandByName returns (nil, nil) when no brand matches.
	FindBrandByName(name string) (*model.Brand, error)
	// CreateBrand returns ErrDuplicate when the name is already taken.
	CreateBrand(b *model.Brand) error
	UpdateBrand(id uint, fields map[string]interface{}) error

	// ListImportBatch returns up to limit staging rows with id > afterID
	// in ascending id order.
	ListImportBatch(afterID uint, limit int) ([]model.CatalogImport, error)
	CountImports() (int64, error)
	DeleteImport(id uint) error

	// BrandCatalogCounts groups live catalog rows by brand_id. With
	// profitableAndSelling set, only rows that are both profitable and
	// selling are counted.
	BrandCatalogCounts(profitableAndSelling bool) ([]BrandCount, error)
}
