package store

import (
	"errors"

	"catalog-service/internal/model"

	"gorm.io/gorm"
)

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindCatalogByASIN(asin string) (*model.Catalog, error) {
	var c model.Catalog
	result := s.db.Where("asin = ?", asin).First(&c)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &c, nil
}

func (s *GormStore) CreateCatalog(c *model.Catalog) error {
	result := s.db.Create(c)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return result.Error
	}
	return nil
}

func (s *GormStore) UpdateCatalogByASIN(asin string, fields map[string]interface{}) (*model.Catalog, error) {
	result := s.db.Model(&model.Catalog{}).Where("asin = ?", asin).Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindCatalogByASIN(asin)
}

func (s *GormStore) UpdateCatalogsByBrand(brand string, fields map[string]interface{}) (int64, error) {
	result := s.db.Model(&model.Catalog{}).Where("brand = ?", brand).Updates(fields)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (s *GormStore) FindBrandByName(name string) (*model.Brand, error) {
	var b model.Brand
	result := s.db.Where("name = ?", name).First(&b)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &b, nil
}

func (s *GormStore) CreateBrand(b *model.Brand) error {
	result := s.db.Create(b)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return result.Error
	}
	return nil
}

func (s *GormStore) UpdateBrand(id uint, fields map[string]interface{}) error {
	result := s.db.Model(&model.Brand{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListImportBatch(afterID uint, limit int) ([]model.CatalogImport, error) {
	var batch []model.CatalogImport
	result := s.db.Where("id > ?", afterID).Order("id asc").Limit(limit).Find(&batch)
	if result.Error != nil {
		return nil, result.Error
	}
	return batch, nil
}

func (s *GormStore) CountImports() (int64, error) {
	var count int64
	result := s.db.Model(&model.CatalogImport{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (s *GormStore) DeleteImport(id uint) error {
	result := s.db.Delete(&model.CatalogImport{}, id)
	return result.Error
}

func (s *GormStore) BrandCatalogCounts(profitableAndSelling bool) ([]BrandCount, error) {
	query := s.db.Model(&model.Catalog{}).
		Select("brand_id, count(id) as count").
		Where("brand_id IS NOT NULL").
		Group("brand_id")
	if profitableAndSelling {
		query = query.Where("profitable = ? AND selling_status = ?", true, true)
	}

	var counts []BrandCount
	if err := query.Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
