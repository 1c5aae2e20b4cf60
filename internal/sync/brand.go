package sync

import (
	"errors"
	"fmt"

	"catalog-service/internal/model"
	"catalog-service/internal/store"

	"go.uber.org/zap"
)

// brandResolution is the outcome of resolving a free-text brand name to
// a canonical brand row. All fields are zero when the staging row
// carried no brand at all.
type brandResolution struct {
	id       *uint
	name     string
	mergedTo *uint
}

// effectiveID is the brand id to assign on a catalog row: the merge
// target when the resolved brand is a one-hop alias, its own id
// otherwise. The display name stays the looked-up brand's own name.
func (r brandResolution) effectiveID() *uint {
	if r.mergedTo != nil {
		return r.mergedTo
	}
	return r.id
}

// resolveBrand looks a brand up by exact name, creating it on first
// sight. Two staging rows seeing the same new brand in one batch race on
// the unique name constraint; the loser falls back to a re-lookup.
func (p *Processor) resolveBrand(name string) (brandResolution, error) {
	if name == "" {
		return brandResolution{}, nil
	}

	brand, err := p.store.FindBrandByName(name)
	if err != nil {
		return brandResolution{}, fmt.Errorf("lookup brand: %w", err)
	}

	if brand == nil {
		created := &model.Brand{Name: name}
		err := p.store.CreateBrand(created)
		switch {
		case err == nil:
			brand = created
			p.log.Info("Created new brand", zap.String("name", name), zap.Uint("brand_id", brand.ID))
		case errors.Is(err, store.ErrDuplicate):
			// Lost the creation race; the winner's row is canonical.
			brand, err = p.store.FindBrandByName(name)
			if err != nil {
				return brandResolution{}, fmt.Errorf("re-lookup brand after duplicate: %w", err)
			}
			if brand == nil {
				return brandResolution{}, fmt.Errorf("brand %q vanished after duplicate create", name)
			}
		default:
			return brandResolution{}, fmt.Errorf("create brand: %w", err)
		}
	}

	return brandResolution{
		id:       &brand.ID,
		name:     brand.Name,
		mergedTo: brand.MergedTo,
	}, nil
}
