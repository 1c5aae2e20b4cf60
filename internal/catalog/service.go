// Package catalog exposes the synchronous single-product update path.
// It runs the same pricing computation as the nightly reconciliation
// job, so an admin edit and a batch pass produce identical numbers for
// identical inputs.
package catalog

import (
	"errors"
	"fmt"
	"strconv"

	"catalog-service/internal/model"
	"catalog-service/internal/pricing"
	"catalog-service/internal/store"
)

// ErrValidation marks caller errors (missing or non-numeric fields).
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when no catalog row matches the given asin.
var ErrNotFound = errors.New("catalog record not found")

// Service wires the pricing engine to the storage port.
type Service struct {
	store store.Store
	opts  pricing.Options
}

// NewService creates a catalog service with the given pricing tunables
func NewService(st store.Store, opts pricing.Options) *Service {
	return &Service{store: st, opts: opts}
}

// UpdateProductInput is the request for a single-product price update.
// Prices arrive as decimal strings, matching their storage form.
type UpdateProductInput struct {
	ASIN          string
	SellingStatus bool
	BuyingPrice   string
	BuyboxPrice   string
	AmazonFee     string
	// ForceProfitableManual pins the profitable flag to Profitable
	// instead of the engine's verdict.
	ForceProfitableManual bool
	Profitable            bool
}

// UpdateProduct recomputes wholesale pricing for one catalog row and
// persists the result. Returns ErrValidation for bad input, ErrNotFound
// for an unknown asin.
func (s *Service) UpdateProduct(in UpdateProductInput) (*model.Catalog, error) {
	if in.ASIN == "" {
		return nil, fmt.Errorf("%w: missing asin", ErrValidation)
	}

	buyingPrice, err := strconv.ParseFloat(in.BuyingPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid buying price", ErrValidation)
	}
	buyboxPrice, err := strconv.ParseFloat(in.BuyboxPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid buybox price", ErrValidation)
	}
	amazonFee, err := strconv.ParseFloat(in.AmazonFee, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid amazon fee", ErrValidation)
	}

	result := pricing.CalcWholesalePrice(buyingPrice, buyboxPrice, amazonFee, s.opts)

	profitable := result.Profitable
	if in.ForceProfitableManual {
		profitable = in.Profitable
	}

	moq := 0
	if result.MOQ != nil {
		moq = *result.MOQ
	}

	fields := map[string]interface{}{
		"selling_status": in.SellingStatus,
		"buying_price":   in.BuyingPrice,
		"profitable":     profitable,
		"selling_price":  FormatPrice(result.SellingPrice),
		"moq":            moq,
		"buybox_price":   FormatPrice(result.BuyboxPrice),
		"amazon_fee":     in.AmazonFee,
		"profit":         result.Profit,
		"margin":         result.Margin,
		"roi":            ParseROI(result.ROI),
	}

	updated, err := s.store.UpdateCatalogByASIN(in.ASIN, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update catalog %s: %w", in.ASIN, err)
	}
	return updated, nil
}

// FormatPrice renders a computed price into its canonical decimal-string
// storage form. Prices are stored with two decimals; the engine keeps
// full precision internally and rounds only here.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ParseROI converts the engine's roi string into the nullable numeric
// column value. An unparseable roi stores as NULL.
func ParseROI(roi string) *float64 {
	v, err := strconv.ParseFloat(roi, 64)
	if err != nil {
		return nil
	}
	return &v
}
