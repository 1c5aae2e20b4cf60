package catalog

import (
	"errors"
	"testing"

	"catalog-service/internal/model"
	"catalog-service/internal/pricing"
	"catalog-service/internal/store"
)

// fakeStore records the single update the service is expected to issue.
// Unused port methods are left to the embedded nil interface.
type fakeStore struct {
	store.Store
	updatedASIN   string
	updatedFields map[string]interface{}
	err           error
}

func (f *fakeStore) UpdateCatalogByASIN(asin string, fields map[string]interface{}) (*model.Catalog, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updatedASIN = asin
	f.updatedFields = fields
	return &model.Catalog{ASIN: asin}, nil
}

func validInput() UpdateProductInput {
	return UpdateProductInput{
		ASIN:          "B000TEST01",
		SellingStatus: true,
		BuyingPrice:   "10",
		BuyboxPrice:   "30",
		AmazonFee:     "5",
	}
}

func TestUpdateProductComputesWholesalePricing(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs, pricing.DefaultOptions())

	updated, err := svc.UpdateProduct(validInput())
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.ASIN != "B000TEST01" {
		t.Fatalf("unexpected row: %+v", updated)
	}

	if got := fs.updatedFields["selling_price"]; got != "14.20" {
		t.Fatalf("selling_price: expected 14.20, got %v", got)
	}
	if got := fs.updatedFields["profit"]; got != "10.80" {
		t.Fatalf("profit: expected 10.80, got %v", got)
	}
	if got := fs.updatedFields["margin"]; got != "36.00" {
		t.Fatalf("margin: expected 36.00, got %v", got)
	}
	if got := fs.updatedFields["moq"]; got != 60 {
		t.Fatalf("moq: expected 60, got %v", got)
	}
	if got := fs.updatedFields["profitable"]; got != true {
		t.Fatalf("profitable: expected true, got %v", got)
	}
	roi, ok := fs.updatedFields["roi"].(*float64)
	if !ok || roi == nil || *roi != 76.06 {
		t.Fatalf("roi: expected 76.06, got %v", fs.updatedFields["roi"])
	}
}

func TestUpdateProductForceProfitableManual(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs, pricing.DefaultOptions())

	in := validInput()
	in.ForceProfitableManual = true
	in.Profitable = false

	if _, err := svc.UpdateProduct(in); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if got := fs.updatedFields["profitable"]; got != false {
		t.Fatalf("manual profitable override ignored, got %v", got)
	}
}

func TestUpdateProductValidation(t *testing.T) {
	svc := NewService(&fakeStore{}, pricing.DefaultOptions())

	tests := []struct {
		name   string
		mutate func(*UpdateProductInput)
	}{
		{"missing asin", func(in *UpdateProductInput) { in.ASIN = "" }},
		{"bad buying price", func(in *UpdateProductInput) { in.BuyingPrice = "ten" }},
		{"bad buybox price", func(in *UpdateProductInput) { in.BuyboxPrice = "" }},
		{"bad amazon fee", func(in *UpdateProductInput) { in.AmazonFee = "n/a" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.UpdateProduct(in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestUpdateProductUnknownASIN(t *testing.T) {
	fs := &fakeStore{err: store.ErrNotFound}
	svc := NewService(fs, pricing.DefaultOptions())

	_, err := svc.UpdateProduct(validInput())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBatchAndSyncPathsAgree(t *testing.T) {
	// The admin path and the batch path must produce identical numbers
	// for identical inputs: both delegate to the same engine call.
	res := pricing.CalcWholesalePrice(10, 30, 5, pricing.DefaultOptions())

	fs := &fakeStore{}
	svc := NewService(fs, pricing.DefaultOptions())
	if _, err := svc.UpdateProduct(validInput()); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	if fs.updatedFields["selling_price"] != FormatPrice(res.SellingPrice) {
		t.Fatalf("selling price diverged between paths")
	}
	if fs.updatedFields["profit"] != res.Profit || fs.updatedFields["margin"] != res.Margin {
		t.Fatalf("profit/margin diverged between paths")
	}
}
