package model

import (
	"time"
)

// Catalog represents an authoritative product row in the live catalog.
// Monetary amounts are stored as decimal strings to avoid float drift in
// the database; they are parsed only at calculation boundaries.
type Catalog struct {
	ID    uint   `json:"id" gorm:"primarykey"`
	ASIN  string `json:"asin" gorm:"column:asin;type:varchar(20);unique;not null"`
	Name  string `json:"name" gorm:"type:varchar(255);not null"`
	Brand string `json:"brand" gorm:"type:varchar(255)"`
	// BrandID is resolved once at creation and never reassigned by the
	// reconciliation pipeline.
	BrandID      *uint    `json:"brand_id" gorm:"index"`
	BuyingPrice  string   `json:"buying_price" gorm:"type:varchar(32)"`
	SellingPrice string   `json:"selling_price" gorm:"type:varchar(32)"`
	SKU          string   `json:"sku" gorm:"type:varchar(100)"`
	UPC          string   `json:"upc" gorm:"type:varchar(100)"`
	MOQ          int      `json:"moq" gorm:"default:0"`
	BuyboxPrice  string   `json:"buybox_price" gorm:"type:varchar(32)"`
	AmazonFee    string   `json:"amazon_fee" gorm:"type:varchar(32)"`
	Profit       string   `json:"profit" gorm:"type:varchar(32)"`
	Margin       string   `json:"margin" gorm:"type:varchar(32)"`
	ROI          *float64 `json:"roi"`
	// ForcedSellingPrice pins SellingPrice: the pricing engine must not
	// overwrite it, only recompute profit/margin/roi around it.
	ForcedSellingPrice bool      `json:"forced_selling_price" gorm:"default:false"`
	Profitable         bool      `json:"profitable" gorm:"default:false"`
	SellingStatus      bool      `json:"selling_status" gorm:"default:false"`
	Supplier           string    `json:"supplier" gorm:"type:varchar(255)"`
	ImageURL           string    `json:"image_url" gorm:"type:text"`
	WFSID              string    `json:"wfs_id" gorm:"column:wfs_id;type:varchar(100)"`
	WalmartBuybox      string    `json:"walmart_buybox" gorm:"type:varchar(32)"`
	WalmartFees        string    `json:"walmart_fees" gorm:"type:varchar(32)"`
	WalmartProfit      string    `json:"walmart_profit" gorm:"type:varchar(32)"`
	WalmartMargin      string    `json:"walmart_margin" gorm:"type:varchar(32)"`
	WalmartROI         string    `json:"walmart_roi" gorm:"type:varchar(32)"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
