package model

import (
	"time"
)

// CatalogImport is a staging row produced by the external feed import.
// Rows are consumed in ascending id order by the reconciliation pipeline
// and deleted once successfully applied to the live catalog; a row that
// exhausts its retries stays in place for the next scheduled run.
type CatalogImport struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	ASIN          string    `json:"asin" gorm:"column:asin;type:varchar(20);index"`
	Name          string    `json:"name" gorm:"type:varchar(255)"`
	Brand         string    `json:"brand" gorm:"type:varchar(255)"`
	BuyingPrice   string    `json:"buying_price" gorm:"type:varchar(32)"`
	SellingPrice  string    `json:"selling_price" gorm:"type:varchar(32)"`
	SKU           string    `json:"sku" gorm:"type:varchar(100)"`
	UPC           string    `json:"upc" gorm:"type:varchar(100)"`
	MOQ           int       `json:"moq" gorm:"default:0"`
	BuyboxPrice   string    `json:"buybox_price" gorm:"type:varchar(32)"`
	AmazonFee     string    `json:"amazon_fee" gorm:"type:varchar(32)"`
	Profit        string    `json:"profit" gorm:"type:varchar(32)"`
	Margin        string    `json:"margin" gorm:"type:varchar(32)"`
	ROI           *float64  `json:"roi"`
	Profitable    bool      `json:"profitable" gorm:"default:false"`
	SellingStatus bool      `json:"selling_status" gorm:"default:false"`
	Supplier      string    `json:"supplier" gorm:"type:varchar(255)"`
	ImageURL      string    `json:"image_url" gorm:"type:text"`
	WFSID         string    `json:"wfs_id" gorm:"column:wfs_id;type:varchar(100)"`
	WalmartBuybox string    `json:"walmart_buybox" gorm:"type:varchar(32)"`
	WalmartFees   string    `json:"walmart_fees" gorm:"type:varchar(32)"`
	WalmartProfit string    `json:"walmart_profit" gorm:"type:varchar(32)"`
	WalmartMargin string    `json:"walmart_margin" gorm:"type:varchar(32)"`
	WalmartROI    string    `json:"walmart_roi" gorm:"type:varchar(32)"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
