package handler

import (
	"errors"
	"net/http"

	"catalog-service/internal/catalog"
	"catalog-service/internal/model"
	"catalog-service/pkg/database"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UpdateCatalogRequest defines the structure for the admin single-product
// price update
type UpdateCatalogRequest struct {
	ASIN                  string `json:"asin"`
	SellingStatus         *bool  `json:"selling_status"`
	BuyingPrice           string `json:"buying_price"`
	BuyboxPrice           string `json:"buybox_price"`
	AmazonFee             string `json:"amazon_fee"`
	Profitable            *bool  `json:"profitable"`
	ForceProfitableManual bool   `json:"force_profitable_manual"`
}

// ListCatalogs handles retrieving all catalog rows
func ListCatalogs(c echo.Context) error {
	log := logger.FromContext(c)

	var catalogs []model.Catalog
	result := database.GetDB().Order("created_at desc").Find(&catalogs)
	if result.Error != nil {
		log.Error("Failed to list catalogs", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve catalogs",
		})
	}

	return c.JSON(http.StatusOK, catalogs)
}

// GetCatalog handles retrieving a single catalog row by ASIN
func GetCatalog(c echo.Context) error {
	log := logger.FromContext(c)
	asin := c.Param("asin")

	row, err := dataStore.FindCatalogByASIN(asin)
	if err != nil {
		log.Error("Failed to fetch catalog", zap.String("asin", asin), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve catalog",
		})
	}
	if row == nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Catalog not found",
		})
	}

	return c.JSON(http.StatusOK, row)
}

// UpdateCatalogProduct recomputes pricing for one product and persists
// it. This is the synchronous twin of the nightly reconciliation pass.
func UpdateCatalogProduct(c echo.Context) error {
	log := logger.FromContext(c)

	var req UpdateCatalogRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.SellingStatus == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid or missing selling status",
		})
	}
	if req.ForceProfitableManual && req.Profitable == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid or missing profitable status",
		})
	}

	in := catalog.UpdateProductInput{
		ASIN:                  req.ASIN,
		SellingStatus:         *req.SellingStatus,
		BuyingPrice:           req.BuyingPrice,
		BuyboxPrice:           req.BuyboxPrice,
		AmazonFee:             req.AmazonFee,
		ForceProfitableManual: req.ForceProfitableManual,
	}
	if req.Profitable != nil {
		in.Profitable = *req.Profitable
	}

	updated, err := catalogService.UpdateProduct(in)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrValidation):
			log.Warn("Catalog update validation failed", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, catalog.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Catalog not found"})
		default:
			log.Error("Failed to update catalog product",
				zap.String("asin", req.ASIN),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to update catalog product",
			})
		}
	}

	prometheus.RecordCatalogOperation("update")
	log.Info("Catalog product updated",
		zap.String("asin", updated.ASIN),
		zap.String("selling_price", updated.SellingPrice),
		zap.Bool("profitable", updated.Profitable))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Catalog updated successfully",
		"data":    updated,
	})
}

// BulkBrandUpdateRequest defines the structure for a brand-wide
// selling-status change
type BulkBrandUpdateRequest struct {
	Brand         string `json:"brand"`
	SellingStatus *bool  `json:"sellingStatus"`
}

// BulkBrandUpdate sets selling_status on every catalog row of a brand
func BulkBrandUpdate(c echo.Context) error {
	log := logger.FromContext(c)

	var req BulkBrandUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Brand == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Brand is required and must be a string",
		})
	}
	if req.SellingStatus == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "sellingStatus is required and must be a boolean",
		})
	}

	brand, err := dataStore.FindBrandByName(req.Brand)
	if err != nil {
		log.Error("Failed to look up brand", zap.String("brand", req.Brand), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update catalogs",
		})
	}
	if brand == nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Brand '" + req.Brand + "' not found",
		})
	}

	count, err := dataStore.UpdateCatalogsByBrand(req.Brand, map[string]interface{}{
		"selling_status": *req.SellingStatus,
	})
	if err != nil {
		log.Error("Failed to bulk update catalogs",
			zap.String("brand", req.Brand),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update catalogs",
		})
	}

	prometheus.RecordCatalogOperation("bulk_brand_update")
	log.Info("Bulk brand update applied",
		zap.String("brand", req.Brand),
		zap.Bool("selling_status", *req.SellingStatus),
		zap.Int64("updated_count", count))
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Catalogs updated successfully",
		"brand":         req.Brand,
		"sellingStatus": *req.SellingStatus,
		"updatedCount":  count,
	})
}
