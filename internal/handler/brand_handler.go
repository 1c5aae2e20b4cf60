package handler

import (
	"net/http"
	"strconv"

	"catalog-service/internal/model"
	"catalog-service/pkg/database"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListBrands handles retrieving all brands ordered by name
func ListBrands(c echo.Context) error {
	log := logger.FromContext(c)

	var brands []model.Brand
	result := database.GetDB().Order("name asc").Find(&brands)
	if result.Error != nil {
		log.Error("Failed to list brands", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve brands",
		})
	}

	return c.JSON(http.StatusOK, brands)
}

// ListQualifiedBrands returns brands with at least one catalog row that
// is both profitable and selling
func ListQualifiedBrands(c echo.Context) error {
	log := logger.FromContext(c)

	var brands []model.Brand
	result := database.GetDB().
		Where("profitable_and_selling > ?", 0).
		Order("profitable_and_selling desc, name asc").
		Find(&brands)
	if result.Error != nil {
		log.Error("Failed to list qualified brands", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve brands",
		})
	}

	return c.JSON(http.StatusOK, brands)
}

// MergeBrandRequest defines the structure for a brand merge
type MergeBrandRequest struct {
	MergedTo uint `json:"merged_to"`
}

// MergeBrand marks a brand as an alias of another brand. From then on,
// catalog rows created for the aliased name are assigned the target's
// id. Aliases stay one hop deep: merging into an already-merged brand
// is rejected.
func MergeBrand(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid brand id"})
	}
	brandID := uint(id)

	var req MergeBrandRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.MergedTo == brandID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "A brand cannot be merged into itself"})
	}

	db := database.GetDB()

	var brand model.Brand
	if result := db.First(&brand, brandID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Brand not found"})
	}

	var target model.Brand
	if result := db.First(&target, req.MergedTo); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Target brand not found"})
	}
	if target.MergedTo != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Target brand is itself merged; merge into its target instead",
		})
	}

	brand.MergedTo = &target.ID
	if result := db.Save(&brand); result.Error != nil {
		log.Error("Failed to merge brand",
			zap.Uint("brand_id", brandID),
			zap.Uint("merged_to", target.ID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to merge brand"})
	}

	log.Info("Brand merged",
		zap.String("brand", brand.Name),
		zap.String("target", target.Name))
	return c.JSON(http.StatusOK, brand)
}
