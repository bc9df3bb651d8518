package api

import (
	"net/http"

	"physiq/physiq-app/internal/service"

	"github.com/gin-gonic/gin"
)

// AssetHandler holds the asset service dependency.
type AssetHandler struct {
	assetService service.AssetService
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService service.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// GetExerciseAsset serves the cached demonstration images for an
// exercise, or a placeholder while generation is pending. Never blocks
// on the image provider.
func (h *AssetHandler) GetExerciseAsset(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}
	exerciseID := c.Query("exerciseId")

	resp, err := h.assetService.RequestExerciseAsset(c.Request.Context(), name, exerciseID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch exercise asset")
		return
	}
	c.JSON(http.StatusOK, resp)
}
