package api

import (
	"errors"
	"fmt"
	"net/http"

	"physiq/physiq-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ScanHandler holds the scan service dependency.
type ScanHandler struct {
	scanService service.ScanService
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scanService service.ScanService) *ScanHandler {
	return &ScanHandler{scanService: scanService}
}

// --- Request/Response Structs ---

type ScanUploadURLRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=front back"`
	ContentType string `json:"contentType" binding:"required"`
}

type SubmitScanRequest struct {
	FrontImageKey string `json:"frontImageKey" binding:"required"`
	BackImageKey  string `json:"backImageKey" binding:"required"`
}

// --- Handler Methods ---

// RequestUploadURL returns a presigned PUT URL for one scan photo.
func (h *ScanHandler) RequestUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ScanUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.scanService.RequestUploadURL(c.Request.Context(), userID, req.Kind, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidImageKind) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitScan runs the analysis pipeline on uploaded photos.
func (h *ScanHandler) SubmitScan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req SubmitScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	scan, err := h.scanService.SubmitScan(c.Request.Context(), userID, req.FrontImageKey, req.BackImageKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIdentityMismatch):
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrAnalysisRejected):
			// The rejected scan record is still returned for context.
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "scan": scan})
		case errors.Is(err, service.ErrAnalysisUnavailable):
			abortWithError(c, http.StatusServiceUnavailable, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to process scan")
		}
		return
	}
	c.JSON(http.StatusCreated, scan)
}

// GetLatestScan returns the user's most recent accepted scan.
func (h *ScanHandler) GetLatestScan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	scan, err := h.scanService.GetLatestScan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrScanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch scan")
		}
		return
	}
	c.JSON(http.StatusOK, scan)
}

// GetScanHistory returns every scan for the user, newest first.
func (h *ScanHandler) GetScanHistory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	scans, err := h.scanService.GetScanHistory(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch scan history")
		return
	}
	c.JSON(http.StatusOK, scans)
}
