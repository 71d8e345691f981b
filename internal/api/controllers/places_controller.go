package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travelplan/internal/models/request_models"
	"travelplan/internal/services"
	"travelplan/pkg/utils"
)

const photoCacheControl = "public, max-age=86400"

// PlacesController exposes the places relay. Relay responses keep the
// directory's own JSON shape instead of the API envelope.
type PlacesController struct {
	relay  services.PlacesRelayServiceInterface
	logger *zap.Logger
}

func NewPlacesController(relay services.PlacesRelayServiceInterface, logger *zap.Logger) *PlacesController {
	return &PlacesController{
		relay:  relay,
		logger: logger,
	}
}

// RelayPlaces godoc
// @Summary Relay a places directory request
// @Tags Places
// @Accept json
// @Produce json
// @Param request body request_models.PlacesRelayRequest true "Operation and parameters"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/google-places [post]
func (p *PlacesController) RelayPlaces(c *gin.Context) {
	var req request_models.PlacesRelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := p.relay.Relay(c.Request.Context(), req)
	switch {
	case errors.Is(err, utils.ErrPlacesUnavailable):
		p.logger.Error("places relay called without an API key")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Places API key is not configured"})
		return
	case errors.Is(err, utils.ErrInvalidPlacesOperation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid operation or missing parameters"})
		return
	case err != nil:
		p.logger.Error("places relay failed", zap.String("operation", req.Operation), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data from places API"})
		return
	}

	c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
}

// GetPlacePhoto godoc
// @Summary Proxy a place photo without exposing the API key
// @Tags Places
// @Produce image/jpeg
// @Param photoreference query string true "Photo reference"
// @Param maxwidth query int false "Maximum width in pixels"
// @Success 200 {file} binary
// @Failure 400 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /api/places/photo [get]
func (p *PlacesController) GetPlacePhoto(c *gin.Context) {
	var req request_models.PlacePhotoRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "photoreference is required")
		return
	}

	photo, err := p.relay.Photo(c.Request.Context(), req.PhotoReference, req.MaxWidth)
	if err != nil {
		if errors.Is(err, utils.ErrPlacesUnavailable) || errors.Is(err, utils.ErrInvalidPlacesOperation) {
			utils.HandleServiceError(c, p.logger, err)
			return
		}
		p.logger.Warn("place photo fetch failed", zap.Error(err))
		utils.RespondError(c, http.StatusBadGateway, "Failed to fetch place photo")
		return
	}

	c.Header("Cache-Control", photoCacheControl)
	c.Data(http.StatusOK, photo.ContentType, photo.Data)
}
