package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travelplan/internal/services"
	"travelplan/pkg/utils"
)

type PlanController struct {
	planService services.PlanRetrievalServiceInterface
	logger      *zap.Logger
}

func NewPlanController(planService services.PlanRetrievalServiceInterface, logger *zap.Logger) *PlanController {
	return &PlanController{
		planService: planService,
		logger:      logger,
	}
}

// RetrievePlan godoc
// @Summary Retrieve a trip plan
// @Description Fetches the itinerary from the planning service and enriches it.
// @Description Without wait the retrieval runs in the background and 202 is returned.
// @Tags Plans
// @Produce json
// @Param tripId path string true "Trip ID"
// @Param wait query bool false "Block until the retrieval finishes"
// @Success 200 {object} response_models.PlanState
// @Success 202 {object} response_models.RetrievalStarted
// @Failure 400 {object} utils.APIResponse
// @Router /plans/{tripId}/retrieve [post]
func (p *PlanController) RetrievePlan(c *gin.Context) {
	tripID := c.Param("tripId")

	wait, _ := strconv.ParseBool(c.DefaultQuery("wait", "false"))
	if wait {
		state, err := p.planService.Retrieve(c.Request.Context(), tripID)
		if err != nil {
			utils.HandleServiceError(c, p.logger, err)
			return
		}
		utils.RespondSuccess(c, state, "Plan retrieval finished")
		return
	}

	started, err := p.planService.StartRetrieval(tripID)
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}
	utils.RespondWithCode(c, http.StatusAccepted, started, "Plan retrieval started")
}

// GetPlanState godoc
// @Summary Get the current plan state of a trip
// @Tags Plans
// @Produce json
// @Param tripId path string true "Trip ID"
// @Success 200 {object} response_models.PlanState
// @Router /plans/{tripId} [get]
func (p *PlanController) GetPlanState(c *gin.Context) {
	state, err := p.planService.GetState(c.Param("tripId"))
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}
	utils.RespondSuccess(c, state, "Plan state fetched successfully")
}

// GetPlanSnapshot godoc
// @Summary Get the last ready plan saved for a trip
// @Tags Plans
// @Produce json
// @Param tripId path string true "Trip ID"
// @Success 200 {object} response_models.PlanSnapshot
// @Failure 404 {object} utils.APIResponse
// @Router /plans/{tripId}/snapshot [get]
func (p *PlanController) GetPlanSnapshot(c *gin.Context) {
	snapshot, err := p.planService.GetSnapshot(c.Request.Context(), c.Param("tripId"))
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}
	utils.RespondSuccess(c, snapshot, "Plan snapshot fetched successfully")
}
