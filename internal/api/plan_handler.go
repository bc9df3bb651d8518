package api

import (
	"errors"
	"net/http"
	"strconv"

	"physiq/physiq-app/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanHandler holds the plan service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// GetCurrentPlan returns the user's training plan for the current week.
func (h *PlanHandler) GetCurrentPlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	plan, err := h.planService.GetCurrentPlan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch training plan")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CompleteDay marks a training day done and advances the week.
func (h *PlanHandler) CompleteDay(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	dayIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Day index must be a number")
		return
	}

	plan, err := h.planService.CompleteDay(c.Request.Context(), userID, dayIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrDayNotFound):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDayNotToday):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrRegenerationInProgress):
			// Retryable: the client should poll the plan shortly.
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to complete day")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}

// SelectToday promotes an upcoming day to today.
func (h *PlanHandler) SelectToday(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	dayIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Day index must be a number")
		return
	}

	plan, err := h.planService.SelectToday(c.Request.Context(), userID, dayIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrDayNotFound):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDayNotUpcoming), errors.Is(err, service.ErrTodayAlreadySet):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update day")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}
