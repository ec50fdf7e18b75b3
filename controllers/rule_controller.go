package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/upline-app/upline_backend/models"
	"github.com/upline-app/upline_backend/services"
)

type RuleController struct {
	rules *services.RuleService
}

func NewRuleController(rules *services.RuleService) *RuleController {
	return &RuleController{rules: rules}
}

// GetActiveRule returns the currently active commission rule.
func (rc *RuleController) GetActiveRule(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rule, err := rc.rules.Active(ctx)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Active rule fetched successfully",
		Data:    rule,
	})
}

// SetActiveRule activates a new commission rule, deactivating every other
// rule in the same write. Admin only.
func (rc *RuleController) SetActiveRule(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.SetRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	rule, err := rc.rules.SetActive(ctx, req.BasePercentage, req.DecayEnabled)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Rule activated successfully",
		Data:    rule,
	})
}
