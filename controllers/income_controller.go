package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/middleware"
	"github.com/upline-app/upline_backend/models"
	"github.com/upline-app/upline_backend/repositories"
)

type IncomeController struct {
	incomes *repositories.IncomeRepository
}

func NewIncomeController(incomes *repositories.IncomeRepository) *IncomeController {
	return &IncomeController{incomes: incomes}
}

func (ic *IncomeController) caller(c echo.Context) (primitive.ObjectID, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(userID)
}

// GetMyIncomes lists the caller's live commission entries, newest first.
func (ic *IncomeController) GetMyIncomes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := ic.caller(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	incomes, err := ic.incomes.ListByUser(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Incomes fetched successfully",
		Data:    incomes,
	})
}

// GetMySummary returns live and log-based totals side by side. The two
// diverge after order cancellations: the live total drops, the log keeps
// counting (append-only audit ledger).
func (ic *IncomeController) GetMySummary(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := ic.caller(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	summary, err := ic.incomes.SummaryByUser(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Earnings summary fetched successfully",
		Data:    summary,
	})
}
