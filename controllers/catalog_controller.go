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

type CatalogController struct {
	catalog *repositories.CatalogRepository
}

func NewCatalogController(catalog *repositories.CatalogRepository) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// CreateService lists a new service offering. The businessVolume supplied
// here becomes the server-side truth the commission engine reads.
func (cc *CatalogController) CreateService(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}
	sellerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	var req models.CreateServiceRequest
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

	now := time.Now()
	offering := &models.ServiceOffering{
		SellerID:       sellerID,
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Price:          req.Price,
		BusinessVolume: req.BusinessVolume,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := cc.catalog.Insert(ctx, offering); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Service created successfully",
		Data:    offering,
	})
}

// ListServices returns all active service offerings.
func (cc *CatalogController) ListServices(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	offerings, err := cc.catalog.ListActive(ctx)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Services fetched successfully",
		Data:    offerings,
	})
}
