package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/middleware"
	"github.com/upline-app/upline_backend/models"
	"github.com/upline-app/upline_backend/repositories"
	"github.com/upline-app/upline_backend/services"
)

type ReferralController struct {
	members   *repositories.MemberRepository
	placement *services.PlacementService
	walker    *services.AncestorWalker
	tree      *services.TreeService
}

func NewReferralController(members *repositories.MemberRepository, placement *services.PlacementService, walker *services.AncestorWalker, tree *services.TreeService) *ReferralController {
	return &ReferralController{members: members, placement: placement, walker: walker, tree: tree}
}

// GetReferralData returns the caller's referral code, link and direct
// downline count.
func (rc *ReferralController) GetReferralData(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "User ID not found in context",
		})
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	member, err := rc.members.FindByID(ctx, objID)
	if err != nil {
		return errorResponse(c, err)
	}

	children, err := rc.members.ChildrenOf(ctx, objID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral data fetched successfully",
		Data: map[string]interface{}{
			"referralCode":  member.ReferralCode,
			"referralCount": len(children),
			"referralLink":  "https://upline.app/register?ref=" + member.ReferralCode,
		},
	})
}

// AssignParent is the admin-only unilevel placement: attach an unplaced
// member directly under the sponsor owning the referral code, with no slot
// and no capacity limit. Irreversible.
func (rc *ReferralController) AssignParent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.AssignParentRequest
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

	targetID, err := primitive.ObjectIDFromHex(req.TargetID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid target ID format",
		})
	}

	result, err := rc.placement.AssignUnilevel(ctx, targetID, req.ReferralCode)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral parent assigned successfully",
		Data:    result,
	})
}

// GetDownline returns the caller's downline tree, at most ?depth levels deep
// (capped at 10).
func (rc *ReferralController) GetDownline(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "User ID not found in context",
		})
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	depth := services.MaxDownlineDepth
	if depthParam := c.QueryParam("depth"); depthParam != "" {
		if parsed, err := strconv.Atoi(depthParam); err == nil {
			depth = parsed
		}
	}

	tree, err := rc.tree.Downline(ctx, objID, depth)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Downline fetched successfully",
		Data:    tree,
	})
}

// GetAncestors returns the caller's upline chain, nearest first.
func (rc *ReferralController) GetAncestors(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "User ID not found in context",
		})
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	chain, err := rc.walker.Chain(ctx, objID)
	if err != nil {
		return errorResponse(c, err)
	}

	type ancestorView struct {
		ID       primitive.ObjectID `json:"id"`
		FullName string             `json:"fullName"`
		Level    int                `json:"level"`
	}
	views := make([]ancestorView, 0, len(chain))
	for _, a := range chain {
		views = append(views, ancestorView{
			ID:       a.Member.ID,
			FullName: a.Member.FullName,
			Level:    a.Level,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Ancestor chain fetched successfully",
		Data:    views,
	})
}
