package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upline-app/upline_backend/middleware"
	"github.com/upline-app/upline_backend/models"
	"github.com/upline-app/upline_backend/repositories"
	"github.com/upline-app/upline_backend/services"
	"github.com/upline-app/upline_backend/utils"
)

const referralCodeRetries = 5

type AuthController struct {
	members   *repositories.MemberRepository
	placement *services.PlacementService
	runner    services.AtomicRunner
}

func NewAuthController(members *repositories.MemberRepository, placement *services.PlacementService, runner services.AtomicRunner) *AuthController {
	return &AuthController{members: members, placement: placement, runner: runner}
}

// Signup registers a new member and places them into the referral tree under
// the sponsor identified by the referral code. The very first member may sign
// up without a code and becomes the root; everyone after that needs one.
// Member creation and placement commit together.
func (ac *AuthController) Signup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Data:    err.Error(),
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	if req.ReferralCode == "" {
		count, err := ac.members.Count(ctx)
		if err != nil {
			return errorResponse(c, err)
		}
		if count > 0 {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Referral code is required",
			})
		}
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, err)
	}

	now := time.Now()
	member := &models.Member{
		Email:     req.Email,
		Password:  hashedPassword,
		FullName:  req.FullName,
		UserType:  "user",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var placement *models.PlacementResult
	err = ac.runner.Run(ctx, func(ctx context.Context) error {
		if err := ac.insertWithReferralCode(ctx, member); err != nil {
			return err
		}
		if req.ReferralCode != "" {
			var err error
			placement, err = ac.placement.PlaceBinary(ctx, member.ID, req.ReferralCode)
			return err
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Email already registered",
			})
		}
		return errorResponse(c, err)
	}

	token, refreshToken, err := middleware.GenerateJWT(member.ID.Hex(), member.Email, member.UserType)
	if err != nil {
		return errorResponse(c, err)
	}

	member.Password = ""
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Signup successful",
		Data: map[string]interface{}{
			"user":         member,
			"placement":    placement,
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

// insertWithReferralCode inserts the member, regenerating the referral code
// on the rare duplicate.
func (ac *AuthController) insertWithReferralCode(ctx context.Context, member *models.Member) error {
	var lastErr error
	for i := 0; i < referralCodeRetries; i++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return err
		}
		member.ID = primitive.NilObjectID
		member.ReferralCode = code
		err = ac.members.Insert(ctx, member)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		// Could also be a duplicate email; let that surface instead of
		// retrying forever.
		existing, ferr := ac.members.FindByEmail(ctx, member.Email)
		if ferr == nil && existing != nil {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// Login authenticates a member and issues JWT tokens.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
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

	member, err := ac.members.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid email or password",
			})
		}
		return errorResponse(c, err)
	}

	if !utils.CheckPassword(member.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(member.ID.Hex(), member.Email, member.UserType)
	if err != nil {
		return errorResponse(c, err)
	}

	member.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"user":         member,
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}
