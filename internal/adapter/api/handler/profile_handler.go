package handler

import (
	"github.com/labstack/echo/v4"

	"hitrank/internal/adapter/api/middleware"
	"hitrank/internal/usecase"
	"hitrank/pkg/errors"
	"hitrank/pkg/response"
	"hitrank/pkg/utils"
)

type ProfileHandler struct {
	profileUseCase *usecase.ProfileUseCase
}

func NewProfileHandler(profileUseCase *usecase.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: profileUseCase,
	}
}

type ensureProfileRequest struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
}

type reputationResponse struct {
	UserID                string             `json:"user_id"`
	Username              string             `json:"username"`
	CredibilityScore      float64            `json:"credibility_score"`
	ResortReputation      map[string]float64 `json:"resort_reputation"`
	PinsReviewedCount     int                `json:"pins_reviewed_count"`
	DethroneSuccessCount  int                `json:"dethrone_success_count"`
	DethroneLostCount     int                `json:"dethrone_lost_count"`
	DethroneAttemptsCount int                `json:"dethrone_attempts_count"`
}

func (h *ProfileHandler) EnsureProfile(c echo.Context) error {
	var req ensureProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.profileUseCase.EnsureProfile(c.Request().Context(), middleware.UID(c), req.Username)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *ProfileHandler) GetReputation(c echo.Context) error {
	userID := c.Param("userId")
	if userID == "" {
		return response.Error(c, errors.BadRequest("User ID is required", nil))
	}

	user, err := h.profileUseCase.GetUserReputation(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, reputationResponse{
		UserID:                user.ID,
		Username:              user.Username,
		CredibilityScore:      user.GlobalCredibility,
		ResortReputation:      user.ResortReputation,
		PinsReviewedCount:     user.ReviewCount,
		DethroneSuccessCount:  user.DethroneSuccessCount,
		DethroneLostCount:     user.DethroneLostCount,
		DethroneAttemptsCount: user.DethroneAttemptsCount,
	})
}

func (h *ProfileHandler) ListNotifications(c echo.Context) error {
	limit, err := utils.LimitParam(c)
	if err != nil {
		return response.Error(c, err)
	}

	notifications, err := h.profileUseCase.ListNotifications(c.Request().Context(), middleware.UID(c), limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, notifications)
}
