package handler

import (
	"github.com/labstack/echo/v4"

	"hitrank/internal/adapter/api/middleware"
	"hitrank/internal/domain/entity"
	"hitrank/internal/usecase"
	"hitrank/pkg/errors"
	"hitrank/pkg/response"
	"hitrank/pkg/utils"
)

type ChallengeHandler struct {
	challengeUseCase *usecase.ChallengeUseCase
}

func NewChallengeHandler(challengeUseCase *usecase.ChallengeUseCase) *ChallengeHandler {
	return &ChallengeHandler{
		challengeUseCase: challengeUseCase,
	}
}

type createChallengeRequest struct {
	MediaRef string `json:"media_ref" validate:"required,max=2048"`
}

type castVoteRequest struct {
	Vote string `json:"vote" validate:"required,oneof=up down"`
}

func (h *ChallengeHandler) CreateChallenge(c echo.Context) error {
	var req createChallengeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	challenge, err := h.challengeUseCase.Create(c.Request().Context(), middleware.UID(c), c.Param("pinId"), usecase.CreateChallengeInput{
		MediaRef: req.MediaRef,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, challenge)
}

func (h *ChallengeHandler) GetChallenge(c echo.Context) error {
	challenge, err := h.challengeUseCase.GetChallenge(c.Request().Context(), c.Param("pinId"), c.Param("challengeId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, challenge)
}

func (h *ChallengeHandler) CastVote(c echo.Context) error {
	var req castVoteRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	challenge, err := h.challengeUseCase.CastVote(c.Request().Context(), middleware.UID(c), c.Param("pinId"), c.Param("challengeId"), entity.VoteChoice(req.Vote))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, challenge)
}

// Admin

func (h *ChallengeHandler) ListChallenges(c echo.Context) error {
	limit, err := utils.LimitParam(c)
	if err != nil {
		return response.Error(c, err)
	}

	challenges, err := h.challengeUseCase.ListChallenges(c.Request().Context(), c.QueryParam("status"), limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, challenges)
}

func (h *ChallengeHandler) ApproveChallenge(c echo.Context) error {
	challenge, err := h.challengeUseCase.Approve(c.Request().Context(), middleware.UID(c), c.Param("pinId"), c.Param("challengeId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, challenge)
}

func (h *ChallengeHandler) RejectChallenge(c echo.Context) error {
	challenge, err := h.challengeUseCase.Reject(c.Request().Context(), middleware.UID(c), c.Param("pinId"), c.Param("challengeId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, challenge)
}

func (h *ChallengeHandler) FinalizeChallenge(c echo.Context) error {
	result, err := h.challengeUseCase.Finalize(c.Request().Context(), middleware.UID(c), c.Param("pinId"), c.Param("challengeId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *ChallengeHandler) CancelChallenge(c echo.Context) error {
	result, err := h.challengeUseCase.Cancel(c.Request().Context(), middleware.UID(c), c.Param("pinId"), c.Param("challengeId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
