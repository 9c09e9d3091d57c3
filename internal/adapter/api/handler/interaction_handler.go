package handler

import (
	"github.com/labstack/echo/v4"

	"hitrank/internal/adapter/api/middleware"
	"hitrank/internal/domain/entity"
	"hitrank/internal/usecase"
	"hitrank/pkg/errors"
	"hitrank/pkg/response"
)

type InteractionHandler struct {
	interactionUseCase *usecase.InteractionUseCase
}

func NewInteractionHandler(interactionUseCase *usecase.InteractionUseCase) *InteractionHandler {
	return &InteractionHandler{
		interactionUseCase: interactionUseCase,
	}
}

type flagRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=200"`
}

func (h *InteractionHandler) Like(c echo.Context) error {
	return h.react(c, entity.ReactionLike)
}

func (h *InteractionHandler) Dislike(c echo.Context) error {
	return h.react(c, entity.ReactionDislike)
}

func (h *InteractionHandler) react(c echo.Context, reaction entity.Reaction) error {
	result, err := h.interactionUseCase.React(c.Request().Context(), middleware.UID(c), c.Param("pinId"), reaction)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *InteractionHandler) ToggleFavorite(c echo.Context) error {
	result, err := h.interactionUseCase.ToggleFavorite(c.Request().Context(), middleware.UID(c), c.Param("pinId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

// ToggleFlag accepts an empty body.
func (h *InteractionHandler) ToggleFlag(c echo.Context) error {
	var req flagRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return response.Error(c, errors.BadRequest("Invalid request body", err))
		}
		if err := c.Validate(&req); err != nil {
			return response.Error(c, err)
		}
	}

	result, err := h.interactionUseCase.ToggleFlag(c.Request().Context(), middleware.UID(c), c.Param("pinId"), req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *InteractionHandler) GetState(c echo.Context) error {
	state, err := h.interactionUseCase.State(c.Request().Context(), middleware.UID(c), c.Param("pinId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, state)
}

func (h *InteractionHandler) ListFavorites(c echo.Context) error {
	pinIDs, err := h.interactionUseCase.ListFavorites(c.Request().Context(), middleware.UID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string][]string{"pin_ids": pinIDs})
}
