package handler

import (
	"github.com/labstack/echo/v4"

	"hitrank/internal/adapter/api/middleware"
	"hitrank/internal/domain/entity"
	"hitrank/internal/usecase"
	"hitrank/pkg/errors"
	"hitrank/pkg/response"
)

type PinHandler struct {
	profileUseCase *usecase.ProfileUseCase
	ratingUseCase  *usecase.RatingUseCase
	vouchUseCase   *usecase.VouchUseCase
}

func NewPinHandler(profileUseCase *usecase.ProfileUseCase, ratingUseCase *usecase.RatingUseCase, vouchUseCase *usecase.VouchUseCase) *PinHandler {
	return &PinHandler{
		profileUseCase: profileUseCase,
		ratingUseCase:  ratingUseCase,
		vouchUseCase:   vouchUseCase,
	}
}

type createPinRequest struct {
	ResortID    string           `json:"resort_id" validate:"required"`
	FeatureName string           `json:"feature_name" validate:"required,max=120"`
	Media       []string         `json:"media" validate:"max=5,dive,required"`
	Location    *locationRequest `json:"location,omitempty"`
}

type locationRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type submitRatingRequest struct {
	Technicality int      `json:"technicality" validate:"required,min=1,max=5"`
	Exposure     int      `json:"exposure" validate:"required,min=1,max=5"`
	Entry        int      `json:"entry" validate:"required,min=1,max=5"`
	Fall         bool     `json:"fall"`
	Comment      string   `json:"comment,omitempty" validate:"max=1000"`
	Tags         []string `json:"tags,omitempty" validate:"max=5,dive,objectivetag"`
}

func (h *PinHandler) CreatePin(c echo.Context) error {
	var req createPinRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.CreatePinInput{
		ResortID:    req.ResortID,
		FeatureName: req.FeatureName,
		Media:       req.Media,
	}
	if req.Location != nil {
		input.Location = &entity.GeoPoint{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}

	pin, err := h.profileUseCase.CreatePin(c.Request().Context(), middleware.UID(c), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, pin)
}

func (h *PinHandler) GetPin(c echo.Context) error {
	view, err := h.profileUseCase.GetPinView(c.Request().Context(), c.Param("pinId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, view)
}

func (h *PinHandler) SubmitRating(c echo.Context) error {
	var req submitRatingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.ratingUseCase.SubmitRating(c.Request().Context(), middleware.UID(c), c.Param("pinId"), usecase.SubmitRatingInput{
		Technicality: req.Technicality,
		Exposure:     req.Exposure,
		Entry:        req.Entry,
		Fall:         req.Fall,
		Comment:      req.Comment,
		Tags:         req.Tags,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

func (h *PinHandler) GetRating(c echo.Context) error {
	rating, err := h.ratingUseCase.GetRating(c.Request().Context(), c.Param("pinId"), c.Param("ratingId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rating)
}

func (h *PinHandler) ToggleVouch(c echo.Context) error {
	result, err := h.vouchUseCase.ToggleVouch(c.Request().Context(), middleware.UID(c), c.Param("pinId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
