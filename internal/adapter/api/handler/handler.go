package handler

import (
	"hitrank/internal/usecase"
)

var (
	profileHandler     *ProfileHandler
	pinHandler         *PinHandler
	challengeHandler   *ChallengeHandler
	interactionHandler *InteractionHandler
)

func Setup(
	profileUseCase *usecase.ProfileUseCase,
	ratingUseCase *usecase.RatingUseCase,
	vouchUseCase *usecase.VouchUseCase,
	challengeUseCase *usecase.ChallengeUseCase,
	interactionUseCase *usecase.InteractionUseCase,
) {
	profileHandler = NewProfileHandler(profileUseCase)
	pinHandler = NewPinHandler(profileUseCase, ratingUseCase, vouchUseCase)
	challengeHandler = NewChallengeHandler(challengeUseCase)
	interactionHandler = NewInteractionHandler(interactionUseCase)
}

func GetProfileHandler() *ProfileHandler {
	return profileHandler
}

func GetPinHandler() *PinHandler {
	return pinHandler
}

func GetChallengeHandler() *ChallengeHandler {
	return challengeHandler
}

func GetInteractionHandler() *InteractionHandler {
	return interactionHandler
}
