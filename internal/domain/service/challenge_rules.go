package service

import (
	"time"

	"hitrank/internal/domain/entity"
)

// VotingWindow is fixed for every challenge.
const VotingWindow = 24 * time.Hour

// ChallengerWins reports the outcome of a tally. A tie keeps the incumbent.
func ChallengerWins(upvotes, downvotes int) bool {
	return downvotes > upvotes
}

var challengeTransitions = map[entity.ChallengeStatus][]entity.ChallengeStatus{
	entity.ChallengePending: {entity.ChallengeVoting, entity.ChallengeRejected},
	entity.ChallengeVoting:  {entity.ChallengeSuccessful, entity.ChallengeFailed, entity.ChallengeCancelled},
}

func CanTransition(from, to entity.ChallengeStatus) bool {
	for _, next := range challengeTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// VotingDeadline is the end of the voting window for a challenge approved at now.
func VotingDeadline(now time.Time) time.Time {
	return now.Add(VotingWindow)
}

// TransferOwnership crowns the challenger: the media is replaced, the current
// owner is appended to the history and the challenger becomes the owner.
func TransferOwnership(pin *entity.Pin, challenge *entity.Challenge) {
	pin.OwnershipHistory = append(pin.OwnershipHistory, pin.OwnerID)
	pin.OwnerID = challenge.ChallengerID
	if challenge.ChallengerMediaRef != "" {
		pin.Media = []string{challenge.ChallengerMediaRef}
	}
}
