package service

import (
	"hitrank/internal/domain/entity"
)

const (
	// ReviewCredibilityCredit is granted to a reviewer for every rating.
	ReviewCredibilityCredit = 2.0

	resortReputationDivisor  = 1500.0
	globalCredibilityDivisor = 5000.0

	// TrustedVoucherReputation is the resort reputation at which a voucher's
	// endorsement counts for more.
	TrustedVoucherReputation = 1500.0
	trustedVoucherMultiplier = 2.5
	defaultVoucherMultiplier = 1.0
)

// vouchBasePoints decays per (voucher, beneficiary) pair: 10, 8, 5, then 2.
var vouchBasePoints = []float64{10, 8, 5}

const vouchFloorPoints = 2.0

// ComputeReviewWeight is the influence of a rating, fixed at submission:
// 1 + resortReputation/1500 + globalCredibility/5000. Never below 1.
func ComputeReviewWeight(resortReputation, globalCredibility float64) float64 {
	if resortReputation < 0 {
		resortReputation = 0
	}
	if globalCredibility < 0 {
		globalCredibility = 0
	}
	return 1 + resortReputation/resortReputationDivisor + globalCredibility/globalCredibilityDivisor
}

func GrantReviewCredit(reviewer *entity.User) {
	reviewer.GlobalCredibility += ReviewCredibilityCredit
	reviewer.ReviewCount++
}

// GrantVouchReputation adds amount (possibly negative, for a revoked vouch)
// to the user's reputation at resortID. The result is clamped at 0.
func GrantVouchReputation(user *entity.User, resortID string, amount float64) {
	if user.ResortReputation == nil {
		user.ResortReputation = make(map[string]float64)
	}
	next := user.ResortReputation[resortID] + amount
	if next < 0 {
		next = 0
	}
	user.ResortReputation[resortID] = next
}

func VouchBasePoints(priorVouches int) float64 {
	if priorVouches < 0 {
		priorVouches = 0
	}
	if priorVouches < len(vouchBasePoints) {
		return vouchBasePoints[priorVouches]
	}
	return vouchFloorPoints
}

func VoucherMultiplier(voucherResortReputation float64) float64 {
	if voucherResortReputation >= TrustedVoucherReputation {
		return trustedVoucherMultiplier
	}
	return defaultVoucherMultiplier
}

// DifficultyMultiplier maps difficulty 1..5 linearly onto 0.8..2.0. Unrated
// pins (difficulty 0) are treated as difficulty 1.
func DifficultyMultiplier(difficulty float64) float64 {
	d := clamp(difficulty, entity.MinDimensionScore, entity.MaxDimensionScore)
	return 0.8 + ((d-1)/4)*1.2
}

// VouchGain is the reputation a beneficiary receives for a new vouch.
func VouchGain(priorVouches int, voucherResortReputation, difficulty float64) float64 {
	return VouchBasePoints(priorVouches) *
		VoucherMultiplier(voucherResortReputation) *
		DifficultyMultiplier(difficulty)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
