package entity

import (
	"time"
)

// Vouch is keyed by (PinID, VoucherID); its existence is the active vouch.
// ReputationGranted and the beneficiary are kept so removal is an exact undo.
type Vouch struct {
	PinID             string    `json:"pin_id" firestore:"pinId"`
	VoucherID         string    `json:"voucher_id" firestore:"userId"`
	BeneficiaryID     string    `json:"beneficiary_id" firestore:"beneficiaryId"`
	ResortID          string    `json:"resort_id" firestore:"resortId"`
	ReputationGranted float64   `json:"reputation_granted" firestore:"reputationGranted"`
	CreatedAt         time.Time `json:"created_at" firestore:"createdAt"`
}
