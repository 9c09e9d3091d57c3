package usecase

import (
	"context"
	"time"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/internal/domain/service"
	"hitrank/pkg/errors"
)

type VouchUseCase struct {
	runner *TxRunner
	cache  PinViewCache
	now    func() time.Time
}

func NewVouchUseCase(runner *TxRunner, cache PinViewCache) *VouchUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	return &VouchUseCase{
		runner: runner,
		cache:  cache,
		now:    time.Now,
	}
}

type VouchResult struct {
	Vouched         bool        `json:"vouched"`
	VouchCount      int         `json:"vouch_count"`
	ReputationDelta float64     `json:"reputation_delta"`
	Pin             *entity.Pin `json:"pin"`
}

// ToggleVouch creates the caller's vouch on the pin, or removes it if it
// already exists. A new vouch credits the pin's current owner; removal undoes
// exactly what the vouch granted, to whoever received it.
func (uc *VouchUseCase) ToggleVouch(ctx context.Context, voucherID, pinID string) (*VouchResult, error) {
	var result *VouchResult
	err := uc.runner.Run(ctx, "toggle_vouch", func(ctx context.Context, tx repository.Tx) error {
		pin, err := tx.GetPin(pinID)
		if err != nil {
			return err
		}
		existing, err := tx.GetVouch(pinID, voucherID)
		if err != nil {
			return err
		}

		beneficiaryID := pin.OwnerID
		if existing != nil && existing.BeneficiaryID != "" {
			beneficiaryID = existing.BeneficiaryID
		}
		if beneficiaryID == voucherID {
			return errors.SelfVouch()
		}

		voucher, err := tx.GetUser(voucherID)
		if err != nil {
			return err
		}
		beneficiary, err := tx.GetUser(beneficiaryID)
		if err != nil {
			return err
		}

		now := uc.now()
		if existing != nil {
			result, err = uc.revoke(tx, pin, beneficiary, existing, now)
		} else {
			result, err = uc.grant(tx, pin, voucher, beneficiary, now)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, uc.cache, pinID)
	return result, nil
}

func (uc *VouchUseCase) grant(tx repository.Tx, pin *entity.Pin, voucher, beneficiary *entity.User, now time.Time) (*VouchResult, error) {
	if voucher.VouchesGiven == nil {
		voucher.VouchesGiven = make(map[string]int)
	}
	prior := voucher.VouchesGiven[beneficiary.ID]
	gain := service.VouchGain(prior, voucher.ReputationAt(pin.ResortID), pin.Difficulty)

	service.GrantVouchReputation(beneficiary, pin.ResortID, gain)
	beneficiary.UpdatedAt = now
	voucher.VouchesGiven[beneficiary.ID] = prior + 1
	voucher.UpdatedAt = now
	pin.VouchCount++
	pin.UpdatedAt = now

	vouch := &entity.Vouch{
		PinID:             pin.ID,
		VoucherID:         voucher.ID,
		BeneficiaryID:     beneficiary.ID,
		ResortID:          pin.ResortID,
		ReputationGranted: gain,
		CreatedAt:         now,
	}
	if err := tx.CreateVouch(vouch); err != nil {
		return nil, err
	}
	if err := tx.PutPin(pin); err != nil {
		return nil, err
	}
	if err := tx.PutUser(beneficiary); err != nil {
		return nil, err
	}
	if err := tx.PutUser(voucher); err != nil {
		return nil, err
	}

	return &VouchResult{Vouched: true, VouchCount: pin.VouchCount, ReputationDelta: gain, Pin: pin}, nil
}

func (uc *VouchUseCase) revoke(tx repository.Tx, pin *entity.Pin, beneficiary *entity.User, vouch *entity.Vouch, now time.Time) (*VouchResult, error) {
	resortID := vouch.ResortID
	if resortID == "" {
		resortID = pin.ResortID
	}
	service.GrantVouchReputation(beneficiary, resortID, -vouch.ReputationGranted)
	beneficiary.UpdatedAt = now
	if pin.VouchCount > 0 {
		pin.VouchCount--
	}
	pin.UpdatedAt = now

	if err := tx.DeleteVouch(pin.ID, vouch.VoucherID); err != nil {
		return nil, err
	}
	if err := tx.PutPin(pin); err != nil {
		return nil, err
	}
	if err := tx.PutUser(beneficiary); err != nil {
		return nil, err
	}

	return &VouchResult{Vouched: false, VouchCount: pin.VouchCount, ReputationDelta: -vouch.ReputationGranted, Pin: pin}, nil
}
