package common

import (
	"errors"
	"fmt"
	"log"
	"time"
	"tutorpay/src/db"
	"tutorpay/src/models"
	"tutorpay/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettlementReason string

const (
	REASON_BOOKING_NOT_FOUND SettlementReason = "booking_not_found"
	REASON_NOT_PENDING       SettlementReason = "booking_not_pending"
	REASON_MISSING_SNAPSHOT  SettlementReason = "missing_snapshot_fields"
	REASON_STORE_UNAVAILABLE SettlementReason = "store_unavailable"
)

// SettlementError is a business-logic settlement failure. The webhook layer
// records these in the failure queue and still acknowledges the provider;
// nothing of this type crosses the webhook boundary as a 5xx.
type SettlementError struct {
	Reason    SettlementReason
	BookingID uint
	Err       error
}

func (e *SettlementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("settlement failed (%s) for booking %d: %s", e.Reason, e.BookingID, e.Err.Error())
	}
	return fmt.Sprintf("settlement failed (%s) for booking %d", e.Reason, e.BookingID)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// CommissionSplit is the allocation of a booking amount in minor units.
// Shares always sum exactly to the input amount; any integer-division
// remainder lands in PlatformFee.
type CommissionSplit struct {
	TutorPayout        int64
	PlatformFee        int64
	ReferrerCommission int64
}

// ComputeCommissionSplit applies the two documented splits: 90/10 without a
// referring agent, 80/10/10 with one.
func ComputeCommissionSplit(amount int64, hasAgent bool) CommissionSplit {
	if hasAgent {
		tutor := amount * 80 / 100
		commission := amount * 10 / 100
		return CommissionSplit{
			TutorPayout:        tutor,
			PlatformFee:        amount - tutor - commission,
			ReferrerCommission: commission,
		}
	}
	tutor := amount * 90 / 100
	return CommissionSplit{
		TutorPayout: tutor,
		PlatformFee: amount - tutor,
	}
}

type SettlementResult struct {
	BookingID       uint                 `json:"booking_id"`
	CheckoutEventID string               `json:"checkout_event_id"`
	AlreadySettled  bool                 `json:"already_settled"`
	Transactions    []models.Transaction `json:"transactions"`
}

// Settle turns a verified checkout-completed event into the booking's ledger
// entries, exactly once per (booking, checkout event) pair.
//
// The whole decision runs in one store transaction: the booking row is read
// under FOR UPDATE, prior ledger rows for the pair short-circuit to the
// previously computed result, and the status flip is conditional on the row
// still being Pending. Concurrent duplicate deliveries therefore race to a
// single committed ledger set, with the loser observing the winner's result.
func Settle(bookingID uint, checkoutEventID string) (*SettlementResult, error) {
	result := SettlementResult{
		BookingID:       bookingID,
		CheckoutEventID: checkoutEventID,
	}
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bookingID).
			First(&booking).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SettlementError{Reason: REASON_BOOKING_NOT_FOUND, BookingID: bookingID, Err: err}
		}
		if err != nil {
			return &SettlementError{Reason: REASON_STORE_UNAVAILABLE, BookingID: bookingID, Err: err}
		}

		var existing []models.Transaction
		if err := tx.
			Where("booking_id = ? AND checkout_event_id = ?", bookingID, checkoutEventID).
			Find(&existing).
			Error; err != nil {
			return &SettlementError{Reason: REASON_STORE_UNAVAILABLE, BookingID: bookingID, Err: err}
		}
		if len(existing) > 0 {
			log.Printf("[settlement] Booking %d already settled for event %s\n", bookingID, checkoutEventID)
			result.AlreadySettled = true
			result.Transactions = existing
			return nil
		}

		if booking.PaymentStatus != types.PAYMENT_PENDING {
			return &SettlementError{
				Reason:    REASON_NOT_PENDING,
				BookingID: bookingID,
				Err:       fmt.Errorf("payment status is %s", booking.PaymentStatus),
			}
		}
		if booking.TutorID == 0 || booking.ClientID == 0 || booking.Amount <= 0 {
			return &SettlementError{
				Reason:    REASON_MISSING_SNAPSHOT,
				BookingID: bookingID,
				Err:       errors.New("booking is missing tutor, client or amount"),
			}
		}

		split := ComputeCommissionSplit(booking.Amount, booking.AgentID != nil)
		txns := []models.Transaction{
			{
				BookingID:       bookingID,
				CheckoutEventID: checkoutEventID,
				Kind:            types.TXN_TUTOR_PAYOUT,
				Amount:          split.TutorPayout,
				Currency:        booking.Currency,
			},
			{
				BookingID:       bookingID,
				CheckoutEventID: checkoutEventID,
				Kind:            types.TXN_PLATFORM_FEE,
				Amount:          split.PlatformFee,
				Currency:        booking.Currency,
			},
		}
		if booking.AgentID != nil {
			txns = append(txns, models.Transaction{
				BookingID:       bookingID,
				CheckoutEventID: checkoutEventID,
				Kind:            types.TXN_REFERRER_COMMISSION,
				Amount:          split.ReferrerCommission,
				Currency:        booking.Currency,
			})
		}
		if err := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&txns).
			Error; err != nil {
			return &SettlementError{Reason: REASON_STORE_UNAVAILABLE, BookingID: bookingID, Err: err}
		}

		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND payment_status = ?", bookingID, types.PAYMENT_PENDING).
			Updates(map[string]any{
				"payment_status":      types.PAYMENT_PAID,
				"checkout_session_id": checkoutEventID,
			})
		if res.Error != nil {
			return &SettlementError{Reason: REASON_STORE_UNAVAILABLE, BookingID: bookingID, Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &SettlementError{
				Reason:    REASON_NOT_PENDING,
				BookingID: bookingID,
				Err:       errors.New("booking left Pending during settlement"),
			}
		}
		result.Transactions = txns
		return nil
	})
	if err != nil {
		var serr *SettlementError
		if errors.As(err, &serr) {
			return nil, serr
		}
		return nil, &SettlementError{Reason: REASON_STORE_UNAVAILABLE, BookingID: bookingID, Err: err}
	}
	return &result, nil
}

// HandlePaymentFailed flips a Pending booking to Failed. One conditional
// statement, so redeliveries are harmless and a late failure event cannot
// clobber a booking that already settled.
func HandlePaymentFailed(bookingID uint) error {
	d := db.GetDb()
	return d.
		Model(&models.Booking{}).
		Where("id = ? AND payment_status = ?", bookingID, types.PAYMENT_PENDING).
		Update("payment_status", types.PAYMENT_FAILED).
		Error
}

// RecordFailedSettlement writes the dead-letter row for a settlement that
// failed business validation. The conflict target on event_id collapses
// provider redeliveries of the same failed event into one row.
func RecordFailedSettlement(eventID string, eventType string, bookingID *uint, checkoutSessionID *string, cause error) error {
	row := models.FailedSettlement{
		EventID:           eventID,
		EventType:         eventType,
		BookingID:         bookingID,
		CheckoutSessionID: checkoutSessionID,
		Status:            types.SETTLEMENT_FAILED,
		ErrorMsg:          cause.Error(),
	}
	d := db.GetDb()
	return d.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

// ListFailedSettlements is the read side of the reprocessor contract.
func ListFailedSettlements(status types.FailedSettlementStatus) ([]models.FailedSettlement, error) {
	var rows []models.FailedSettlement
	d := db.GetDb()
	err := d.
		Where("status = ?", status).
		Order("created_at").
		Find(&rows).
		Error
	return rows, err
}

// ResolveFailedSettlement marks a dead-letter row handled after a successful
// retried settlement.
func ResolveFailedSettlement(id uint) error {
	now := time.Now()
	d := db.GetDb()
	return d.
		Model(&models.FailedSettlement{}).
		Where("id = ? AND status = ?", id, types.SETTLEMENT_FAILED).
		Updates(map[string]any{
			"status":      types.SETTLEMENT_RESOLVED,
			"resolved_at": now,
		}).
		Error
}
