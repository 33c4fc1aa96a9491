package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"lightning-pass/internal/services/gateway"
	"lightning-pass/internal/services/notify"
	"lightning-pass/internal/status"
	"lightning-pass/models"
	"lightning-pass/monitoring"
)

// RefundService handles both refund entry points. Customer requests go
// through a pending-request/response cycle; venues reverse directly.
// Both converge on the same reversal routine, which claws back the
// venue's transferred share along with the platform fee.
type RefundService struct {
	app      core.App
	gw       gateway.Gateway
	notifier notify.Notifier
	monitor  *monitoring.Monitor
}

func NewRefundService(app core.App, gw gateway.Gateway, notifier notify.Notifier, monitor *monitoring.Monitor) *RefundService {
	return &RefundService{app: app, gw: gw, notifier: notifier, monitor: monitor}
}

// RequestRefund opens a pending refund case for a pass the requester
// owns. Used and refunded passes are rejected here; venue discretion
// for used passes lives in VenueInitiatedRefund only.
func (s *RefundService) RequestRefund(ctx context.Context, passID, requesterEmail, customerID, reason string) (*models.RefundRequest, error) {
	if len(strings.TrimSpace(reason)) < models.MinRefundReasonLength {
		return nil, status.ErrReasonTooShort
	}

	passRecord, err := s.findPassRecord(passID)
	if err != nil {
		return nil, err
	}
	pass := models.PassFromRecord(passRecord)

	if !strings.EqualFold(pass.Email, requesterEmail) {
		return nil, status.ErrNotPassOwner
	}
	if err := pass.CheckCustomerRefundable(); err != nil {
		return nil, err
	}

	requestID := "rr_" + uuid.NewString()
	var requestRecord *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		collection, err := txApp.FindCollectionByNameOrId(models.CollectionRefundRequests)
		if err != nil {
			return err
		}
		requestRecord = core.NewRecord(collection)
		requestRecord.Set("request_id", requestID)
		requestRecord.Set("pass_id", pass.PassID)
		requestRecord.Set("venue", pass.VenueID)
		requestRecord.Set("customer", customerID)
		requestRecord.Set("email", pass.Email)
		requestRecord.Set("phone", pass.Phone)
		requestRecord.Set("reason", reason)
		requestRecord.Set("status", models.RefundPending)
		if err := txApp.Save(requestRecord); err != nil {
			// The partial unique index on pending requests makes a
			// concurrent double request fail here.
			if isUniqueViolation(err, "pass_id") {
				return status.ErrRefundPending
			}
			return fmt.Errorf("save refund request: %w", err)
		}

		passRecord.Set("refund_requested", true)
		if err := txApp.Save(passRecord); err != nil {
			return fmt.Errorf("flag pass: %w", err)
		}
		return nil
	})
	if errors.Is(txErr, status.ErrRefundPending) {
		return nil, status.ErrRefundPending
	}
	if txErr != nil {
		return nil, fmt.Errorf("refund: open request: %w", txErr)
	}

	slog.Info("refund requested", "pass", pass.PassID, "request", requestID)
	return models.RefundRequestFromRecord(requestRecord), nil
}

// RespondToRefundRequest resolves a pending request. Denial moves no
// money; approval runs the reversal routine, which resolves the request
// in the same store transaction as the ledger flip, so a failed gateway
// refund leaves the case pending.
func (s *RefundService) RespondToRefundRequest(ctx context.Context, requestID string, approve bool, denialReason, responder string) (*models.RefundRequest, error) {
	requestRecord, err := s.app.FindFirstRecordByFilter(
		models.CollectionRefundRequests,
		"request_id = {:requestId}",
		dbx.Params{"requestId": requestID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrRequestNotFound
		}
		return nil, fmt.Errorf("refund: find request: %w", err)
	}
	request := models.RefundRequestFromRecord(requestRecord)
	if request.Status != models.RefundPending {
		return nil, status.ErrRequestResolved
	}

	passRecord, err := s.findPassRecord(request.PassID)
	if err != nil {
		return nil, err
	}
	pass := models.PassFromRecord(passRecord)

	if !approve {
		if strings.TrimSpace(denialReason) == "" {
			return nil, status.ErrDenialReasonRequired
		}
		txErr := s.app.RunInTransaction(func(txApp core.App) error {
			requestRecord.Set("status", models.RefundDenied)
			requestRecord.Set("denial_reason", denialReason)
			requestRecord.Set("responded_at", time.Now())
			requestRecord.Set("responded_by", responder)
			if err := txApp.Save(requestRecord); err != nil {
				return err
			}
			passRecord.Set("refund_requested", false)
			return txApp.Save(passRecord)
		})
		if txErr != nil {
			return nil, fmt.Errorf("refund: deny request: %w", txErr)
		}

		go s.sendBestEffort(pass.Phone, notify.RefundDenied(pass.VenueName, pass.PassID, denialReason))
		slog.Info("refund denied", "pass", pass.PassID, "request", requestID, "by", responder)
		return models.RefundRequestFromRecord(requestRecord), nil
	}

	// The responder acts with venue authority, so venue eligibility
	// applies: a pass used after the request was opened may still be
	// refunded.
	if err := pass.CheckVenueRefundable(); err != nil {
		return nil, err
	}

	reversal, err := s.reverse(ctx, passRecord, pass, requestRecord, responder)
	if err != nil {
		return nil, err
	}

	s.monitor.TrackRefund("customer")
	go s.sendBestEffort(pass.Phone, notify.RefundApproved(pass.VenueName, pass.PassID, reversal.Amount))
	slog.Info("refund approved", "pass", pass.PassID, "request", requestID, "by", responder, "refund", reversal.RefundRef)
	return models.RefundRequestFromRecord(requestRecord), nil
}

// VenueInitiatedRefund reverses a pass directly, bypassing the pending
// request step. Venue discretion extends to used passes. An approved
// request record is written for audit symmetry with the customer path,
// in the same transaction as the ledger flip.
func (s *RefundService) VenueInitiatedRefund(ctx context.Context, passID, reason, actor string) (*models.RefundRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, status.ErrDenialReasonRequired
	}

	passRecord, err := s.findPassRecord(passID)
	if err != nil {
		return nil, err
	}
	pass := models.PassFromRecord(passRecord)

	if err := pass.CheckVenueRefundable(); err != nil {
		return nil, err
	}

	collection, err := s.app.FindCollectionByNameOrId(models.CollectionRefundRequests)
	if err != nil {
		return nil, fmt.Errorf("refund: %w", err)
	}
	requestRecord := core.NewRecord(collection)
	requestRecord.Set("request_id", "rr_"+uuid.NewString())
	requestRecord.Set("pass_id", pass.PassID)
	requestRecord.Set("venue", pass.VenueID)
	requestRecord.Set("email", pass.Email)
	requestRecord.Set("phone", pass.Phone)
	requestRecord.Set("reason", reason)

	reversal, err := s.reverse(ctx, passRecord, pass, requestRecord, actor)
	if err != nil {
		return nil, err
	}

	s.monitor.TrackRefund("venue")
	go s.sendBestEffort(pass.Phone, notify.RefundIssued(pass.VenueName, pass.PassID, reversal.Amount))
	slog.Info("venue refund issued", "pass", pass.PassID, "by", actor, "refund", reversal.RefundRef)
	return models.RefundRequestFromRecord(requestRecord), nil
}

type reversalResult struct {
	RefundRef string
	Amount    decimal.Decimal
}

// reverse refunds the original split charge and rolls the ledger back
// in one transaction: pass, transaction, venue revenue, and the refund
// request's resolution all commit or none do. The gateway call comes
// first: no ledger row changes without a confirmed upstream refund
// reference. The transfer reversal flag is what claws the venue's 85%
// back; refunding the charge alone would leave the venue holding funds
// owed to the buyer.
func (s *RefundService) reverse(ctx context.Context, passRecord *core.Record, pass *models.Pass, requestRecord *core.Record, responder string) (*reversalResult, error) {
	if pass.PaymentIntent == "" {
		return nil, fmt.Errorf("refund: pass %s has no payment reference", pass.PassID)
	}

	txRecord, err := s.app.FindFirstRecordByFilter(
		models.CollectionTransactions,
		"pass_id = {:passId}",
		dbx.Params{"passId": pass.PassID},
	)
	if err != nil {
		return nil, fmt.Errorf("refund: find transaction for %s: %w", pass.PassID, err)
	}
	tx := models.TransactionFromRecord(txRecord)
	if tx.Status == models.TransactionRefunded {
		return nil, status.ErrAlreadyRefunded
	}

	refund, err := s.gw.RefundIntent(ctx, pass.PaymentIntent, true)
	if err != nil {
		return nil, fmt.Errorf("refund: gateway refund: %w", err)
	}

	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		passRecord.Set("status", models.PassRefunded)
		passRecord.Set("refund_requested", false)
		if err := txApp.Save(passRecord); err != nil {
			return fmt.Errorf("save pass: %w", err)
		}

		txRecord.Set("status", models.TransactionRefunded)
		txRecord.Set("refund_ref", refund.ID)
		if err := txApp.Save(txRecord); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}

		// Lifetime revenue is floored at zero, never negative.
		_, err := txApp.DB().NewQuery(`
			UPDATE venues
			SET lifetime_revenue = MAX(lifetime_revenue - {:share}, 0)
			WHERE id = {:id}
		`).Bind(dbx.Params{
			"share": tx.VenueRevenue.InexactFloat64(),
			"id":    pass.VenueID,
		}).Execute()
		if err != nil {
			return fmt.Errorf("claw back venue revenue: %w", err)
		}

		requestRecord.Set("status", models.RefundApproved)
		requestRecord.Set("responded_at", time.Now())
		requestRecord.Set("responded_by", responder)
		requestRecord.Set("refund_ref", refund.ID)
		requestRecord.Set("refund_amount", tx.Amount.InexactFloat64())
		if err := txApp.Save(requestRecord); err != nil {
			return fmt.Errorf("record resolution: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("refund: ledger update: %w", txErr)
	}

	return &reversalResult{RefundRef: refund.ID, Amount: tx.Amount}, nil
}

func (s *RefundService) sendBestEffort(phone, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.notifier.Send(ctx, phone, message); err != nil {
		s.monitor.TrackNotificationFailure()
		slog.Error("refund notification failed", "phone", phone, "error", err)
	}
}

func (s *RefundService) findPassRecord(passID string) (*core.Record, error) {
	record, err := s.app.FindFirstRecordByFilter(
		models.CollectionPasses,
		"pass_id = {:passId}",
		dbx.Params{"passId": passID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPassNotFound
		}
		return nil, fmt.Errorf("refund: find pass: %w", err)
	}
	return record, nil
}
