package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"lightning-pass/internal/status"
	"lightning-pass/models"
)

// RedemptionService drives the pass lifecycle at the door:
// active -> used on a successful scan, active -> expired as a side
// effect of checking a stale pass. All terminal states stay terminal
// here; only the refund workflow may move an active pass to refunded.
type RedemptionService struct {
	app core.App
}

func NewRedemptionService(app core.App) *RedemptionService {
	return &RedemptionService{app: app}
}

// ValidatePass is the read-only door check. Checking an active pass
// past its window persists the expired state before reporting it.
func (s *RedemptionService) ValidatePass(passID string) (*models.Pass, error) {
	record, err := s.findPassRecord(passID)
	if err != nil {
		return nil, err
	}
	pass := models.PassFromRecord(record)

	if err := pass.CheckEntry(time.Now()); err != nil {
		if errors.Is(err, status.ErrPassExpired) {
			s.expire(record, pass)
		}
		return nil, err
	}
	return pass, nil
}

// RedeemPass marks a pass used and releases its spots from the venue
// line. Not idempotent: a second scan of the same pass fails with an
// invalid-state error.
func (s *RedemptionService) RedeemPass(passID, scannerIdentity string) (*models.Pass, error) {
	record, err := s.findPassRecord(passID)
	if err != nil {
		return nil, err
	}
	pass := models.PassFromRecord(record)

	if err := pass.CheckEntry(time.Now()); err != nil {
		if errors.Is(err, status.ErrPassExpired) {
			s.expire(record, pass)
		}
		return nil, err
	}

	usedAt := time.Now()
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		record.Set("status", models.PassUsed)
		record.Set("used_at", usedAt)
		record.Set("used_by", scannerIdentity)
		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("save pass: %w", err)
		}

		// in_line is mutated by fulfillment and redemption; keep the
		// decrement atomic and floored at zero.
		_, err := txApp.DB().NewQuery(`
			UPDATE venues
			SET in_line = MAX(in_line - {:qty}, 0)
			WHERE id = {:id}
		`).Bind(dbx.Params{
			"qty": pass.Quantity,
			"id":  pass.VenueID,
		}).Execute()
		if err != nil {
			return fmt.Errorf("update venue line: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("redemption: %w", txErr)
	}

	pass.Status = models.PassUsed
	pass.UsedAt = usedAt
	pass.UsedBy = scannerIdentity

	slog.Info("pass redeemed", "pass", pass.PassID, "venue", pass.VenueID, "scanner", scannerIdentity)
	return pass, nil
}

func (s *RedemptionService) findPassRecord(passID string) (*core.Record, error) {
	record, err := s.app.FindFirstRecordByFilter(
		models.CollectionPasses,
		"pass_id = {:passId}",
		dbx.Params{"passId": passID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPassNotFound
		}
		return nil, fmt.Errorf("redemption: find pass: %w", err)
	}
	return record, nil
}

func (s *RedemptionService) expire(record *core.Record, pass *models.Pass) {
	record.Set("status", models.PassExpired)
	if err := s.app.Save(record); err != nil {
		slog.Error("failed to persist pass expiry", "pass", pass.PassID, "error", err)
	}
}
