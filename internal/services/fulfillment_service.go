package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"lightning-pass/internal/services/gateway"
	"lightning-pass/internal/services/notify"
	"lightning-pass/internal/status"
	"lightning-pass/models"
	"lightning-pass/monitoring"
	"lightning-pass/utils"
)

// FulfillmentService owns the payment-to-pass protocol: phase 1 creates
// a split payment intent carrying the purchase context, phase 2 turns a
// succeeded intent into exactly one pass. All ledger mutation lives in
// phase 2; the webhook path only observes.
type FulfillmentService struct {
	app      core.App
	gw       gateway.Gateway
	notifier notify.Notifier
	cache    *PurchaseCache
	monitor  *monitoring.Monitor

	feePercent    int64
	passValidity  time.Duration
	webhookSecret string
}

func NewFulfillmentService(
	app core.App,
	gw gateway.Gateway,
	notifier notify.Notifier,
	cache *PurchaseCache,
	monitor *monitoring.Monitor,
	feePercent int64,
	passValidity time.Duration,
	webhookSecret string,
) *FulfillmentService {
	return &FulfillmentService{
		app:           app,
		gw:            gw,
		notifier:      notifier,
		cache:         cache,
		monitor:       monitor,
		feePercent:    feePercent,
		passValidity:  passValidity,
		webhookSecret: webhookSecret,
	}
}

type InitiatePurchaseRequest struct {
	VenueID    string `json:"venue_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Quantity   int    `json:"quantity"`
	TemplateID string `json:"template_id"`
}

// InitiateResult is the client-facing payment handle. No pass or
// transaction exists yet.
type InitiateResult struct {
	IntentID        string          `json:"payment_intent"`
	ClientSecret    string          `json:"client_secret"`
	Amount          decimal.Decimal `json:"amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent int             `json:"discount_percent"`
	PassName        string          `json:"pass_name,omitempty"`
}

// InitiatePurchase runs phase 1. Preconditions are checked in order,
// first failure wins; on success the gateway intent carries the full
// purchase context in its metadata so phase 2 needs nothing else.
func (s *FulfillmentService) InitiatePurchase(ctx context.Context, req InitiatePurchaseRequest) (*InitiateResult, error) {
	if req.Quantity < 1 || req.Quantity > models.DefaultMaxPerPurchase {
		return nil, status.ErrInvalidQuantity
	}

	venueRecord, err := s.app.FindRecordById(models.CollectionVenues, req.VenueID)
	if err != nil {
		return nil, status.ErrVenueNotFound
	}
	venue := models.VenueFromRecord(venueRecord)

	if err := venue.CheckSellable(req.Quantity); err != nil {
		return nil, err
	}

	var tmpl *models.PassTemplate
	if req.TemplateID != "" {
		tmplRecord, err := s.app.FindRecordById(models.CollectionPassTemplates, req.TemplateID)
		if err != nil {
			return nil, status.ErrTemplateNotFound
		}
		tmpl = models.PassTemplateFromRecord(tmplRecord)
	}

	quote, err := models.ResolveQuote(venue, tmpl, req.Quantity, s.promotionalDiscount())
	if err != nil {
		return nil, err
	}

	intent, err := s.gw.CreateSplitIntent(ctx, gateway.CreateIntentRequest{
		AmountCents:  models.MinorUnits(quote.Total),
		ReceiptEmail: req.Email,
		Destination:  venue.PayoutAccount,
		FeePercent:   s.feePercent,
	})
	if err != nil {
		s.monitor.TrackPurchaseFailure("create_intent")
		return nil, fmt.Errorf("fulfillment: create intent: %w", err)
	}

	pc := contextFromQuote(venue, req.Email, req.Phone, quote)
	if err := s.gw.AttachMetadata(ctx, intent.ID, pc.ToMetadata()); err != nil {
		s.monitor.TrackPurchaseFailure("attach_metadata")
		return nil, fmt.Errorf("fulfillment: attach metadata: %w", err)
	}

	// Cache write is best-effort; the intent metadata is authoritative.
	if s.cache != nil {
		if err := s.cache.Store(ctx, intent.ID, pc); err != nil {
			slog.Warn("purchase context cache write failed", "intent", intent.ID, "error", err)
		}
	}

	s.monitor.TrackPurchaseInitiated(venue.ID)
	slog.Info("purchase initiated",
		"venue", venue.ID, "intent", intent.ID,
		"quantity", req.Quantity, "total", quote.Total)

	return &InitiateResult{
		IntentID:        intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          quote.Total,
		Subtotal:        quote.Subtotal,
		DiscountPercent: quote.DiscountPercent,
		PassName:        quote.PassName,
	}, nil
}

// ConfirmResult reports the minted (or previously minted) pass.
type ConfirmResult struct {
	Pass      *models.Pass `json:"pass"`
	Duplicate bool         `json:"duplicate"`
}

// errDuplicateIntent marks a unique-index violation on the idempotency
// key inside the fulfillment transaction.
var errDuplicateIntent = errors.New("fulfillment: pass already exists for intent")

// ConfirmPurchase runs phase 2. Safe to call any number of times for
// the same intent: at most one pass is ever minted, every later call
// returns it unchanged.
func (s *FulfillmentService) ConfirmPurchase(ctx context.Context, intentID, email, phone string) (*ConfirmResult, error) {
	if existing := s.findPassByIntent(intentID); existing != nil {
		s.monitor.TrackDuplicateConfirm()
		return &ConfirmResult{Pass: existing, Duplicate: true}, nil
	}

	intent, err := s.gw.RetrieveIntent(ctx, intentID)
	if err != nil {
		s.monitor.TrackPurchaseFailure("retrieve_intent")
		return nil, fmt.Errorf("fulfillment: retrieve intent: %w", err)
	}

	// Sandbox convenience: auto-confirm once when the client never did.
	if intent.Status.NeedsConfirmation() {
		intent, err = s.gw.ConfirmIntent(ctx, intentID, "instr_test_visa")
		if err != nil {
			s.monitor.TrackPurchaseFailure("confirm_intent")
			return nil, fmt.Errorf("fulfillment: confirm intent: %w", err)
		}
	}
	if intent.Status != gateway.StatusSucceeded {
		s.monitor.TrackPurchaseFailure("payment_incomplete")
		return nil, status.ErrPaymentIncomplete
	}

	pc, err := s.recoverContext(ctx, intentID, intent)
	if err != nil {
		return nil, err
	}
	if email != "" {
		pc.Email = email
	}
	if phone != "" {
		pc.Phone = phone
	}

	venueRecord, err := s.app.FindRecordById(models.CollectionVenues, pc.VenueID)
	if err != nil {
		return nil, status.ErrVenueNotFound
	}
	venue := models.VenueFromRecord(venueRecord)

	amount := decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100))
	venueRevenue, platformFee := models.ComputeSplit(amount, s.feePercent)

	passID, err := utils.NewPassID()
	if err != nil {
		return nil, fmt.Errorf("fulfillment: pass id: %w", err)
	}
	code, err := utils.GenerateCode(16)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: pass code: %w", err)
	}
	validUntil := time.Now().Add(s.passValidity)

	var passRecord *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		passCollection, err := txApp.FindCollectionByNameOrId(models.CollectionPasses)
		if err != nil {
			return err
		}

		// The unique index on payment_intent makes a concurrent double
		// confirm fail here instead of minting twice.
		passRecord = core.NewRecord(passCollection)
		passRecord.Set("pass_id", passID)
		passRecord.Set("venue", venue.ID)
		passRecord.Set("venue_name", venue.Name)
		passRecord.Set("email", pc.Email)
		passRecord.Set("phone", pc.Phone)
		passRecord.Set("pass_name", pc.PassName)
		passRecord.Set("purchase_price", pc.UnitPrice.InexactFloat64())
		passRecord.Set("quantity", pc.Quantity)
		passRecord.Set("amount", amount.InexactFloat64())
		passRecord.Set("subtotal", pc.Subtotal.InexactFloat64())
		passRecord.Set("discount_percent", pc.DiscountPercent)
		passRecord.Set("code", code)
		passRecord.Set("status", models.PassActive)
		passRecord.Set("valid_until", validUntil)
		passRecord.Set("payment_intent", intentID)
		if err := txApp.Save(passRecord); err != nil {
			if isUniqueViolation(err, "payment_intent") {
				return errDuplicateIntent
			}
			return fmt.Errorf("save pass: %w", err)
		}

		// Conditional decrement: never below zero, even under race.
		res, err := txApp.DB().NewQuery(`
			UPDATE venues
			SET available_passes = available_passes - {:qty},
			    in_line = in_line + {:qty},
			    lifetime_revenue = lifetime_revenue + {:revenue}
			WHERE id = {:id} AND available_passes >= {:qty}
		`).Bind(dbx.Params{
			"qty":     pc.Quantity,
			"revenue": venueRevenue.InexactFloat64(),
			"id":      venue.ID,
		}).Execute()
		if err != nil {
			return fmt.Errorf("update venue counters: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return status.ErrInsufficientPasses
		}

		txCollection, err := txApp.FindCollectionByNameOrId(models.CollectionTransactions)
		if err != nil {
			return err
		}
		txRecord := core.NewRecord(txCollection)
		txRecord.Set("pass_id", passID)
		txRecord.Set("venue", venue.ID)
		txRecord.Set("venue_name", venue.Name)
		txRecord.Set("email", pc.Email)
		txRecord.Set("phone", pc.Phone)
		txRecord.Set("amount", amount.InexactFloat64())
		txRecord.Set("venue_revenue", venueRevenue.InexactFloat64())
		txRecord.Set("platform_fee", platformFee.InexactFloat64())
		txRecord.Set("charge_ref", intent.ChargeID)
		txRecord.Set("status", models.TransactionCompleted)
		if err := txApp.Save(txRecord); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		return nil
	})

	if errors.Is(txErr, errDuplicateIntent) {
		// A concurrent confirm won the race; return its pass.
		if existing := s.findPassByIntent(intentID); existing != nil {
			s.monitor.TrackDuplicateConfirm()
			return &ConfirmResult{Pass: existing, Duplicate: true}, nil
		}
		return nil, fmt.Errorf("fulfillment: duplicate intent %s but pass not found", intentID)
	}
	if txErr != nil {
		s.monitor.TrackPurchaseFailure("ledger_write")
		return nil, txErr
	}

	if s.cache != nil {
		s.cache.Delete(ctx, intentID)
	}
	s.monitor.TrackFulfillment(venue.ID)

	pass := models.PassFromRecord(passRecord)
	slog.Info("pass fulfilled",
		"pass", pass.PassID, "venue", venue.ID,
		"intent", intentID, "amount", amount)

	// Confirmation SMS is fire-and-forget; the ledger write above is
	// already committed and must not be affected.
	go s.sendConfirmation(venue, pass)

	return &ConfirmResult{Pass: pass}, nil
}

func (s *FulfillmentService) sendConfirmation(venue *models.Venue, pass *models.Pass) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	message := notify.PassConfirmation(
		venue.Name, venue.Tagline,
		pass.PassID, pass.PassName,
		pass.Quantity, pass.Amount, pass.ValidUntil,
	)
	if err := s.notifier.Send(ctx, pass.Phone, message); err != nil {
		s.monitor.TrackNotificationFailure()
		slog.Error("pass confirmation notification failed", "pass", pass.PassID, "error", err)
	}
}

// HandleWebhook authenticates a gateway event and records it. The
// handler never mutates the ledger: fulfillment is owned entirely by
// ConfirmPurchase's idempotent path, so there is no second writer to
// race with.
func (s *FulfillmentService) HandleWebhook(rawBody []byte, signature string) (*gateway.Event, error) {
	event, err := gateway.VerifyEvent(rawBody, signature, s.webhookSecret, gateway.DefaultEventTolerance)
	if err != nil {
		s.monitor.TrackWebhookEvent("unknown", "rejected")
		return nil, err
	}

	switch event.Type {
	case gateway.EventIntentSucceeded:
		s.monitor.TrackWebhookEvent(event.Type, "observed")
		if existing := s.findPassByIntent(event.IntentID); existing != nil {
			slog.Info("webhook: intent already fulfilled", "intent", event.IntentID, "pass", existing.PassID)
		} else {
			slog.Info("webhook: intent succeeded, awaiting confirm", "intent", event.IntentID)
		}
	case gateway.EventIntentFailed:
		s.monitor.TrackWebhookEvent(event.Type, "observed")
		slog.Info("webhook: intent failed", "intent", event.IntentID)
	default:
		s.monitor.TrackWebhookEvent(event.Type, "ignored")
	}
	return event, nil
}

func (s *FulfillmentService) findPassByIntent(intentID string) *models.Pass {
	record, err := s.app.FindFirstRecordByFilter(
		models.CollectionPasses,
		"payment_intent = {:intent}",
		dbx.Params{"intent": intentID},
	)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("pass lookup by intent failed", "intent", intentID, "error", err)
		}
		return nil
	}
	return models.PassFromRecord(record)
}

// recoverContext prefers the redis fast path and falls back to the
// intent's own metadata, which is authoritative.
func (s *FulfillmentService) recoverContext(ctx context.Context, intentID string, intent *gateway.Intent) (*PurchaseContext, error) {
	if s.cache != nil {
		if pc, err := s.cache.Fetch(ctx, intentID); err == nil && pc != nil {
			return pc, nil
		}
	}
	return ContextFromMetadata(intent.Metadata)
}

// promotionalDiscount reads the process-wide discount once per call so
// pricing never touches ambient state.
func (s *FulfillmentService) promotionalDiscount() int {
	record, err := s.app.FindFirstRecordByFilter(models.CollectionSettings, "key = 'system'")
	if err != nil {
		return 0
	}
	percent := record.GetInt("promotional_discount_percent")
	if percent < 0 || percent > 100 {
		return 0
	}
	return percent
}

// isUniqueViolation matches both the raw SQLite error and PocketBase's
// record-validation wrapping of a unique index hit. Both forms name the
// column, so the field filter keeps a collision on some other unique
// index from being mistaken for this one.
func isUniqueViolation(err error, field string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, field) {
		return false
	}
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "validation_not_unique")
}
