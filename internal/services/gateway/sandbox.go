package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// Sandbox is an in-memory Gateway for development and tests. It keeps
// intent state under a mutex and mimics the processor's lifecycle:
// intents start unconfirmed, confirmation mints a charge, refunds are
// single-shot per intent.
type Sandbox struct {
	mu            sync.Mutex
	intents       map[string]*Intent
	refunds       map[string]*Refund
	failTransfers map[string]bool
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		intents:       make(map[string]*Intent),
		refunds:       make(map[string]*Refund),
		failTransfers: make(map[string]bool),
	}
}

// FailTransfersTo makes subsequent Transfer calls to destination fail.
// Test hook for partial-success payout batches.
func (s *Sandbox) FailTransfersTo(destination string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTransfers[destination] = true
}

func (s *Sandbox) CreateSplitIntent(_ context.Context, req CreateIntentRequest) (*Intent, error) {
	if req.AmountCents <= 0 {
		return nil, errors.New("sandbox: amount must be positive")
	}
	if req.Destination == "" {
		return nil, errors.New("sandbox: split intent requires a destination")
	}

	id := "pi_" + randomHex(12)
	intent := &Intent{
		ID:             id,
		ClientSecret:   id + "_secret_" + randomHex(8),
		Status:         StatusRequiresPayment,
		Amount:         req.AmountCents,
		ApplicationFee: req.AmountCents * req.FeePercent / 100,
		Destination:    req.Destination,
		ReceiptEmail:   req.ReceiptEmail,
		Metadata:       map[string]string{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[id] = intent
	return snapshot(intent), nil
}

func (s *Sandbox) AttachMetadata(_ context.Context, intentID string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[intentID]
	if !ok {
		return fmt.Errorf("sandbox: no such intent %s", intentID)
	}
	for k, v := range metadata {
		intent.Metadata[k] = v
	}
	return nil
}

func (s *Sandbox) RetrieveIntent(_ context.Context, intentID string) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("sandbox: no such intent %s", intentID)
	}
	return snapshot(intent), nil
}

func (s *Sandbox) ConfirmIntent(_ context.Context, intentID, _ string) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("sandbox: no such intent %s", intentID)
	}
	if intent.Status == StatusCanceled {
		return nil, fmt.Errorf("sandbox: intent %s is canceled", intentID)
	}
	if intent.Status.NeedsConfirmation() {
		intent.Status = StatusSucceeded
		intent.ChargeID = "ch_" + randomHex(12)
	}
	return snapshot(intent), nil
}

func (s *Sandbox) RefundIntent(_ context.Context, intentID string, reverseTransfer bool) (*Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("sandbox: no such intent %s", intentID)
	}
	if intent.Status != StatusSucceeded {
		return nil, fmt.Errorf("sandbox: intent %s has no charge to refund", intentID)
	}
	if _, dup := s.refunds[intentID]; dup {
		return nil, fmt.Errorf("sandbox: intent %s already refunded", intentID)
	}

	refund := &Refund{
		ID:               "re_" + randomHex(12),
		IntentID:         intentID,
		Amount:           intent.Amount,
		TransferReversed: reverseTransfer,
	}
	s.refunds[intentID] = refund
	return refund, nil
}

func (s *Sandbox) Transfer(_ context.Context, destination string, amountCents int64, _ string) (string, error) {
	if amountCents <= 0 {
		return "", errors.New("sandbox: transfer amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTransfers[destination] {
		return "", fmt.Errorf("sandbox: transfer to %s rejected", destination)
	}
	return "tr_" + randomHex(12), nil
}

// CancelIntent flips an unconfirmed intent to canceled. Test hook for
// payment-incomplete paths.
func (s *Sandbox) CancelIntent(intentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if intent, ok := s.intents[intentID]; ok {
		intent.Status = StatusCanceled
	}
}

func snapshot(intent *Intent) *Intent {
	out := *intent
	out.Metadata = make(map[string]string, len(intent.Metadata))
	for k, v := range intent.Metadata {
		out.Metadata[k] = v
	}
	return &out
}

func randomHex(n int) string {
	byt := make([]byte, n)
	rand.Read(byt)
	return hex.EncodeToString(byt)
}
