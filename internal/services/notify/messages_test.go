package notify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPassConfirmation(t *testing.T) {
	validUntil := time.Date(2026, 9, 2, 22, 0, 0, 0, time.UTC)

	msg := PassConfirmation("Neon Room", "DJ at 9pm", "LP-AB12CD", "VIP Unlimited", 2, decimal.RequireFromString("63.00"), validUntil)

	assert.Contains(t, msg, "Neon Room")
	assert.Contains(t, msg, "LP-AB12CD")
	assert.Contains(t, msg, "Passes: 2")
	assert.Contains(t, msg, "$63.00")
	assert.Contains(t, msg, "Type: VIP Unlimited")
	assert.Contains(t, msg, "DJ at 9pm")
}

func TestPassConfirmation_OmitsEmptyOptionalLines(t *testing.T) {
	msg := PassConfirmation("Neon Room", "", "LP-AB12CD", "", 1, decimal.NewFromInt(35), time.Now())

	assert.NotContains(t, msg, "Type:")
	assert.Contains(t, msg, "$35.00")
}

func TestRefundMessages(t *testing.T) {
	amount := decimal.RequireFromString("59.50")

	approved := RefundApproved("Neon Room", "LP-AB12CD", amount)
	assert.Contains(t, approved, "APPROVED")
	assert.Contains(t, approved, "$59.50")

	denied := RefundDenied("Neon Room", "LP-AB12CD", "Pass already scanned")
	assert.Contains(t, denied, "denied")
	assert.Contains(t, denied, "Pass already scanned")

	issued := RefundIssued("Neon Room", "LP-AB12CD", amount)
	assert.Contains(t, issued, "refund has been issued")
	assert.Contains(t, issued, "$59.50")
}
