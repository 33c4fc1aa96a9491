package status

import "errors"

// Category classifies an error for the HTTP boundary. Handlers map
// categories onto response codes so presentation code never inspects
// raw upstream errors.
type Category int

const (
	CategoryInternal Category = iota
	CategoryValidation
	CategoryNotFound
	CategoryConflict
	CategoryUnauthorized
	CategoryUpstream
)

var (
	// Purchase preconditions.
	ErrInvalidQuantity      = errors.New("purchase: quantity must be between 1 and 10")
	ErrVenueNotFound        = errors.New("venue: venue not found")
	ErrVenueNotApproved     = errors.New("venue: venue is not approved for sales")
	ErrVenueInactive        = errors.New("venue: venue is not selling passes right now")
	ErrPayoutAccountMissing = errors.New("venue: venue has not connected a payout account")
	ErrInsufficientPasses   = errors.New("venue: not enough passes available")
	ErrTemplateNotFound     = errors.New("template: pass template not found")
	ErrTemplateInactive     = errors.New("template: pass template is not active")
	ErrPriceOutOfBounds     = errors.New("pricing: price must be between $10 and $500")

	// Fulfillment.
	ErrPaymentIncomplete = errors.New("payment: payment has not succeeded")
	ErrContextMissing    = errors.New("payment: purchase context missing from payment intent")

	// Redemption.
	ErrPassNotFound  = errors.New("pass: pass not found")
	ErrPassNotActive = errors.New("pass: pass already used or expired")
	ErrPassExpired   = errors.New("pass: pass expired")

	// Refunds.
	ErrAlreadyRefunded      = errors.New("refund: pass already refunded")
	ErrRefundPending        = errors.New("refund: a refund request is already pending for this pass")
	ErrReasonTooShort       = errors.New("refund: a reason of at least 10 characters is required")
	ErrNotPassOwner         = errors.New("refund: pass does not belong to the requester")
	ErrRequestNotFound      = errors.New("refund: refund request not found")
	ErrRequestResolved      = errors.New("refund: refund request already resolved")
	ErrDenialReasonRequired = errors.New("refund: a denial reason is required")
	ErrPassUsed             = errors.New("refund: used passes cannot be refunded by the customer")

	// Webhooks and settings.
	ErrInvalidSignature  = errors.New("webhook: invalid event signature")
	ErrSettingOutOfRange = errors.New("settings: discount must be between 0 and 100")
)

// Categorize maps a sentinel error to its boundary category.
func Categorize(err error) Category {
	switch {
	case err == nil:
		return CategoryInternal
	case errors.Is(err, ErrVenueNotFound),
		errors.Is(err, ErrTemplateNotFound),
		errors.Is(err, ErrPassNotFound),
		errors.Is(err, ErrRequestNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrInsufficientPasses),
		errors.Is(err, ErrAlreadyRefunded),
		errors.Is(err, ErrRefundPending),
		errors.Is(err, ErrRequestResolved),
		errors.Is(err, ErrPassNotActive),
		errors.Is(err, ErrPassExpired),
		errors.Is(err, ErrPassUsed):
		return CategoryConflict
	case errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrNotPassOwner):
		return CategoryUnauthorized
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrVenueNotApproved),
		errors.Is(err, ErrVenueInactive),
		errors.Is(err, ErrPayoutAccountMissing),
		errors.Is(err, ErrTemplateInactive),
		errors.Is(err, ErrPriceOutOfBounds),
		errors.Is(err, ErrReasonTooShort),
		errors.Is(err, ErrDenialReasonRequired),
		errors.Is(err, ErrSettingOutOfRange),
		errors.Is(err, ErrPaymentIncomplete),
		errors.Is(err, ErrContextMissing):
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
