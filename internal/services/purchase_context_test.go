package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightning-pass/internal/status"
)

func TestPurchaseContextMetadataRoundTrip(t *testing.T) {
	pc := testContext()

	got, err := ContextFromMetadata(pc.ToMetadata())
	require.NoError(t, err)

	assert.Equal(t, pc.VenueID, got.VenueID)
	assert.Equal(t, pc.VenueName, got.VenueName)
	assert.Equal(t, pc.Email, got.Email)
	assert.Equal(t, pc.Phone, got.Phone)
	assert.Equal(t, pc.Quantity, got.Quantity)
	assert.Equal(t, pc.TemplateID, got.TemplateID)
	assert.Equal(t, pc.PassName, got.PassName)
	assert.True(t, pc.UnitPrice.Equal(got.UnitPrice))
	assert.True(t, pc.Subtotal.Equal(got.Subtotal))
	assert.Equal(t, pc.DiscountPercent, got.DiscountPercent)
	assert.True(t, pc.Total.Equal(got.Total))
}

func TestPurchaseContextMetadataPlatformTag(t *testing.T) {
	md := testContext().ToMetadata()
	assert.Equal(t, "lightning-pass", md["platform"])
}

func TestContextFromMetadataRejectsForeignIntent(t *testing.T) {
	cases := []struct {
		name string
		md   map[string]string
	}{
		{"nil metadata", nil},
		{"empty metadata", map[string]string{}},
		{"no venue", map[string]string{"quantity": "2"}},
		{"no quantity", map[string]string{"venue_id": "venue123"}},
		{"garbage quantity", map[string]string{"venue_id": "venue123", "quantity": "lots"}},
		{"zero quantity", map[string]string{"venue_id": "venue123", "quantity": "0"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ContextFromMetadata(tc.md)
			assert.ErrorIs(t, err, status.ErrContextMissing)
		})
	}
}
