package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() *PurchaseContext {
	return &PurchaseContext{
		VenueID:         "venue123",
		VenueName:       "Neon Owl",
		Email:           "buyer@example.com",
		Phone:           "+15550001111",
		Quantity:        2,
		TemplateID:      "tmpl456",
		PassName:        "VIP Skip Line",
		UnitPrice:       decimal.NewFromInt(40),
		Subtotal:        decimal.NewFromInt(80),
		DiscountPercent: 10,
		Total:           decimal.NewFromInt(72),
	}
}

// HSet with a map flattens fields in map-iteration order, so the
// expectation compares pairs rather than positions.
func matchHashPairs(expected, actual []interface{}) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("want %d args, got %d", len(expected), len(actual))
	}
	if len(actual) < 2 || fmt.Sprint(expected[0]) != fmt.Sprint(actual[0]) || fmt.Sprint(expected[1]) != fmt.Sprint(actual[1]) {
		return fmt.Errorf("command/key mismatch: %v vs %v", expected[:2], actual[:2])
	}
	want := map[string]string{}
	for i := 2; i+1 < len(expected); i += 2 {
		want[fmt.Sprint(expected[i])] = fmt.Sprint(expected[i+1])
	}
	for i := 2; i+1 < len(actual); i += 2 {
		field := fmt.Sprint(actual[i])
		if want[field] != fmt.Sprint(actual[i+1]) {
			return fmt.Errorf("field %s: want %q, got %q", field, want[field], fmt.Sprint(actual[i+1]))
		}
		delete(want, field)
	}
	if len(want) > 0 {
		return fmt.Errorf("missing fields: %v", want)
	}
	return nil
}

func TestPurchaseCacheStore(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cache := NewPurchaseCache(client, 15*time.Minute)
	pc := testContext()

	fields := make(map[string]interface{})
	for k, v := range pc.ToMetadata() {
		fields[k] = v
	}
	redisMock.CustomMatch(matchHashPairs).
		ExpectHSet("purchase:pi_abc", fields).
		SetVal(int64(len(fields)))
	redisMock.ExpectExpire("purchase:pi_abc", 15*time.Minute).SetVal(true)

	err := cache.Store(context.Background(), "pi_abc", pc)
	require.NoError(t, err)
	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestPurchaseCacheFetchHit(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cache := NewPurchaseCache(client, 15*time.Minute)
	pc := testContext()

	redisMock.ExpectHGetAll("purchase:pi_abc").SetVal(pc.ToMetadata())

	got, err := cache.Fetch(context.Background(), "pi_abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pc.VenueID, got.VenueID)
	assert.Equal(t, pc.Quantity, got.Quantity)
	assert.True(t, pc.Total.Equal(got.Total))
	assert.Equal(t, pc.DiscountPercent, got.DiscountPercent)
	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestPurchaseCacheFetchMiss(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cache := NewPurchaseCache(client, 15*time.Minute)

	redisMock.ExpectHGetAll("purchase:pi_gone").SetVal(map[string]string{})

	got, err := cache.Fetch(context.Background(), "pi_gone")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestPurchaseCacheDelete(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cache := NewPurchaseCache(client, 15*time.Minute)

	redisMock.ExpectDel("purchase:pi_abc").SetVal(1)

	cache.Delete(context.Background(), "pi_abc")
	require.NoError(t, redisMock.ExpectationsWereMet())
}
