package bookingview

import (
	"testing"

	"expertrait/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		raw := map[string]any{
			"id":              "abc12345678",
			"serviceName":     "Deep Clean",
			"customerName":    "Ada",
			"handlerName":     "Bob",
			"serviceDateTime": "2024-05-01T10:00:00Z",
			"status":          "confirmed",
			"price":           45.5,
			"address":         "1 High St",
		}

		b, anomalies, err := Normalize(raw)
		require.NoError(t, err)
		assert.Empty(t, anomalies)
		assert.Equal(t, "abc12345678", b.ID)
		assert.Equal(t, models.StatusConfirmed, b.Status)
		assert.Equal(t, "45.50", b.Price.StringFixed(2))
		assert.Equal(t, 2024, b.ServiceDateTime.Year())
	})

	t.Run("missing display fields become empty", func(t *testing.T) {
		b, anomalies, err := Normalize(map[string]any{
			"id":              "x1",
			"status":          "pending",
			"serviceDateTime": "2024-05-01T10:00:00Z",
		})
		require.NoError(t, err)
		assert.Empty(t, anomalies)
		assert.Equal(t, "", b.ServiceName)
		assert.Equal(t, "", b.CustomerName)
		assert.Equal(t, "", b.Address)
		assert.True(t, b.Price.Equal(decimal.Zero))
	})

	t.Run("unknown status coerces to pending", func(t *testing.T) {
		b, anomalies, err := Normalize(map[string]any{
			"id":              "x",
			"status":          "bogus_status",
			"serviceDateTime": "2024-05-01T10:00:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, b.Status)
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyUnknownStatus, anomalies[0].Kind)
		assert.Equal(t, "x", anomalies[0].RecordID)
		assert.Equal(t, "bogus_status", anomalies[0].Value)
	})

	t.Run("unparseable date drops the record", func(t *testing.T) {
		_, anomalies, err := Normalize(map[string]any{
			"id":              "y",
			"status":          "pending",
			"serviceDateTime": "not-a-date",
		})
		require.ErrorIs(t, err, ErrInvalidServiceDate)
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyInvalidDate, anomalies[0].Kind)
		assert.Equal(t, "y", anomalies[0].RecordID)
	})

	t.Run("negative price clamps to zero", func(t *testing.T) {
		b, anomalies, err := Normalize(map[string]any{
			"id":              "z",
			"status":          "pending",
			"serviceDateTime": "2024-05-01T10:00:00Z",
			"price":           -5.0,
		})
		require.NoError(t, err)
		assert.Equal(t, "0.00", b.Price.StringFixed(2))
		require.Len(t, anomalies, 1)
		assert.Equal(t, AnomalyInvalidPrice, anomalies[0].Kind)
	})

	t.Run("string price accepted", func(t *testing.T) {
		b, anomalies, err := Normalize(map[string]any{
			"id":              "s",
			"status":          "pending",
			"serviceDateTime": "2024-05-01T10:00:00Z",
			"price":           "120.00",
		})
		require.NoError(t, err)
		assert.Empty(t, anomalies)
		assert.Equal(t, "120.00", b.Price.StringFixed(2))
	})

	t.Run("snake_case field names accepted", func(t *testing.T) {
		b, _, err := Normalize(map[string]any{
			"id":                "sn",
			"service_name":      "Boiler Repair",
			"handler_name":      "Eve",
			"status":            "completed",
			"service_date_time": "2024-05-01 10:00:00",
		})
		require.NoError(t, err)
		assert.Equal(t, "Boiler Repair", b.ServiceName)
		assert.Equal(t, "Eve", b.HandlerName)
	})
}

func TestNormalizeAll(t *testing.T) {
	raws := []map[string]any{
		{"id": "good", "status": "completed", "serviceDateTime": "2024-05-01T10:00:00Z", "price": 45},
		{"id": "bad-date", "status": "pending", "serviceDateTime": "not-a-date"},
		{"status": "pending", "serviceDateTime": "also-bad"},
		{"id": "weird", "status": "unknown_thing", "serviceDateTime": "2024-05-02T10:00:00Z", "price": -1},
	}

	bookings, anomalies := NormalizeAll(raws, nil)

	require.Len(t, bookings, 2)
	assert.Equal(t, "good", bookings[0].ID)
	assert.Equal(t, "weird", bookings[1].ID)

	// One dropped record each for the two bad dates, plus status and price
	// anomalies on the surviving "weird" record.
	require.Len(t, anomalies, 4)
	assert.Equal(t, "bad-date", anomalies[0].RecordID)
	assert.Equal(t, "index:2", anomalies[1].RecordID)
}
