// Package bookingview turns raw backend booking records into the filtered,
// exportable views the customer and handler dashboards render. Every
// function here is pure: the collection and filter state are owned by the
// caller, time is injected, and nothing is mutated in place.
package bookingview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"expertrait/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrInvalidServiceDate marks a record whose service timestamp could not be
// parsed. Such records are dropped from the collection entirely so a single
// malformed date cannot poison downstream bucket classification.
var ErrInvalidServiceDate = errors.New("invalid service date")

// AnomalyKind classifies a normalization warning.
type AnomalyKind string

const (
	AnomalyInvalidDate   AnomalyKind = "invalid_date"
	AnomalyUnknownStatus AnomalyKind = "unknown_status"
	AnomalyInvalidPrice  AnomalyKind = "invalid_price"
)

// Anomaly is a structured, non-fatal normalization warning. RecordID is the
// raw record's id, or a positional reference when the id itself is unusable.
type Anomaly struct {
	Kind     AnomalyKind `json:"kind"`
	RecordID string      `json:"record_id"`
	Field    string      `json:"field"`
	Value    string      `json:"value,omitempty"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize coerces one raw JSON-decoded record into the canonical Booking
// shape. Missing display fields become empty strings, an unknown status is
// coerced to pending and a bad or negative price to zero, each with an
// anomaly. An unparseable service timestamp fails the whole record with
// ErrInvalidServiceDate.
func Normalize(raw map[string]any) (models.Booking, []Anomaly, error) {
	var anomalies []Anomaly

	b := models.Booking{
		ID:           stringField(raw, "id"),
		ServiceName:  stringField(raw, "serviceName", "service_name"),
		CustomerName: stringField(raw, "customerName", "customer_name"),
		HandlerName:  stringField(raw, "handlerName", "handler_name"),
		Address:      stringField(raw, "address"),
	}

	rawDate := stringField(raw, "serviceDateTime", "service_date_time")
	when, ok := parseServiceDate(rawDate)
	if !ok {
		anomalies = append(anomalies, Anomaly{
			Kind:     AnomalyInvalidDate,
			RecordID: b.ID,
			Field:    "serviceDateTime",
			Value:    rawDate,
		})
		return models.Booking{}, anomalies, fmt.Errorf("record %q: %w", b.ID, ErrInvalidServiceDate)
	}
	b.ServiceDateTime = when

	rawStatus := stringField(raw, "status")
	status := models.BookingStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if !status.Valid() {
		anomalies = append(anomalies, Anomaly{
			Kind:     AnomalyUnknownStatus,
			RecordID: b.ID,
			Field:    "status",
			Value:    rawStatus,
		})
		status = models.StatusPending
	}
	b.Status = status

	price, priceOK := parsePrice(raw["price"])
	if !priceOK {
		anomalies = append(anomalies, Anomaly{
			Kind:     AnomalyInvalidPrice,
			RecordID: b.ID,
			Field:    "price",
			Value:    fmt.Sprintf("%v", raw["price"]),
		})
	}
	b.Price = price

	return b, anomalies, nil
}

// NormalizeAll is best-effort over a whole collection: it returns as many
// valid bookings as possible plus the side list of anomalies, and never
// fails. Anomalies for records without a usable id are tagged by index.
func NormalizeAll(raws []map[string]any, logger *zerolog.Logger) ([]models.Booking, []Anomaly) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	bookings := make([]models.Booking, 0, len(raws))
	var anomalies []Anomaly

	for i, raw := range raws {
		booking, recordAnomalies, err := Normalize(raw)
		for _, a := range recordAnomalies {
			if a.RecordID == "" {
				a.RecordID = fmt.Sprintf("index:%d", i)
			}
			anomalies = append(anomalies, a)
			logger.Warn().
				Str("kind", string(a.Kind)).
				Str("record_id", a.RecordID).
				Str("field", a.Field).
				Str("value", a.Value).
				Msg("booking normalization anomaly")
		}
		if err != nil {
			continue
		}
		bookings = append(bookings, booking)
	}

	return bookings, anomalies
}

func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func parseServiceDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parsePrice coerces the loosely-typed backend price into a non-negative
// decimal. The second return is false when the value needed coercion.
func parsePrice(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, true
	case float64:
		d := decimal.NewFromFloat(val)
		if d.IsNegative() {
			return decimal.Zero, false
		}
		return d, true
	case int:
		if val < 0 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(val)), true
	case int64:
		if val < 0 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(val), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil || d.IsNegative() {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
