package bookingview

import (
	"fmt"
	"strings"
	"time"

	"expertrait/internal/models"
)

// Header is the fixed CSV column order. The header row is emitted verbatim
// and unquoted.
const Header = "ID,Service,Customer,Date,Time,Status,Payment"

// ToCSV serializes a filtered view into CSV. Every data field is wrapped in
// double quotes with embedded quotes doubled, whether or not it contains a
// comma. Rows are joined with \n and there is no trailing newline, so an
// empty view yields the header line alone. Dates and times render in loc
// (nil means the system's local zone).
func ToCSV(bookings []models.Booking, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	var sb strings.Builder
	sb.WriteString(Header)
	for _, b := range bookings {
		local := b.ServiceDateTime.In(loc)
		fields := []string{
			b.ShortID(),
			b.ServiceName,
			b.CustomerName,
			local.Format(models.ExportDateLayout),
			local.Format(models.ExportTimeLayout),
			string(b.Status),
			models.CurrencySymbol + b.Price.StringFixed(2),
		}
		sb.WriteByte('\n')
		for i, f := range fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(quote(f))
		}
	}
	return sb.String()
}

// ExportFilename names a downloaded export after the viewer role and the
// evaluation date: {role}-jobs-{YYYY-MM-DD}.{format}.
func ExportFilename(role models.Role, format string, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("%s-jobs-%s.%s", role, now.In(loc).Format(models.ExportFileDateLayout), format)
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
