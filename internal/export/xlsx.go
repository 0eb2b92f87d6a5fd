// Package export renders filtered booking views to spreadsheet files for
// the admin/partner dashboards.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"expertrait/internal/bookingview"
	"expertrait/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// Writer writes XLSX exports under a configured directory.
type Writer struct {
	path   string
	loc    *time.Location
	logger *zerolog.Logger
}

func NewWriter(path string, loc *time.Location, logger *zerolog.Logger) *Writer {
	if loc == nil {
		loc = time.Local
	}
	return &Writer{path: path, loc: loc, logger: logger}
}

// WriteBookings renders one row per booking, in collection order, and saves
// the workbook as {role}-jobs-{date}.xlsx. It returns the file path.
func (w *Writer) WriteBookings(role models.Role, bookings []models.Booking, now time.Time) (string, error) {
	if err := os.MkdirAll(w.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Service", "Customer", "Handler", "Date", "Time", "Status", "Payment", "Address"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 2
		local := b.ServiceDateTime.In(w.loc)
		values := []any{
			b.ShortID(),
			b.ServiceName,
			b.CustomerName,
			b.HandlerName,
			local.Format(models.ExportDateLayout),
			local.Format(models.ExportTimeLayout),
			string(b.Status),
			models.CurrencySymbol + b.Price.StringFixed(2),
			b.Address,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "D", 22)
	_ = f.SetColWidth(sheetName, "E", "H", 14)
	_ = f.SetColWidth(sheetName, "I", "I", 30)

	_ = f.DeleteSheet("Sheet1")

	fileName := bookingview.ExportFilename(role, models.FormatXLSX, now, w.loc)
	filePath := filepath.Join(w.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	w.logger.Info().Str("file_path", filePath).Int("rows", len(bookings)).Msg("xlsx export created")
	return filePath, nil
}
