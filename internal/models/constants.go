package models

const (
	// ShortIDLength is the number of trailing id characters shown in
	// dashboards and exports.
	ShortIDLength = 8

	// CurrencySymbol prefixes every exported payment amount.
	CurrencySymbol = "£"

	// ExportDateLayout and ExportTimeLayout render a booking's service
	// timestamp as separate date-only and time-only export columns.
	ExportDateLayout = "02/01/2006"
	ExportTimeLayout = "15:04"

	// ExportFileDateLayout names export files by evaluation date.
	ExportFileDateLayout = "2006-01-02"
)

const (
	// DefaultStateTTL is the lifetime of server-held viewer filter state
	// in seconds. 24 hours.
	DefaultStateTTL = 24 * 60 * 60

	// ExportQueueSize bounds the async export worker queue.
	ExportQueueSize = 100

	// RateLimitRPS and RateLimitBurst are the API rate limit defaults.
	RateLimitRPS   = 10
	RateLimitBurst = 20
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)
