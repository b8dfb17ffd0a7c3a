package sheets

import "context"

// Table is the outbound port for one ordered external table (a spreadsheet
// tab, an in-memory grid or a sqlite row table). Row indices are 1-based
// and include the header row. The port deliberately mirrors the small set
// of primitives the Sheets API offers; nothing here is transactional.
type Table interface {
	// GetRows returns every row, header included. Cleared rows come back
	// empty (zero cells or all-blank cells); callers skip them.
	GetRows(ctx context.Context) ([][]string, error)

	// AppendRow adds values as the new last row.
	AppendRow(ctx context.Context, values []string) error

	// UpdateRow overwrites the row at index. Writing one past the current
	// last row is allowed and extends the table.
	UpdateRow(ctx context.Context, index int, values []string) error

	// InsertRowBefore inserts a blank row at index, shifting index and
	// everything below it down by one.
	InsertRowBefore(ctx context.Context, index int) error

	// ClearRow blanks the row at index without shifting positions.
	ClearRow(ctx context.Context, index int) error
}

// Tables hands out the named tables of one backing store.
type Tables interface {
	Table(name string) Table
}
