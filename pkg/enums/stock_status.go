package enums

// StockStatus summarizes a branch inventory row for availability checks.
type StockStatus string

const (
	StockStatusAvailable   StockStatus = "available"
	StockStatusLowStock    StockStatus = "low_stock"
	StockStatusOutOfStock  StockStatus = "out_of_stock"
	StockStatusUnavailable StockStatus = "unavailable"
)

// IsValid reports whether the value is a known StockStatus.
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusAvailable, StockStatusLowStock, StockStatusOutOfStock, StockStatusUnavailable:
		return true
	default:
		return false
	}
}
