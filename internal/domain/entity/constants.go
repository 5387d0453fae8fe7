package entity

// Fixed sheet columns written ahead of the charge columns
const (
	ColumnUserID        = "User_ID"
	ColumnBillID        = "Bill_ID"
	ColumnBillMonthYear = "Bill_Month_Year"
	ColumnBillHash      = "Bill_Hash"
)

// Suffixes appended to a canonical charge key to form its sheet columns
const (
	AmountColumnSuffix = " Amount"
	RateColumnSuffix   = " Rate"
)

// BaseColumns is the column order every sheet starts with
var BaseColumns = []string{
	ColumnUserID,
	ColumnBillID,
	ColumnBillMonthYear,
	ColumnBillHash,
}
