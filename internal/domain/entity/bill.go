package entity

import (
	"github.com/shopspring/decimal"
)

// ChargeKey identifies a charge category independent of per-period tier counts,
// e.g. "Distribution Charge First kWh"
type ChargeKey string

// RawChargeLine is one matched line of a charge table
type RawChargeLine struct {
	Description string          `json:"description"`
	Rate        string          `json:"rate,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// ConsolidatedCharge is the per-document total for one charge key.
// Amount is the sum of every matching line; Rate is the first non-empty rate seen.
type ConsolidatedCharge struct {
	Key    ChargeKey       `json:"key"`
	Amount decimal.Decimal `json:"amount"`
	Rate   string          `json:"rate,omitempty"`
}

// BillMetadata is read from the first page. Empty fields are valid.
type BillMetadata struct {
	PeriodMonthYear string `json:"period_month_year"`
	// Identifier is the account holder name or account number; it never leaves
	// the process in the clear, only its hash does (BillRecord.UserID).
	Identifier string `json:"-"`
}

// BillRecord is the output of one processed upload
type BillRecord struct {
	UserID      string               `json:"user_id"`
	BillID      string               `json:"bill_id"`
	ContentHash string               `json:"content_hash"`
	Metadata    BillMetadata         `json:"metadata"`
	Charges     []ConsolidatedCharge `json:"charges"`
}

// Charge returns the consolidated charge for key, if present
func (r *BillRecord) Charge(key ChargeKey) (ConsolidatedCharge, bool) {
	for _, c := range r.Charges {
		if c.Key == key {
			return c, true
		}
	}
	return ConsolidatedCharge{}, false
}

// SheetRow is a record flattened into named columns. Columns holds the
// order in which previously unseen columns should be appended to the sheet.
type SheetRow struct {
	Columns []string
	Values  map[string]string
}

// Get returns the value of a column, or "" when absent
func (r SheetRow) Get(column string) string {
	return r.Values[column]
}

// ToSheetRow flattens the record into the sheet column layout: the four base
// columns followed by "<key> Amount" and, when a rate was seen, "<key> Rate"
// for every charge in first-seen order.
func (r *BillRecord) ToSheetRow() SheetRow {
	row := SheetRow{
		Columns: make([]string, 0, len(BaseColumns)+2*len(r.Charges)),
		Values:  make(map[string]string, len(BaseColumns)+2*len(r.Charges)),
	}

	set := func(column, value string) {
		if _, exists := row.Values[column]; !exists {
			row.Columns = append(row.Columns, column)
		}
		row.Values[column] = value
	}

	set(ColumnUserID, r.UserID)
	set(ColumnBillID, r.BillID)
	set(ColumnBillMonthYear, r.Metadata.PeriodMonthYear)
	set(ColumnBillHash, r.ContentHash)

	for _, c := range r.Charges {
		set(string(c.Key)+AmountColumnSuffix, c.Amount.String())
		if c.Rate != "" {
			set(string(c.Key)+RateColumnSuffix, c.Rate)
		}
	}

	return row
}
