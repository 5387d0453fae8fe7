package extraction

import (
	"github.com/garyjia/billwatch/internal/domain/entity"
)

// EmissionFilter decides whether a consolidated charge is emitted
type EmissionFilter func(entity.ConsolidatedCharge) bool

// KeepAll emits every charge
func KeepAll(entity.ConsolidatedCharge) bool { return true }

// DropZeroAmounts suppresses charges whose total is exactly zero
func DropZeroAmounts(c entity.ConsolidatedCharge) bool { return !c.Amount.IsZero() }

// FilterFor returns the emission filter selected by rules
func FilterFor(rules Rules) EmissionFilter {
	if rules.EmitZeroAmounts {
		return KeepAll
	}
	return DropZeroAmounts
}

// Consolidator folds normalized charge lines into one charge per key.
// Amounts add up; the rate is set by the first line that has one and is
// never overwritten. Keys keep first-seen order.
type Consolidator struct {
	order []entity.ChargeKey
	byKey map[entity.ChargeKey]*entity.ConsolidatedCharge
}

// NewConsolidator creates an empty consolidator
func NewConsolidator() *Consolidator {
	return &Consolidator{byKey: make(map[entity.ChargeKey]*entity.ConsolidatedCharge)}
}

// Add accumulates one line under key
func (c *Consolidator) Add(key entity.ChargeKey, line entity.RawChargeLine) {
	charge, ok := c.byKey[key]
	if !ok {
		charge = &entity.ConsolidatedCharge{Key: key}
		c.byKey[key] = charge
		c.order = append(c.order, key)
	}

	charge.Amount = charge.Amount.Add(line.Amount)
	if charge.Rate == "" && line.Rate != "" {
		charge.Rate = line.Rate
	}
}

// Len returns the number of distinct keys seen
func (c *Consolidator) Len() int {
	return len(c.order)
}

// Charges returns the consolidated charges in first-seen order, keeping only
// those accepted by filter (nil keeps all)
func (c *Consolidator) Charges(filter EmissionFilter) []entity.ConsolidatedCharge {
	if filter == nil {
		filter = KeepAll
	}

	out := make([]entity.ConsolidatedCharge, 0, len(c.order))
	for _, key := range c.order {
		charge := *c.byKey[key]
		if filter(charge) {
			out = append(out, charge)
		}
	}
	return out
}
