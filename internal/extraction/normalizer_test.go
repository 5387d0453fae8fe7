package extraction

import (
	"testing"

	"github.com/garyjia/billwatch/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestNormalizer_Normalize(t *testing.T) {
	normalizer := NewNormalizer(DefaultRules())

	tests := []struct {
		name        string
		description string
		want        entity.ChargeKey
	}{
		{name: "exact name", description: "Customer Charge", want: "Customer Charge"},
		{name: "case insensitive", description: "CUSTOMER CHARGE", want: "Customer Charge"},
		{name: "first tier", description: "Distribution Charge First 500 kWh", want: "Distribution Charge First kWh"},
		{name: "last tier", description: "Distribution Charge Last 1980 kWh", want: "Distribution Charge Last kWh"},
		{name: "last tier other count", description: "Distribution Charge Last 2190 kWh", want: "Distribution Charge Last kWh"},
		{name: "next tier", description: "Distribution Charge Next 1,000 kWh", want: "Distribution Charge Next kWh"},
		{name: "untiered distribution", description: "Distribution Charge", want: "Distribution Charge"},
		{name: "mixed case vocabulary", description: "Empower Maryland Charge", want: "EmPOWER Maryland Charge"},
		{name: "section total", description: "Total Electric Charges - Residential Service", want: "Total Electric Charges - Residential Service"},
		{name: "fallback strips tier", description: "Transmission Charge First 500 kWh", want: "Transmission Charge kWh"},
		{name: "fallback keeps kW unit", description: "Demand Charge Next 12 kW", want: "Demand Charge kW"},
		{name: "fallback collapses whitespace", description: "Renewable   Energy  Rider", want: "Renewable Energy Rider"},
		{name: "fallback never empties", description: "First", want: "First"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizer.Normalize(tt.description))
		})
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	normalizer := NewNormalizer(DefaultRules())

	inputs := []string{
		"Transmission Charge First 500 kWh",
		"Demand Charge Next 12 kW",
		"Standard Offer Service & Transmission",
		"Rider 3 adjustment",
	}
	for _, m := range DefaultRules().ChargeMap {
		inputs = append(inputs, m.Name)
	}

	for _, in := range inputs {
		once := normalizer.Normalize(in)
		twice := normalizer.Normalize(string(once))
		assert.Equal(t, once, twice, in)
	}
}

func TestNormalizer_CustomVocabulary(t *testing.T) {
	rules := DefaultRules()
	rules.ChargeMap = []ChargeMapping{
		{Match: "gas supply", Name: "Gas Supply Charge"},
		{Match: "", Name: "ignored"},
	}

	normalizer := NewNormalizer(rules)

	assert.Equal(t, entity.ChargeKey("Gas Supply Charge"), normalizer.Normalize("Gas Supply 42 therms"))
	assert.Equal(t, entity.ChargeKey("Customer Charge"), normalizer.Normalize("Customer Charge"))
}
