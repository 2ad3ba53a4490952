package enrich

import "energyetl/internal/records"

// Income tier labels.
const (
	IncomeUnknown     = "Unknown"
	IncomeHigh        = "High Income"
	IncomeUpperMiddle = "Upper-Middle Income"
	IncomeLowerMiddle = "Lower-Middle Income"
	IncomeLow         = "Low Income"
)

type incomeRule struct {
	label string
	match func(gdpPerCapita float64) bool
}

// First match wins.
var incomeRules = []incomeRule{
	{IncomeUnknown, func(v float64) bool { return v == 0 }},
	{IncomeHigh, func(v float64) bool { return v > 40000 }},
	{IncomeUpperMiddle, func(v float64) bool { return v > 12000 }},
	{IncomeLowerMiddle, func(v float64) bool { return v > 4000 }},
}

// IncomeLevel maps GDP per capita to an income tier.
func IncomeLevel(gdpPerCapita float64) string {
	for _, rule := range incomeRules {
		if rule.match(gdpPerCapita) {
			return rule.label
		}
	}
	return IncomeLow
}

// IncomeClassifier sets Record.IncomeLevel from Metrics.GDPPerCapita.
type IncomeClassifier struct{}

func (IncomeClassifier) Name() string { return "classify_income" }

func (IncomeClassifier) Apply(t records.Table) records.Table {
	out := make([]records.Record, len(t.Records))
	for i, r := range t.Records {
		nr := r.Clone()
		nr.IncomeLevel = IncomeLevel(nr.Metrics.GDPPerCapita)
		out[i] = nr
	}
	return t.WithRecords(out)
}
