package records

// Derived output columns, in export order.
const (
	ColContinent            = "continent"
	ColRegion               = "region"
	ColCleanEnergyShare     = "clean_energy_share"
	ColFossilFuelShare      = "fossil_fuel_share"
	ColEnergyIntensity      = "energy_intensity"
	ColEnergyPerCapita      = "energy_per_capita"
	ColCO2PerCapita         = "co2_per_capita"
	ColGDPPerCapita         = "gdp_per_capita"
	ColSolarShare           = "solar_share"
	ColWindShare            = "wind_share"
	ColHydroShare           = "hydro_share"
	ColIncomeLevel          = "income_level"
	ColEnergyGrowthRate     = "energy_growth_rate"
	ColGDPGrowthRate        = "gdp_growth_rate"
	ColCO2GrowthRate        = "co2_growth_rate"
	ColPopulationGrowthRate = "population_growth_rate"
	ColIsMajorEconomy       = "is_major_economy"
	ColIsHighEmitter        = "is_high_emitter"
	ColIsRenewableLeader    = "is_renewable_leader"
	ColIsEnergyEfficient    = "is_energy_efficient"
)

// Raw measure columns referenced by the enrichment stages.
const (
	ColPrimaryEnergy  = "primary_energy_consumption"
	ColNuclear        = "nuclear_consumption"
	ColRenewables     = "renewables_consumption"
	ColCoal           = "coal_consumption"
	ColOil            = "oil_consumption"
	ColGas            = "gas_consumption"
	ColHydro          = "hydro_consumption"
	ColSolar          = "solar_consumption"
	ColWind           = "wind_consumption"
	ColOtherRenewable = "other_renewable_consumption"
	ColCO2            = "co2"
	ColGreenhouseGas  = "greenhouse_gas_emissions"
	ColPopulation     = "population"
	ColGDP            = "gdp"
)

// Kind is the logical type of an output column. Storage backends map it to a
// SQL type.
type Kind string

const (
	KindText  Kind = "text"
	KindInt   Kind = "int"
	KindFloat Kind = "float"
	KindBool  Kind = "bool"
)

// Column describes one output column.
type Column struct {
	Name string
	Kind Kind
}

// DerivedColumns lists the columns appended after the source columns.
var DerivedColumns = []Column{
	{ColContinent, KindText},
	{ColRegion, KindText},
	{ColCleanEnergyShare, KindFloat},
	{ColFossilFuelShare, KindFloat},
	{ColEnergyIntensity, KindFloat},
	{ColEnergyPerCapita, KindFloat},
	{ColCO2PerCapita, KindFloat},
	{ColGDPPerCapita, KindFloat},
	{ColSolarShare, KindFloat},
	{ColWindShare, KindFloat},
	{ColHydroShare, KindFloat},
	{ColIncomeLevel, KindText},
	{ColEnergyGrowthRate, KindFloat},
	{ColGDPGrowthRate, KindFloat},
	{ColCO2GrowthRate, KindFloat},
	{ColPopulationGrowthRate, KindFloat},
	{ColIsMajorEconomy, KindBool},
	{ColIsHighEmitter, KindBool},
	{ColIsRenewableLeader, KindBool},
	{ColIsEnergyEfficient, KindBool},
}

// OutputColumns returns the enriched table layout: source columns in header
// order followed by DerivedColumns. Source columns are numeric unless listed
// in textCols (see TextColumns).
func OutputColumns(t Table, textCols map[string]bool) []Column {
	out := make([]Column, 0, len(t.Columns)+len(DerivedColumns))
	for _, c := range t.Columns {
		switch {
		case c == ColCountry || c == ColISOCode:
			out = append(out, Column{c, KindText})
		case c == ColYear:
			out = append(out, Column{c, KindInt})
		case textCols[c]:
			out = append(out, Column{c, KindText})
		default:
			out = append(out, Column{c, KindFloat})
		}
	}
	return append(out, DerivedColumns...)
}

// TextColumns returns the source columns holding at least one non-empty,
// non-numeric value.
func TextColumns(t Table) map[string]bool {
	out := map[string]bool{}
	for _, r := range t.Records {
		for k, c := range r.Source {
			if !c.Valid && c.Raw != "" {
				out[k] = true
			}
		}
	}
	return out
}

// NumericValue returns the numeric value of a named output column and whether
// the column is numeric for this record. Missing source values report ok=true
// with valid=false.
func (r Record) NumericValue(col string) (v float64, valid, ok bool) {
	switch col {
	case ColYear:
		return float64(r.Year), r.YearOK, true
	case ColCleanEnergyShare:
		return r.Metrics.CleanEnergyShare, true, true
	case ColFossilFuelShare:
		return r.Metrics.FossilFuelShare, true, true
	case ColEnergyIntensity:
		return r.Metrics.EnergyIntensity, true, true
	case ColEnergyPerCapita:
		return r.Metrics.EnergyPerCapita, true, true
	case ColCO2PerCapita:
		return r.Metrics.CO2PerCapita, true, true
	case ColGDPPerCapita:
		return r.Metrics.GDPPerCapita, true, true
	case ColSolarShare:
		return r.Metrics.SolarShare, true, true
	case ColWindShare:
		return r.Metrics.WindShare, true, true
	case ColHydroShare:
		return r.Metrics.HydroShare, true, true
	case ColEnergyGrowthRate:
		return r.Growth.Energy, true, true
	case ColGDPGrowthRate:
		return r.Growth.GDP, true, true
	case ColCO2GrowthRate:
		return r.Growth.CO2, true, true
	case ColPopulationGrowthRate:
		return r.Growth.Population, true, true
	case ColCountry, ColISOCode, ColContinent, ColRegion, ColIncomeLevel,
		ColIsMajorEconomy, ColIsHighEmitter, ColIsRenewableLeader, ColIsEnergyEfficient:
		return 0, false, false
	}
	c, present := r.Source[col]
	if !present {
		return 0, false, false
	}
	if !c.Valid && c.Raw != "" {
		return 0, false, false
	}
	return c.Num, c.Valid, true
}

// Values renders r as a row aligned with cols. Missing values are nil, so SQL
// sinks write NULL and text sinks write an empty cell.
func (r Record) Values(cols []Column) []any {
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = r.value(c)
	}
	return row
}

func (r Record) value(c Column) any {
	switch c.Name {
	case ColCountry:
		return r.Country
	case ColISOCode:
		return r.ISOCode
	case ColYear:
		if !r.YearOK {
			return nil
		}
		return int64(r.Year)
	case ColContinent:
		return r.Continent
	case ColRegion:
		return r.Region
	case ColIncomeLevel:
		return r.IncomeLevel
	case ColIsMajorEconomy:
		return r.Flags.MajorEconomy
	case ColIsHighEmitter:
		return r.Flags.HighEmitter
	case ColIsRenewableLeader:
		return r.Flags.RenewableLeader
	case ColIsEnergyEfficient:
		return r.Flags.EnergyEfficient
	}
	if c.Kind == KindText {
		if cell, ok := r.Source[c.Name]; ok && cell.Raw != "" {
			return cell.Raw
		}
		return nil
	}
	if v, valid, ok := r.NumericValue(c.Name); ok && valid {
		return v
	}
	return nil
}
