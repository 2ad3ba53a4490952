package enrich

import "energyetl/internal/records"

// OtherLabel is returned for codes missing from a classification table.
const OtherLabel = "Other"

var continentCodes = map[string][]string{
	"Asia": {"CHN", "IND", "JPN", "KOR", "IDN", "SAU", "TUR", "IRN", "IRQ", "PAK",
		"THA", "VNM", "MYS", "PHL", "BGD", "ARE", "ISR", "SGP", "HKG", "KAZ",
		"UZB", "TWN", "LKA", "MMR", "KHM", "JOR", "LBN", "OMN", "KWT", "QAT"},
	"Europe": {"DEU", "GBR", "FRA", "ITA", "ESP", "POL", "RUS", "UKR", "NLD", "BEL",
		"SWE", "CZE", "PRT", "GRC", "ROU", "AUT", "CHE", "NOR", "DNK", "FIN",
		"HUN", "SVK", "IRL", "HRV", "BGR", "SRB", "LTU", "SVN", "LVA", "EST"},
	"North America": {"USA", "CAN", "MEX"},
	"South America": {"BRA", "ARG", "CHL", "COL", "VEN", "PER", "ECU", "BOL", "PRY", "URY"},
	"Africa": {"ZAF", "EGY", "NGA", "DZA", "MAR", "ETH", "KEN", "GHA", "AGO", "TZA",
		"TUN", "LBY", "CMR", "CIV", "UGA", "SDN"},
	"Oceania": {"AUS", "NZL", "PNG"},
}

var regionCodes = map[string][]string{
	"East Asia":          {"CHN", "JPN", "KOR", "TWN", "HKG", "SGP"},
	"South Asia":         {"IND", "PAK", "BGD", "LKA", "MMR"},
	"Southeast Asia":     {"IDN", "THA", "VNM", "MYS", "PHL", "KHM"},
	"Middle East":        {"SAU", "TUR", "IRN", "IRQ", "ARE", "ISR", "JOR", "LBN", "OMN", "KWT", "QAT"},
	"Western Europe":     {"DEU", "GBR", "FRA", "ITA", "ESP", "NLD", "BEL", "CHE", "AUT", "IRL"},
	"Northern Europe":    {"SWE", "NOR", "DNK", "FIN"},
	"Eastern Europe":     {"POL", "RUS", "UKR", "CZE", "ROU", "HUN", "SVK", "BGR", "SRB"},
	"Southern Europe":    {"GRC", "PRT", "HRV", "SVN"},
	"North America":      {"USA", "CAN", "MEX"},
	"South America":      {"BRA", "ARG", "CHL", "COL", "VEN", "PER", "ECU", "BOL"},
	"North Africa":       {"EGY", "DZA", "MAR", "TUN", "LBY"},
	"Sub-Saharan Africa": {"ZAF", "NGA", "ETH", "KEN", "GHA", "AGO", "TZA"},
	"Oceania":            {"AUS", "NZL"},
}

// Inverted once at init; read-only afterwards.
var (
	continentByCode = invert(continentCodes)
	regionByCode    = invert(regionCodes)
)

func invert(m map[string][]string) map[string]string {
	out := make(map[string]string)
	for label, codes := range m {
		for _, c := range codes {
			out[c] = label
		}
	}
	return out
}

// Continent returns the continent label for an ISO code.
func Continent(code string) string { return lookup(continentByCode, code) }

// Region returns the region label for an ISO code.
func Region(code string) string { return lookup(regionByCode, code) }

func lookup(m map[string]string, code string) string {
	if label, ok := m[code]; ok {
		return label
	}
	return OtherLabel
}

// GeoClassifier assigns continent and region labels.
type GeoClassifier struct{}

func (GeoClassifier) Name() string { return "classify_geo" }

func (GeoClassifier) Apply(t records.Table) records.Table {
	out := make([]records.Record, len(t.Records))
	for i, r := range t.Records {
		nr := r.Clone()
		nr.Continent = Continent(nr.ISOCode)
		nr.Region = Region(nr.ISOCode)
		out[i] = nr
	}
	return t.WithRecords(out)
}
