package models

// regionAliases maps the identifiers NEMWEB reports use (numeric codes in
// older report versions, suffixed codes in newer ones) to display regions.
var regionAliases = map[string]string{
	"1":    "NSW",
	"2":    "VIC",
	"3":    "QLD",
	"4":    "SA",
	"5":    "TAS",
	"NSW1": "NSW",
	"VIC1": "VIC",
	"QLD1": "QLD",
	"SA1":  "SA",
	"TAS1": "TAS",
}

// Regions lists the five NEM display regions.
var Regions = []string{"NSW", "VIC", "QLD", "SA", "TAS"}

// MapRegion normalizes a raw region identifier to its display name.
// Unknown identifiers pass through unchanged.
func MapRegion(raw string) string {
	if mapped, ok := regionAliases[raw]; ok {
		return mapped
	}
	return raw
}

// KnownRegion reports whether region is one of the five display regions.
func KnownRegion(region string) bool {
	_, ok := regionAliases[region+"1"]
	return ok
}
