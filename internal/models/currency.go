package models

// DefaultCurrency is used when a group is created without one.
const DefaultCurrency = "USD"

// AllowedCurrencies is the fixed set of ISO 4217 codes a group may use.
// Amounts are never converted between currencies.
var AllowedCurrencies = []string{
	"USD", "EUR", "GBP", "ILS", "JPY", "CAD", "AUD", "CHF", "SEK", "NOK",
}

// ValidCurrency reports whether code is one of AllowedCurrencies.
func ValidCurrency(code string) bool {
	for _, c := range AllowedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}
