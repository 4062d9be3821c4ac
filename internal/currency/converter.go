package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ratesPerUSD maps currency codes to the number of local currency units per 1 USD.
// These are indicative mock rates.
var ratesPerUSD = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.RequireFromString("0.92"),
	"GBP": decimal.RequireFromString("0.79"),
	"CHF": decimal.RequireFromString("0.88"),
	"JPY": decimal.RequireFromString("149.50"),
	"SGD": decimal.RequireFromString("1.34"),
}

// usdScale is the number of decimals kept on converted amounts.
const usdScale = 2

// ToUSD converts a local currency amount to USD, rounded to cents.
func ToUSD(amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	rate, err := Rate(currency)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Div(rate).Round(usdScale), nil
}

// Rate returns the exchange rate for a given currency (units per 1 USD).
func Rate(currency string) (decimal.Decimal, error) {
	rate, ok := ratesPerUSD[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency: %s", currency)
	}
	return rate, nil
}

// Supported reports whether conversions exist for the currency.
func Supported(currency string) bool {
	_, ok := ratesPerUSD[currency]
	return ok
}
