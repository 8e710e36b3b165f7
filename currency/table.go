package currency

import (
	// Go Internal Packages
	"sort"
	"strings"

	// Local Packages
	helpers "e-wallet/helpers"
)

// Unknown is returned when no country code matches.
const Unknown = "UNKNOWN"

type entry struct {
	prefix   string
	currency string
}

// Table resolves currencies from phone country codes. It is immutable once built.
type Table struct {
	entries []entry
}

// NewTable copies codes into a table ordered for longest-prefix matching.
func NewTable(codes map[string]string) *Table {
	entries := make([]entry, 0, len(codes))
	for prefix, cur := range codes {
		entries = append(entries, entry{prefix: prefix, currency: cur})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].prefix) != len(entries[j].prefix) {
			return len(entries[i].prefix) > len(entries[j].prefix)
		}
		return entries[i].prefix < entries[j].prefix
	})
	return &Table{entries: entries}
}

// CurrencyFor returns the currency of the longest country code that prefixes phone.
// Both full numbers ("+91-98765") and bare codes ("+91") are accepted.
func (t *Table) CurrencyFor(phone string) string {
	prefix := helpers.CountryPrefix(phone)
	for _, e := range t.entries {
		if strings.HasPrefix(prefix, e.prefix) {
			return e.currency
		}
	}
	return Unknown
}

func (t *Table) Len() int { return len(t.entries) }

// DefaultTable is the country code list the e-wallet services ship with.
func DefaultTable() *Table {
	return NewTable(defaultCodes)
}

var defaultCodes = map[string]string{
	"+1": "USD", "+91": "INR", "+44": "GBP", "+81": "JPY", "+61": "AUD",
	"+86": "CNY", "+49": "EUR", "+33": "EUR", "+7": "RUB", "+39": "EUR",
	"+55": "BRL", "+34": "EUR", "+27": "ZAR", "+82": "KRW", "+90": "TRY",
	"+31": "EUR", "+351": "EUR", "+46": "SEK", "+47": "NOK", "+41": "CHF",
	"+64": "NZD", "+65": "SGD", "+66": "THB", "+62": "IDR", "+60": "MYR",
	"+63": "PHP", "+92": "PKR", "+880": "BDT", "+94": "LKR", "+20": "EGP",
	"+234": "NGN", "+254": "KES", "+256": "UGX", "+255": "TZS", "+212": "MAD",
	"+213": "DZD", "+216": "TND", "+218": "LYD", "+971": "AED", "+966": "SAR",
	"+968": "OMR", "+974": "QAR", "+973": "BHD", "+965": "KWD", "+972": "ILS",
	"+98": "IRR", "+964": "IQD", "+961": "LBP", "+962": "JOD", "+963": "SYP",
	"+960": "MVR", "+977": "NPR", "+95": "MMK", "+856": "LAK", "+855": "KHR",
	"+84": "VND", "+886": "TWD", "+992": "TJS", "+993": "TMT", "+994": "AZN",
	"+995": "GEL", "+996": "KGS", "+998": "UZS", "+380": "UAH", "+375": "BYN",
	"+420": "CZK", "+421": "EUR", "+36": "HUF", "+40": "RON", "+381": "RSD",
	"+385": "HRK", "+386": "EUR", "+387": "BAM", "+389": "MKD", "+43": "EUR",
	"+45": "DKK", "+48": "PLN", "+358": "EUR", "+30": "EUR", "+353": "EUR",
	"+354": "ISK", "+357": "EUR", "+359": "BGN", "+373": "MDL",
}
