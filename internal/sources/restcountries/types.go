package restcountries

import "encoding/json"

// Country is one entry of the REST Countries v2 "all" listing, restricted to
// the requested fields.
type Country struct {
	Name       string `json:"name"`
	Capital    string `json:"capital"`
	Region     string `json:"region"`
	Population *int64 `json:"population"`
	Flag       string `json:"flag"`

	// Currencies stays raw so one malformed entry cannot fail the whole listing.
	Currencies json.RawMessage `json:"currencies"`
}

// Currency is an element of the currencies array.
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// FirstCurrencyCode returns the code of the first listed currency, or "" when
// the list is missing, empty, malformed or the first entry has no code.
func (c Country) FirstCurrencyCode() string {
	if len(c.Currencies) == 0 {
		return ""
	}
	var list []*Currency
	if err := json.Unmarshal(c.Currencies, &list); err != nil {
		return ""
	}
	if len(list) == 0 || list[0] == nil {
		return ""
	}
	return list[0].Code
}
