package exchangerate

import (
	"encoding/json"
	"strings"
)

// ResultError is the result value the API reports on failure.
const ResultError = "error"

// Response is the open.er-api.com latest-rates payload.
type Response struct {
	Result    string    `json:"result"`
	BaseCode  string    `json:"base_code"`
	ErrorType string    `json:"error-type,omitempty"`
	Rates     RateTable `json:"rates"`
}

// Failed reports whether the API flagged the response as an error.
func (r *Response) Failed() bool {
	return strings.EqualFold(r.Result, ResultError)
}

// RateTable maps currency codes to units per base currency.
type RateTable map[string]float64

// UnmarshalJSON keeps numeric entries only, so a lookup miss means the code is
// either absent or carried a non-numeric rate. A value that is not an object
// decodes to a nil table.
func (rt *RateTable) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*rt = nil
		return nil
	}

	table := make(RateTable, len(raw))
	for code, value := range raw {
		var rate float64
		if err := json.Unmarshal(value, &rate); err != nil {
			continue
		}
		table[code] = rate
	}
	*rt = table
	return nil
}

// Lookup returns the rate for code when it is usable as a divisor.
func (rt RateTable) Lookup(code string) (float64, bool) {
	if code == "" {
		return 0, false
	}
	rate, ok := rt[code]
	if !ok || rate == 0 {
		return 0, false
	}
	return rate, true
}
