package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a monetary value as stored in goal documents. Decoding is
// lenient: numbers and numeric strings are accepted, anything else
// (null, booleans, garbage, NaN, ±Inf) becomes 0.
type Amount float64

// Float returns the value, or 0 when it is not finite.
func (a Amount) Float() float64 {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Float())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*a = 0

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = Amount(f).normalize()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*a = Amount(v).normalize()
		}
	}
	return nil
}

func (a Amount) normalize() Amount {
	return Amount(a.Float())
}
