package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NormalizePrice strips every non-digit character and parses the rest as an
// integer amount in minor currency units, so "1.234.567đ" and "1234567" are
// the same price. Input without digits normalizes to 0.
func NormalizePrice(raw string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0, nil
	}

	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	return amount, nil
}

// Price is a price as the client sent it: a JSON number or a formatted string.
// A key present in the JSON body, null included, marks the price as present.
type Price struct {
	raw     string
	present bool
}

// PriceOf wraps a raw price representation.
func PriceOf(raw string) Price {
	return Price{raw: raw, present: true}
}

// PriceFrom wraps an already normalized amount.
func PriceFrom(amount int64) Price {
	return Price{raw: strconv.FormatInt(amount, 10), present: true}
}

// Present reports whether the price was supplied at all. A present price
// without digits asks for the value to be cleared.
func (p Price) Present() bool {
	return p.present
}

// IsSet reports whether the raw value contains any digit.
func (p Price) IsSet() bool {
	return strings.ContainsAny(p.raw, "0123456789")
}

func (p Price) Amount() (int64, error) {
	return NormalizePrice(p.raw)
}

func (p Price) String() string {
	return p.raw
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	p.present = true
	if bytes.Equal(data, []byte("null")) {
		p.raw = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.raw)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, string(data))
	}
	p.raw = n.String()
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.raw)
}
