package serpapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceKind tags which shape a provider price arrived in.
type PriceKind int

const (
	PriceAbsent PriceKind = iota
	PriceNumber
	PriceString
	PriceObject
	PriceInvalid
)

// Price is the raw provider price: a number, a numeric string, or an object
// carrying a "value". Decoding never fails; unknown shapes become PriceInvalid.
type Price struct {
	Kind   PriceKind
	Number float64
	Text   string
	// IsText is set when the value came through as a string, object values included.
	IsText bool
}

func (p *Price) UnmarshalJSON(data []byte) error {
	*p = Price{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '{':
		var obj struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			p.Kind = PriceInvalid
			return nil
		}
		var inner Price
		_ = inner.UnmarshalJSON(obj.Value)
		switch inner.Kind {
		case PriceNumber, PriceString:
			p.Kind = PriceObject
			p.Number = inner.Number
			p.Text = inner.Text
			p.IsText = inner.IsText
		case PriceAbsent:
		default:
			p.Kind = PriceInvalid
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			p.Kind = PriceInvalid
			return nil
		}
		p.Kind = PriceString
		p.Text = s
		p.IsText = true
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			p.Kind = PriceInvalid
			return nil
		}
		p.Kind = PriceNumber
		p.Number = n
	}
	return nil
}

// Number is an optional numeric field that tolerates numeric strings.
type Number struct {
	Valid bool
	Value float64
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		n.Valid, n.Value = true, d.InexactFloat64()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	n.Valid, n.Value = true, v
	return nil
}

// Flag is a lenient boolean: JSON booleans, non-zero numbers and "true" are set.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	data = bytes.TrimSpace(data)
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = n != 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Flag(strings.EqualFold(strings.TrimSpace(s), "true"))
	}
	return nil
}

// Text is a string field that also accepts JSON numbers.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Text(n.String())
	}
	return nil
}
