package models

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Percentage is a rounded integer percentage that may be "not set".
// An unset percentage serialises as JSON null and is never rendered as 0%.
type Percentage struct {
	Value int
	Set   bool
}

var hundred = decimal.NewFromInt(100)

// NewPercentage returns round(num / den * 100). A non-positive denominator
// yields an unset percentage.
func NewPercentage(num, den decimal.Decimal) Percentage {
	if !den.IsPositive() {
		return Percentage{}
	}
	v := num.Mul(hundred).Div(den).Round(0).IntPart()
	return Percentage{Value: int(v), Set: true}
}

// PercentageOf is NewPercentage for plain floats.
func PercentageOf(num, den float64) Percentage {
	return NewPercentage(decimal.NewFromFloat(num), decimal.NewFromFloat(den))
}

// String renders the value with a percent sign, or an empty string when unset.
func (p Percentage) String() string {
	if !p.Set {
		return ""
	}
	return strconv.Itoa(p.Value) + "%"
}

func (p Percentage) MarshalJSON() ([]byte, error) {
	if !p.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(p.Value)), nil
}

func (p *Percentage) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Percentage{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Percentage{Value: v, Set: true}
	return nil
}
