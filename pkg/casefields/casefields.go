// Package casefields resolves logical case fields from the typed columns of a
// case, falling back to an enumerated list of keys in its open case_data bag.
package casefields

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/jordanlanch/recoverydesk/pkg/models"
)

// Field is a logical case attribute that may live in a column or in case_data.
type Field string

const (
	CustomerName Field = "customer_name"
	Mobile       Field = "mobile"
	Outstanding  Field = "outstanding"
	LoanAmount   Field = "loan_amount"
)

// fallbackKeys is the complete, ordered list of case_data keys consulted per
// field once its typed column is empty. Keys match case-insensitively.
var fallbackKeys = map[Field][]string{
	CustomerName: {"customer_name", "customerName", "borrower_name", "name"},
	Mobile:       {"mobile_no", "mobileNo", "mobile", "phone", "contact_no"},
	Outstanding:  {"outstanding_amount", "totalOutstanding", "outstanding", "pos"},
	LoanAmount:   {"loan_amount", "loanAmount", "principal"},
}

// Keys returns the fallback keys for f in lookup order.
func Keys(f Field) []string {
	return append([]string(nil), fallbackKeys[f]...)
}

// Lookup returns the first non-empty value in data under any of keys.
// Keys are compared after Unicode case folding.
func Lookup(data map[string]any, keys []string) (any, bool) {
	if len(data) == 0 {
		return nil, false
	}
	fold := cases.Fold()
	folded := make(map[string]any, len(data))
	for k, v := range data {
		fk := fold.String(k)
		if _, dup := folded[fk]; !dup {
			folded[fk] = v
		}
	}
	for _, k := range keys {
		v, ok := folded[fold.String(k)]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// String resolves a text field.
func String(c models.Case, f Field) string {
	switch f {
	case CustomerName:
		if c.CustomerName != "" {
			return c.CustomerName
		}
	case Mobile:
		if c.MobileNo != "" {
			return c.MobileNo
		}
	}
	v, ok := Lookup(c.CaseData, fallbackKeys[f])
	if !ok {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

// Amount resolves a monetary field. ok is false when neither the column nor
// any fallback key holds a parseable number.
func Amount(c models.Case, f Field) (decimal.Decimal, bool) {
	switch f {
	case Outstanding:
		if c.OutstandingAmount != nil {
			return decimal.NewFromFloat(*c.OutstandingAmount), true
		}
	case LoanAmount:
		if c.LoanAmount != nil {
			return decimal.NewFromFloat(*c.LoanAmount), true
		}
	}
	v, ok := Lookup(c.CaseData, fallbackKeys[f])
	if !ok {
		return decimal.Zero, false
	}
	return toDecimal(v)
}

// OutstandingAmount is Amount(c, Outstanding) with 0 for a missing value.
func OutstandingAmount(c models.Case) decimal.Decimal {
	d, _ := Amount(c, Outstanding)
	return d
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}
	return decimal.Zero, false
}
