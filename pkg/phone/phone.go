// Package phone normalises customer contact numbers.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "IN"

var (
	ErrEmpty   = errors.New("phone number cannot be empty")
	ErrInvalid = errors.New("invalid phone number")
)

// Normalizer parses numbers written without a country code as numbers of
// its region.
type Normalizer struct {
	region string
}

// NewNormalizer returns a Normalizer for region (ISO 3166-1 alpha-2).
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return &Normalizer{region: region}
}

// Region returns the default region.
func (n *Normalizer) Region() string {
	return n.region
}

// Normalize returns raw in E.164 format.
func (n *Normalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmpty
	}
	parsed, err := phonenumbers.Parse(raw, n.region)
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", ErrInvalid
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// Display is Normalize falling back to the trimmed input, so a malformed
// number still shows up in exports.
func (n *Normalizer) Display(raw string) string {
	if e164, err := n.Normalize(raw); err == nil {
		return e164
	}
	return strings.TrimSpace(raw)
}

// IsMobile reports whether raw is a valid mobile number of any region.
func (n *Normalizer) IsMobile(raw string) bool {
	parsed, err := phonenumbers.Parse(strings.TrimSpace(raw), n.region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return false
	}
	switch phonenumbers.GetNumberType(parsed) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
		return true
	}
	return false
}
