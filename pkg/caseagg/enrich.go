// Package caseagg joins cases with their call history into enriched views.
package caseagg

import (
	"github.com/shopspring/decimal"

	"github.com/jordanlanch/recoverydesk/pkg/casefields"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

// DPDBucket returns the days-past-due bucket label for dpd.
func DPDBucket(dpd int) string {
	switch {
	case dpd <= 30:
		return models.DPDBucket0To30
	case dpd <= 60:
		return models.DPDBucket31To60
	case dpd <= 90:
		return models.DPDBucket61To90
	default:
		return models.DPDBucketOver90
	}
}

// BucketCounts counts cases per DPD bucket.
func BucketCounts(cases []models.Case) models.DPDCounts {
	var counts models.DPDCounts
	for _, c := range cases {
		counts.Add(DPDBucket(c.DPD))
	}
	return counts
}

// newer reports whether a sorts after b: later created_at, then larger id.
func newer(a, b models.CallLog) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Latest returns the most recent log, or false when logs is empty.
func Latest(logs []models.CallLog) (models.CallLog, bool) {
	var (
		latest models.CallLog
		found  bool
	)
	for _, l := range logs {
		if !found || newer(l, latest) {
			latest, found = l, true
		}
	}
	return latest, found
}

// Enrich derives the call-history fields of c from logs. Logs belonging to
// other cases are ignored.
func Enrich(c models.Case, logs []models.CallLog) models.EnrichedCase {
	e := models.EnrichedCase{
		Case:                 c,
		ResolvedCustomerName: casefields.String(c, casefields.CustomerName),
		ResolvedMobile:       casefields.String(c, casefields.Mobile),
		ResolvedOutstanding:  casefields.OutstandingAmount(c).InexactFloat64(),
		DPDBucket:            DPDBucket(c.DPD),
	}

	var (
		latest, latestPTP models.CallLog
		hasLatest, hasPTP bool
	)
	for _, l := range logs {
		if l.CaseID != c.ID {
			continue
		}
		e.CallCount++
		if !hasLatest || newer(l, latest) {
			latest, hasLatest = l, true
		}
		if l.PTPDate != nil && (!hasPTP || newer(l, latestPTP)) {
			latestPTP, hasPTP = l, true
		}
	}
	if hasLatest {
		e.LatestCallStatus = latest.CallStatus
		created := latest.CreatedAt
		e.LatestCallDate = &created
	}
	if hasPTP {
		ptp := *latestPTP.PTPDate
		e.LatestPTPDate = &ptp
	}
	return e
}

// EnrichAll enriches every case, keeping input order.
func EnrichAll(cases []models.Case, logs []models.CallLog) []models.EnrichedCase {
	byCase := make(map[string][]models.CallLog, len(cases))
	for _, l := range logs {
		byCase[l.CaseID] = append(byCase[l.CaseID], l)
	}
	out := make([]models.EnrichedCase, 0, len(cases))
	for _, c := range cases {
		out = append(out, Enrich(c, byCase[c.ID]))
	}
	return out
}

// SumCollected adds up amount_collected over logs.
func SumCollected(logs []models.CallLog) decimal.Decimal {
	total := decimal.Zero
	for _, l := range logs {
		if l.AmountCollected != nil {
			total = total.Add(decimal.NewFromFloat(*l.AmountCollected))
		}
	}
	return total
}

// ReconcileCollected compares the stored collected total of c, which is
// authoritative, with the sum of its PAYMENT_RECEIVED logs.
func ReconcileCollected(c models.Case, logs []models.CallLog) models.Reconciliation {
	logged := decimal.Zero
	payments := 0
	for _, l := range logs {
		if l.CaseID != c.ID || !l.IsPayment() {
			continue
		}
		payments++
		logged = logged.Add(decimal.NewFromFloat(l.Collected()))
	}
	stored := decimal.NewFromFloat(c.TotalCollectedAmount)
	diff := stored.Sub(logged).Round(2)
	return models.Reconciliation{
		CaseID:          c.ID,
		StoredCollected: stored.InexactFloat64(),
		LoggedCollected: logged.InexactFloat64(),
		Difference:      diff.InexactFloat64(),
		PaymentCount:    payments,
		Matches:         diff.IsZero(),
	}
}
