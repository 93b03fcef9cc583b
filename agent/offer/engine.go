// Package offer holds the static retention playbook tables: which offers a
// loyalty tier qualifies for, which offer to lead with per cancellation
// reason, and the approval caps that gate what an agent may extend without a
// manager.
package offer

import "strings"

const (
	TypeDiscount    = "discount"
	TypePause       = "pause"
	TypeUpgrade     = "upgrade"
	TypeReplacement = "replacement"
)

const (
	// ApprovalAuto offers can be extended by the agent directly.
	ApprovalAuto = "auto"
	// ApprovalManager offers exceed the playbook caps and need a human sign-off.
	ApprovalManager = "manager"
)

// Playbook caps: anything beyond these is a manager decision.
const (
	MaxAutoDiscountPercent = 25
	MaxAutoRefundUSD       = 200
)

// Offer is a single scripted retention offer.
type Offer struct {
	Type            string  `json:"type"`
	Description     string  `json:"description"`
	DiscountPercent int     `json:"discount_percent,omitempty"`
	DurationMonths  int     `json:"duration_months,omitempty"`
	ValueUSD        float64 `json:"value_usd,omitempty"`
	Approval        string  `json:"approval"`
}

// Strategy orders the offer types to present for a cancellation reason.
type Strategy struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Result is the outcome of a Calculate call. Tier and Reason echo the raw
// inputs even when they were normalized internally.
type Result struct {
	Tier     string   `json:"tier"`
	Reason   string   `json:"reason"`
	Strategy Strategy `json:"strategy"`
	Offers   []Offer  `json:"offers"`
}

var tierOffers = map[string][]Offer{
	"new": {
		{
			Type:            TypeDiscount,
			Description:     "10% off your monthly Care+ charge for 3 months",
			DiscountPercent: 10,
			DurationMonths:  3,
			Approval:        ApprovalAuto,
		},
	},
	"regular": {
		{
			Type:            TypeDiscount,
			Description:     "15% off your monthly Care+ charge for 3 months",
			DiscountPercent: 15,
			DurationMonths:  3,
			Approval:        ApprovalAuto,
		},
		{
			Type:           TypePause,
			Description:    "Pause your coverage and billing for 2 months, keep your enrollment",
			DurationMonths: 2,
			Approval:       ApprovalAuto,
		},
	},
	"premium": {
		{
			Type:            TypeDiscount,
			Description:     "25% off your monthly Care+ charge for 6 months",
			DiscountPercent: 25,
			DurationMonths:  6,
			Approval:        ApprovalAuto,
		},
		{
			Type:           TypePause,
			Description:    "Pause your coverage and billing for 3 months, keep your enrollment",
			DurationMonths: 3,
			Approval:       ApprovalAuto,
		},
	},
}

var reasonStrategies = map[string]Strategy{
	"financial_hardship": {Primary: TypePause, Secondary: TypeDiscount},
	"too_expensive":      {Primary: TypeDiscount, Secondary: TypePause},
	"not_using":          {Primary: TypePause, Secondary: TypeDiscount},
	"product_defect":     {Primary: TypeReplacement, Secondary: TypeDiscount},
	"switching_carrier":  {Primary: TypeDiscount, Secondary: TypePause},
	"other":              {Primary: TypeDiscount, Secondary: TypePause},
}

// Calculate looks up the offers for a tier and the presentation strategy for
// a reason. Unknown tiers fall back to the new-customer offers and unknown
// reasons to the "other" strategy; the raw inputs are echoed back so callers
// can log what was actually asked for.
func Calculate(tier, reason string) Result {
	normalizedTier := strings.ToLower(strings.TrimSpace(tier))
	offers, ok := tierOffers[normalizedTier]
	if !ok {
		offers = tierOffers["new"]
	}

	normalizedReason := strings.ToLower(strings.TrimSpace(reason))
	strategy, ok := reasonStrategies[normalizedReason]
	if !ok {
		strategy = reasonStrategies["other"]
	}

	out := make([]Offer, len(offers))
	copy(out, offers)

	return Result{
		Tier:     tier,
		Reason:   reason,
		Strategy: strategy,
		Offers:   out,
	}
}

// NeedsManagerApproval reports whether an offer exceeds the playbook caps.
func NeedsManagerApproval(o Offer) bool {
	if o.Approval == ApprovalManager {
		return true
	}
	if o.DiscountPercent > MaxAutoDiscountPercent {
		return true
	}
	if o.ValueUSD > MaxAutoRefundUSD {
		return true
	}
	return false
}

// Describe renders offers as a bullet list for the LLM context block.
func Describe(offers []Offer) string {
	if len(offers) == 0 {
		return ""
	}
	var b strings.Builder
	for i, o := range offers {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(o.Type)
		b.WriteString(": ")
		b.WriteString(o.Description)
	}
	return b.String()
}
