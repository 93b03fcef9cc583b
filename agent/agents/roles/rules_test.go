package roles

import (
	"strings"
	"testing"

	"github.com/techflow/careline/agent/offer"
	statex "github.com/techflow/careline/agent/state"
)

func TestExtractEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{"My email is test@example.com", "test@example.com"},
		{"contact me at john.doe@company.org", "john.doe@company.org"},
		{"no email here", ""},
	}

	for _, tt := range tests {
		if got := ExtractEmail(tt.text); got != tt.want {
			t.Fatalf("ExtractEmail(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestClassifyIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want statex.Intent
	}{
		{"I want to cancel my subscription", statex.IntentCancellation},
		{"need to stop coverage can't afford it", statex.IntentCancellation},
		{"terminate my care+ subscription", statex.IntentCancellation},
		{"why is my bill so high", statex.IntentBilling},
		{"question about charges", statex.IntentBilling},
		{"need refund for payment", statex.IntentBilling},
		{"my phone is overheating", statex.IntentTechnical},
		{"screen won't turn on", statex.IntentTechnical},
		{"battery drain issues", statex.IntentTechnical},
		{"hello there", statex.IntentGeneral},
	}

	for _, tt := range tests {
		if got := ClassifyIntent(tt.text); got != tt.want {
			t.Fatalf("ClassifyIntent(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestClassifyIntentCancellationWinsOverTechnical(t *testing.T) {
	t.Parallel()

	// A broken device plus a wish to leave routes to retention, not tech support.
	got := ClassifyIntent("my screen is broken, just cancel the plan")
	if got != statex.IntentCancellation {
		t.Fatalf("ClassifyIntent() = %q, want cancellation", got)
	}
}

func TestDetectReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		transcript string
		want       string
	}{
		{"can't afford the $13/month anymore", "financial_hardship"},
		{"paying for it but never used the coverage", "not_using"},
		{"phone is broken want to return it", "product_defect"},
		{"switching to a new carrier next month", "switching_carrier"},
		{"I just want out", "other"},
	}

	for _, tt := range tests {
		if got := DetectReason(tt.transcript); got != tt.want {
			t.Fatalf("DetectReason(%q) = %q, want %q", tt.transcript, got, tt.want)
		}
	}
}

func TestNeedsPolicyContext(t *testing.T) {
	t.Parallel()

	if !NeedsPolicyContext("what does care+ actually cover?") {
		t.Fatal("NeedsPolicyContext() = false for coverage question")
	}
	if NeedsPolicyContext("just cancel it please") {
		t.Fatal("NeedsPolicyContext() = true for plain cancellation")
	}
}

func TestDetectDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want Decision
	}{
		{"yes sounds good", DecisionAccept},
		{"sure, I'll take the discount", DecisionAccept},
		{"that works for me, deal", DecisionAccept},
		{"no thanks still want to cancel", DecisionDecline},
		{"just cancel it", DecisionDecline},
		{"not interested", DecisionDecline},
		{"let me think about it", DecisionUndecided},
	}

	for _, tt := range tests {
		if got := DetectDecision(tt.text); got != tt.want {
			t.Fatalf("DetectDecision(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestDetectDecisionDeclineBeatsAcceptSubstrings(t *testing.T) {
	t.Parallel()

	// "ok" is an accept keyword but the explicit decline phrase must win.
	if got := DetectDecision("ok no thanks, proceed with cancellation"); got != DecisionDecline {
		t.Fatalf("DetectDecision() = %q, want decline", got)
	}
}

func TestDetectEscalationLegalClaims(t *testing.T) {
	t.Parallel()

	escalated, reason := DetectEscalation("I'm going to call my attorney about this")
	if !escalated {
		t.Fatal("DetectEscalation() = false for attorney mention")
	}
	if reason != "legal_or_injury_claim" {
		t.Fatalf("reason = %q", reason)
	}

	if escalated, _ := DetectEscalation("the battery got hot and injured my hand"); !escalated {
		t.Fatal("DetectEscalation() = false for injury mention")
	}
}

func TestDetectEscalationRefundOverCap(t *testing.T) {
	t.Parallel()

	escalated, reason := DetectEscalation("I demand a refund of $350 right now")
	if !escalated {
		t.Fatal("DetectEscalation() = false for $350 refund demand")
	}
	if !strings.Contains(reason, "200") {
		t.Fatalf("reason = %q does not reference the cap", reason)
	}

	if escalated, _ := DetectEscalation("can I get a refund of $50?"); escalated {
		t.Fatal("DetectEscalation() = true for refund under the cap")
	}
	if escalated, _ := DetectEscalation("no escalation words at all"); escalated {
		t.Fatal("DetectEscalation() = true for neutral text")
	}
}

func TestResolveFinalActionAcceptedDiscount(t *testing.T) {
	t.Parallel()

	offers := []offer.Offer{
		{Type: offer.TypeDiscount, Description: "25% off your monthly Care+ charge for 6 months"},
		{Type: offer.TypePause, Description: "Pause your coverage and billing for 3 months, keep your enrollment"},
	}

	action, details := ResolveFinalAction(DecisionAccept, offers, "financial_hardship", "yes ill take the discount")
	if action != "accepted_discount" {
		t.Fatalf("action = %q, want accepted_discount", action)
	}
	if !strings.Contains(details, "25%") {
		t.Fatalf("details = %q does not carry the offer terms", details)
	}
}

func TestResolveFinalActionAcceptedPause(t *testing.T) {
	t.Parallel()

	offers := []offer.Offer{
		{Type: offer.TypeDiscount, Description: "15% off your monthly Care+ charge for 3 months"},
		{Type: offer.TypePause, Description: "Pause your coverage and billing for 2 months, keep your enrollment"},
	}

	action, details := ResolveFinalAction(DecisionAccept, offers, "not_using", "the pause option sounds good")
	if action != "accepted_pause" {
		t.Fatalf("action = %q, want accepted_pause", action)
	}
	if !strings.Contains(details, "Pause") {
		t.Fatalf("details = %q", details)
	}
}

func TestResolveFinalActionAcceptUnclearTakesLeadOffer(t *testing.T) {
	t.Parallel()

	offers := []offer.Offer{
		{Type: offer.TypePause, Description: "Pause your coverage and billing for 2 months, keep your enrollment"},
	}

	action, _ := ResolveFinalAction(DecisionAccept, offers, "not_using", "sure, do it")
	if action != "accepted_pause" {
		t.Fatalf("action = %q, want accepted_pause", action)
	}
}

func TestResolveFinalActionCancellation(t *testing.T) {
	t.Parallel()

	action, details := ResolveFinalAction(DecisionDecline, nil, "financial_hardship", "just cancel it")
	if action != "cancelled_coverage" {
		t.Fatalf("action = %q, want cancelled_coverage", action)
	}
	if !strings.Contains(details, "financial_hardship") {
		t.Fatalf("details = %q does not carry the reason", details)
	}

	// Empty reason falls back to customer_request.
	_, details = ResolveFinalAction(DecisionDecline, nil, "", "cancel")
	if !strings.Contains(details, "customer_request") {
		t.Fatalf("details = %q", details)
	}
}

func TestResolveFinalActionKeptCoverage(t *testing.T) {
	t.Parallel()

	action, _ := ResolveFinalAction(DecisionUndecided, nil, "", "ill just keep what i have")
	if action != "kept_coverage" {
		t.Fatalf("action = %q, want kept_coverage", action)
	}
}

func TestSelectedOffer(t *testing.T) {
	t.Parallel()

	offers := []offer.Offer{
		{Type: offer.TypeDiscount, DiscountPercent: 15},
		{Type: offer.TypePause, DurationMonths: 2},
	}

	sel := SelectedOffer("accepted_pause", offers)
	if sel == nil || sel.Type != offer.TypePause {
		t.Fatalf("SelectedOffer() = %+v, want pause offer", sel)
	}
	if sel := SelectedOffer("cancelled_coverage", offers); sel != nil {
		t.Fatalf("SelectedOffer(cancelled_coverage) = %+v, want nil", sel)
	}
	if sel := SelectedOffer("accepted_upgrade", offers); sel != nil {
		t.Fatalf("SelectedOffer(accepted_upgrade) = %+v, want nil", sel)
	}
}
