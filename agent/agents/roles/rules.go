package roles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/techflow/careline/agent/offer"
	statex "github.com/techflow/careline/agent/state"
)

// The rule tables below do the deterministic half of the conversation:
// identity extraction, intent classification, and decision detection. The
// chat models only phrase responses; they never decide routing.

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// ExtractEmail returns the first email address found in text, or "".
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

var cancellationKeywords = []string{
	"cancel",
	"terminate",
	"stop",
	"end subscription",
	"too expensive",
	"afford",
	"switching",
	"don't need",
	"no longer",
	"get rid of",
	"remove",
	"return it and cancel",
}

var billingKeywords = []string{
	"bill",
	"charged",
	"charges",
	"cost",
	"price",
	"invoice",
	"payment",
	"refund",
	"amount",
	"how much",
	"why was i",
	"fee",
	"extra charge",
}

var techKeywords = []string{
	"broken",
	"not working",
	"screen",
	"battery",
	"charging",
	"charge",
	"won't charge",
	"wont charge",
	"won't turn on",
	"glitch",
	"repair",
	"fix",
	"overheating",
	"crash",
	"freeze",
	"defect",
	"hardware",
	"device issue",
	"phone issue",
	"problem with",
}

// ClassifyIntent maps an utterance to an intent. Cancellation wins over
// billing wins over technical: a customer with a broken device who wants out
// still goes to retention.
func ClassifyIntent(text string) statex.Intent {
	lower := strings.ToLower(text)

	if containsAny(lower, cancellationKeywords) {
		return statex.IntentCancellation
	}
	if containsAny(lower, billingKeywords) {
		return statex.IntentBilling
	}
	if containsAny(lower, techKeywords) {
		return statex.IntentTechnical
	}
	return statex.IntentGeneral
}

// reasonMapping is ordered: the first group with a keyword hit wins.
var reasonMapping = []struct {
	reason   string
	keywords []string
}{
	{"financial_hardship", []string{
		"can't afford", "too expensive", "cost", "money", "budget",
		"financial", "save money", "cheaper",
	}},
	{"not_using", []string{
		"never use", "haven't used", "don't use", "unused",
		"not worth it", "no claims",
	}},
	{"product_defect", []string{
		"broken", "defect", "not working", "problem with phone",
		"overheating", "screen issue", "battery problem",
	}},
	{"too_expensive", []string{
		"expensive", "high price", "costly", "price",
	}},
	{"switching_carrier", []string{
		"switching", "new carrier", "moving to", "changing provider",
	}},
}

// DetectReason maps the user transcript to a cancellation reason category,
// falling back to "other".
func DetectReason(transcript string) string {
	lower := strings.ToLower(transcript)
	for _, m := range reasonMapping {
		if containsAny(lower, m.keywords) {
			return m.reason
		}
	}
	return "other"
}

var policyTriggers = []string{
	"what does",
	"coverage",
	"benefit",
	"worth",
	"value",
	"what's included",
	"return",
	"replacement",
	"defect",
	"never used",
	"don't use",
}

// NeedsPolicyContext reports whether the recent transcript warrants a policy
// document lookup before replying.
func NeedsPolicyContext(recentTranscript string) bool {
	return containsAny(strings.ToLower(recentTranscript), policyTriggers)
}

// Decision is the customer's reaction to the presented offers.
type Decision string

const (
	DecisionAccept    Decision = "accept"
	DecisionDecline   Decision = "decline"
	DecisionUndecided Decision = "undecided"
)

var acceptKeywords = []string{
	"yes",
	"ok",
	"sure",
	"accept",
	"sounds good",
	"i'll take",
	"that works",
	"agree",
	"deal",
}

var declineKeywords = []string{
	"no thanks",
	"still want to cancel",
	"not interested",
	"just cancel",
	"proceed with cancellation",
	"decline",
}

// DetectDecision classifies the customer's reply to an offer. Decline is
// checked first so "no thanks, just cancel" is not misread as acceptance
// via the bare "no" substring rules.
func DetectDecision(text string) Decision {
	lower := strings.ToLower(text)

	if containsAny(lower, declineKeywords) {
		return DecisionDecline
	}
	if containsAny(lower, acceptKeywords) {
		return DecisionAccept
	}
	return DecisionUndecided
}

var escalationKeywords = []string{
	"lawyer",
	"attorney",
	"legal action",
	"lawsuit",
	"sue you",
	"suing",
	"injury",
	"injured",
	"hurt me",
	"hospital",
}

var refundAmountPattern = regexp.MustCompile(`(?i)refund[^.?!$]*\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// DetectEscalation reports whether the utterance must be handed to a human:
// legal or injury claims, or a refund demand above the auto-approval cap.
func DetectEscalation(text string) (bool, string) {
	lower := strings.ToLower(text)

	if containsAny(lower, escalationKeywords) {
		return true, "legal_or_injury_claim"
	}

	if m := refundAmountPattern.FindStringSubmatch(text); m != nil {
		raw := strings.ReplaceAll(m[1], ",", "")
		if amount, err := strconv.ParseFloat(raw, 64); err == nil && amount > offer.MaxAutoRefundUSD {
			return true, fmt.Sprintf("refund_request_over_%d", int(offer.MaxAutoRefundUSD))
		}
	}

	return false, ""
}

// ResolveFinalAction decides what to record once the customer has reacted to
// the offers. Returns (action, details).
func ResolveFinalAction(decision Decision, offers []offer.Offer, reason, recentText string) (string, string) {
	lower := strings.ToLower(recentText)

	if decision == DecisionAccept && len(offers) > 0 {
		for _, o := range offers {
			switch o.Type {
			case offer.TypeDiscount:
				if strings.Contains(lower, "discount") || strings.Contains(lower, "%") {
					return "accepted_discount", o.Description
				}
			case offer.TypePause:
				if strings.Contains(lower, "pause") {
					return "accepted_pause", o.Description
				}
			case offer.TypeUpgrade:
				if strings.Contains(lower, "upgrade") {
					return "accepted_upgrade", o.Description
				}
			}
		}
		// Unclear which one; take the lead offer.
		first := offers[0]
		return "accepted_" + first.Type, first.Description
	}

	if decision == DecisionDecline {
		if strings.TrimSpace(reason) == "" {
			reason = "customer_request"
		}
		return "cancelled_coverage", "reason: " + reason
	}

	return "kept_coverage", "customer decided to keep current coverage"
}

// SelectedOffer returns the offer matching a resolved accepted_<type>
// action, or nil for non-acceptance actions.
func SelectedOffer(action string, offers []offer.Offer) *offer.Offer {
	typ, ok := strings.CutPrefix(action, "accepted_")
	if !ok {
		return nil
	}
	for i := range offers {
		if offers[i].Type == typ {
			o := offers[i]
			return &o
		}
	}
	return nil
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
