// Package autoreply produces the canned support replies shown when the backend
// cannot answer. Rules are plain keyword checks; no model is involved.
package autoreply

import (
	"strings"

	"laundrychat/internal/logging"
)

// Rule identifies which keyword rule produced a reply.
type Rule string

const (
	RuleOrder    Rule = "order"
	RulePayment  Rule = "payment"
	RuleAccount  Rule = "account"
	RuleGreeting Rule = "greeting"
	RuleDefault  Rule = "default"
)

// Reply is a canned support response.
type Reply struct {
	Rule Rule
	Text string
}

type rule struct {
	id       Rule
	keywords []string
	text     string
}

// Rules are checked in order; the first keyword hit wins.
var rules = []rule{
	{
		id:       RuleOrder,
		keywords: []string{"order", "delivery"},
		text:     "I can help you with your order! Could you please share your order number so I can look into it?",
	},
	{
		id:       RulePayment,
		keywords: []string{"payment", "refund"},
		text:     "For payment and refund questions, I can connect you with our billing team. Would you like me to do that?",
	},
	{
		id:       RuleAccount,
		keywords: []string{"account", "login"},
		text:     "I'd be happy to help with your account. Is this about logging in or about your account settings?",
	},
	{
		id:       RuleGreeting,
		keywords: []string{"hello", "hi"},
		text:     "Hello! Thanks for reaching out to support. How can I help you today?",
	},
}

const defaultText = "Thanks for your message! Could you share a few more details so I can help you better?"

// Match returns the reply for text. Matching is case-insensitive substring search.
func Match(text string) Reply {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return Reply{Rule: r.id, Text: r.text}
			}
		}
	}
	return Reply{Rule: RuleDefault, Text: defaultText}
}

// Responder wraps Match with an enable switch.
type Responder struct {
	enabled bool
}

// NewResponder creates a responder. A disabled responder never replies.
func NewResponder(enabled bool) *Responder {
	return &Responder{enabled: enabled}
}

// Enabled reports whether the responder produces replies.
func (r *Responder) Enabled() bool {
	return r != nil && r.enabled
}

// Reply returns the canned reply for text. ok is false when the responder is disabled.
func (r *Responder) Reply(text string) (reply Reply, ok bool) {
	if !r.Enabled() {
		return Reply{}, false
	}
	reply = Match(text)
	logging.AutoReplyDebug("rule=%s for %q", reply.Rule, truncate(text, 40))
	return reply, true
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
