package routing

import (
	"net/http"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
)

// Action is the kind of routing outcome.
type Action int

const (
	// ActionPass leaves the request untouched.
	ActionPass Action = iota
	// ActionRedirect answers with a 3xx and a Location header.
	ActionRedirect
	// ActionRewrite serves the request from a different internal path.
	ActionRewrite
	// ActionDelegate hands the request to the locale-prefix normalizer.
	ActionDelegate
)

// String returns the action name used in logs and metrics.
func (a Action) String() string {
	switch a {
	case ActionPass:
		return "pass"
	case ActionRedirect:
		return "redirect"
	case ActionRewrite:
		return "rewrite"
	case ActionDelegate:
		return "delegate"
	default:
		return "unknown"
	}
}

// Rule names.
const (
	RuleExcluded    = "excluded"
	RuleCrossDomain = "cross-domain"
	RuleIntroFunnel = "intro-funnel"
	RuleRobots      = "robots"
	RuleDelegate    = "delegate"
)

// Decision is the outcome of routing a single request.
type Decision struct {
	Action Action
	// Target is an absolute URL or an internal path, depending on Action.
	Target string
	// Status is the redirect status; zero for non-redirects.
	Status int
	// Rule names the rule that produced the decision.
	Rule string
	// Locale is the locale the request resolved to, when known.
	Locale i18n.Locale
	// PersistLocale asks the caller to store Locale in the preference cookie.
	PersistLocale bool
}

// Pass returns a pass-through decision for rule.
func Pass(rule string) Decision {
	return Decision{Action: ActionPass, Rule: rule}
}

// Delegate returns the fallthrough decision.
func Delegate() Decision {
	return Decision{Action: ActionDelegate, Rule: RuleDelegate}
}

// Redirect returns a redirect decision.
func Redirect(rule string, target string, status int) Decision {
	return Decision{Action: ActionRedirect, Target: target, Status: status, Rule: rule}
}

// Rewrite returns an internal rewrite decision.
func Rewrite(rule string, target string) Decision {
	return Decision{Action: ActionRewrite, Target: target, Rule: rule}
}

// IsPermanent reports whether the decision is a permanent redirect.
func (d Decision) IsPermanent() bool {
	return d.Action == ActionRedirect && (d.Status == http.StatusMovedPermanently || d.Status == http.StatusPermanentRedirect)
}
