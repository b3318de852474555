// Package mailcheck validates registration emails against a fixed allowlist
// of consumer webmail domains. The event hands out prizes in person, so
// disposable or unreachable addresses are rejected up front.
package mailcheck

import "strings"

// AllowedDomains covers the major consumer webmail providers.
var AllowedDomains = []string{
	"gmail.com",
	"googlemail.com",
	"outlook.com",
	"outlook.es",
	"hotmail.com",
	"hotmail.es",
	"live.com",
	"msn.com",
	"icloud.com",
	"me.com",
	"mac.com",
	"yahoo.com",
	"yahoo.es",
	"ymail.com",
	"proton.me",
	"protonmail.com",
}

// Result reports whether an email passed validation and, if not, a
// human-readable reason suitable for showing to the participant.
type Result struct {
	Valid  bool
	Reason string
}

// Normalize trims whitespace and lowercases an email address. All lookups
// and stored emails go through this first.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate normalizes email and checks syntax plus domain allowlist
// membership. It has no side effects.
func Validate(email string) Result {
	trimmed := Normalize(email)

	if trimmed == "" {
		return Result{Reason: "email is required"}
	}

	at := strings.Index(trimmed, "@")
	if at < 1 {
		return Result{Reason: "email is not valid"}
	}

	domain := trimmed[at+1:]
	if domain == "" || !strings.Contains(domain, ".") {
		return Result{Reason: "email is not valid"}
	}

	labels := strings.Split(domain, ".")
	if tld := labels[len(labels)-1]; len(tld) < 2 {
		return Result{Reason: "email is not valid"}
	}

	for _, d := range AllowedDomains {
		if domain == d {
			return Result{Valid: true}
		}
	}
	return Result{Reason: "use a common email provider: Gmail, Outlook, iCloud, Yahoo, Proton…"}
}
