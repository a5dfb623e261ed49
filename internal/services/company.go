package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CompanyGuesser derives a company name from an email domain.
type CompanyGuesser struct {
	providers map[string]struct{}
}

// NewCompanyGuesser returns a guesser that ignores the given consumer mail domains.
func NewCompanyGuesser(providers []string) *CompanyGuesser {
	m := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		m[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return &CompanyGuesser{providers: m}
}

// Guess returns the capitalized second-level label of the email domain,
// e.g. "Acme" for alice@acme.io. ok is false for addresses without a domain,
// for consumer providers and for single-label domains.
func (g *CompanyGuesser) Guess(email string) (company string, ok bool) {
	parts := strings.Split(email, "@")
	if len(parts) < 2 {
		return "", false
	}
	domain := strings.ToLower(strings.TrimSpace(parts[1]))
	if domain == "" {
		return "", false
	}
	if _, denied := g.providers[domain]; denied {
		return "", false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return "", false
	}
	name := labels[len(labels)-2]
	if name == "" {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:], true
}
