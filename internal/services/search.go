package services

import (
	"context"
	"strings"

	"github.com/plan8/plan8-contacts/internal/domain"
)

// minFuzzyTermLen is the shortest term the domain fallback runs for.
const minFuzzyTermLen = 2

type domainFuzzySearcher struct {
	contactRepo domain.ContactRepository
}

// NewDomainFuzzySearcher returns a ContactSearcher that scans every contact with
// an email and matches the term against the labels of the email domain.
func NewDomainFuzzySearcher(contactRepo domain.ContactRepository) domain.ContactSearcher {
	return &domainFuzzySearcher{contactRepo: contactRepo}
}

func (s *domainFuzzySearcher) Search(ctx context.Context, term string) ([]*domain.Contact, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	contacts, err := s.contactRepo.ListWithEmail(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Contact, 0)
	for _, c := range contacts {
		if matchesEmailDomain(c.Email, term) {
			out = append(out, c)
		}
	}
	return out, nil
}

// matchesEmailDomain is true when term is inside a domain label, a label is
// inside term, or term is inside the whole domain.
func matchesEmailDomain(email, term string) bool {
	parts := strings.Split(email, "@")
	if len(parts) < 2 || term == "" {
		return false
	}
	domain := strings.ToLower(parts[1])
	if domain == "" {
		return false
	}
	if strings.Contains(domain, term) {
		return true
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			continue
		}
		if strings.Contains(label, term) || strings.Contains(term, label) {
			return true
		}
	}
	return false
}
