package services

import (
	"sort"
	"strings"

	"github.com/plan8/plan8-contacts/internal/domain"
)

// SortContacts sorts in place. Strings compare byte-wise as stored and
// equal keys keep their input order.
func SortContacts(contacts []*domain.Contact, by domain.ContactSortField, order domain.SortOrder) {
	sort.SliceStable(contacts, func(i, j int) bool {
		c := compareContacts(contacts[i], contacts[j], by)
		if order == domain.OrderAsc {
			return c < 0
		}
		return c > 0
	})
}

func compareContacts(a, b *domain.Contact, by domain.ContactSortField) int {
	switch by {
	case domain.SortByFirstName:
		return strings.Compare(a.FirstName, b.FirstName)
	case domain.SortByLastName:
		return strings.Compare(a.LastName, b.LastName)
	case domain.SortByEmail:
		return strings.Compare(a.Email, b.Email)
	case domain.SortByCompany:
		return strings.Compare(a.Company, b.Company)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
