package domain

import (
	"context"
	"strings"
	"time"
)

// ContactSource records how a contact entered the system.
type ContactSource string

const (
	SourceManual   ContactSource = "manual"
	SourceCSV      ContactSource = "csv"
	SourceLinkedIn ContactSource = "linkedin"
	SourcePublic   ContactSource = "public"
)

// Contact is a person record kept independently of any party.
// swagger:model Contact
type Contact struct {
	ID        string        `json:"id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Position  string        `json:"position"`
	Company   string        `json:"company"`
	Tags      []string      `json:"tags"`
	Notes     string        `json:"notes"`
	Source    ContactSource `json:"source"`
	CreatedBy string        `json:"created_by"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// FullName returns "first last" with surrounding whitespace removed.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ContactPatch is a partial update; nil fields are left unchanged.
type ContactPatch struct {
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Position  *string   `json:"position"`
	Company   *string   `json:"company"`
	Tags      *[]string `json:"tags"`
	Notes     *string   `json:"notes"`
}

// Empty reports whether the patch changes nothing.
func (p ContactPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil &&
		p.Position == nil && p.Company == nil && p.Tags == nil && p.Notes == nil
}

// ContactSortField names a sortable contact column.
type ContactSortField string

const (
	SortByFirstName   ContactSortField = "firstName"
	SortByLastName    ContactSortField = "lastName"
	SortByEmail       ContactSortField = "email"
	SortByCompany     ContactSortField = "company"
	SortByCreatedTime ContactSortField = "createdTime"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseContactSortField defaults to createdTime and rejects unknown fields.
func ParseContactSortField(s string) (ContactSortField, error) {
	switch ContactSortField(s) {
	case "":
		return SortByCreatedTime, nil
	case SortByFirstName, SortByLastName, SortByEmail, SortByCompany, SortByCreatedTime:
		return ContactSortField(s), nil
	}
	return "", InvalidInputf("unknown sort field %q", s)
}

// ParseSortOrder defaults to desc and rejects anything but asc/desc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "":
		return OrderDesc, nil
	case OrderAsc, OrderDesc:
		return SortOrder(s), nil
	}
	return "", InvalidInputf("unknown sort order %q", s)
}

// ContactListParams are the inputs of ContactService.List.
type ContactListParams struct {
	Pagination PaginationParams
	Search     string
	Company    string
	CreatedBy  string
	SortBy     ContactSortField
	Order      SortOrder
}

// ContactQuery is the repository-level form of a non-search listing.
type ContactQuery struct {
	Company    string
	CreatedBy  string
	SortBy     ContactSortField
	Order      SortOrder
	Pagination PaginationParams
}

// ContactPage is one page of contacts plus pagination metadata.
type ContactPage struct {
	Items    []*Contact `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	IsDone   bool       `json:"is_done"`
}

// ImportRow is one contact row from a CSV import.
type ImportRow struct {
	FirstName string
	LastName  string
	Email     string
	Company   string
}

// LinkedInRow is one row from a LinkedIn connections export.
type LinkedInRow struct {
	FirstName   string
	LastName    string
	Email       string
	Company     string
	Position    string
	URL         string
	ConnectedOn string
}

// ImportDuplicate describes a skipped import row.
type ImportDuplicate struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// ImportSummary counts the outcome of an import.
type ImportSummary struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportResult is returned by the import operations.
type ImportResult struct {
	Imported   []string          `json:"imported"`
	Duplicates []ImportDuplicate `json:"duplicates"`
	Summary    ImportSummary     `json:"summary"`
}

// UserOption is a display projection of a contact creator.
type UserOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ContactRepository defines storage operations for contacts.
type ContactRepository interface {
	Create(ctx context.Context, c *Contact) error
	GetByID(ctx context.Context, id string) (*Contact, error)
	GetByEmail(ctx context.Context, email string) (*Contact, error)
	Update(ctx context.Context, id string, patch ContactPatch) (*Contact, error)
	Delete(ctx context.Context, id string) error
	// SearchByFirstName matches words of first_name starting with term.
	SearchByFirstName(ctx context.Context, term, company string, params PaginationParams) ([]*Contact, int, error)
	List(ctx context.Context, q ContactQuery) ([]*Contact, int, error)
	ListWithEmail(ctx context.Context) ([]*Contact, error)
	ListCompanies(ctx context.Context) ([]string, error)
	ListCreatorIDs(ctx context.Context) ([]string, error)
}

// ContactSearcher is a secondary search strategy used when the indexed first-name search finds nothing.
type ContactSearcher interface {
	Search(ctx context.Context, term string) ([]*Contact, error)
}

// ContactService defines contact management operations.
type ContactService interface {
	Get(ctx context.Context, callerID, id string) (*Contact, error)
	List(ctx context.Context, callerID string, params ContactListParams) (*ContactPage, error)
	Create(ctx context.Context, callerID string, c *Contact) error
	Update(ctx context.Context, callerID, id string, patch ContactPatch) (*Contact, error)
	Remove(ctx context.Context, callerID, id string) error
	BatchDelete(ctx context.Context, callerID string, ids []string) (int, error)
	ImportFromCSV(ctx context.Context, callerID string, rows []ImportRow) (*ImportResult, error)
	ImportFromLinkedIn(ctx context.Context, callerID string, rows []LinkedInRow) (*ImportResult, error)
	GetCompanies(ctx context.Context, callerID string) ([]string, error)
	GetCreatedByUsers(ctx context.Context, callerID string) ([]UserOption, error)
	SuggestCompanyFromEmail(ctx context.Context, callerID, email string) (string, bool, error)
}
