package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/plan8/plan8-contacts/internal/domain"

	"github.com/lib/pq"
)

const contactColumns = `id, first_name, last_name, email, phone, position, company, tags, notes, source, created_by, created_at, updated_at`

type contactRepository struct {
	DB *sql.DB
}

// NewContactRepository returns a domain.ContactRepository implemented with Postgres.
func NewContactRepository(db *sql.DB) domain.ContactRepository {
	return &contactRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(s rowScanner) (*domain.Contact, error) {
	c := &domain.Contact{}
	var email, phone, position, company, notes sql.NullString
	var tags []string
	err := s.Scan(
		&c.ID, &c.FirstName, &c.LastName, &email, &phone, &position, &company,
		pq.Array(&tags), &notes, &c.Source, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Email = email.String
	c.Phone = phone.String
	c.Position = position.String
	c.Company = company.String
	c.Notes = notes.String
	if tags == nil {
		tags = []string{}
	}
	c.Tags = tags
	return c, nil
}

func (r *contactRepository) Create(ctx context.Context, c *domain.Contact) error {
	query := `
		INSERT INTO contacts (first_name, last_name, email, phone, position, company, tags, notes, source, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	err := r.DB.QueryRowContext(ctx, query,
		c.FirstName, c.LastName, nullString(c.Email), nullString(c.Phone), nullString(c.Position),
		nullString(c.Company), pq.Array(tags), nullString(c.Notes), c.Source, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	return duplicateError(err, domain.ErrDuplicateEmail)
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *contactRepository) GetByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE lower(email) = lower($1)`
	c, err := scanContact(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *contactRepository) Update(ctx context.Context, id string, p domain.ContactPatch) (*domain.Contact, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	set := func(column string, v any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, v)
		n++
	}
	if p.FirstName != nil {
		set("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		set("last_name", *p.LastName)
	}
	if p.Email != nil {
		set("email", nullString(*p.Email))
	}
	if p.Phone != nil {
		set("phone", nullString(*p.Phone))
	}
	if p.Position != nil {
		set("position", nullString(*p.Position))
	}
	if p.Company != nil {
		set("company", nullString(*p.Company))
	}
	if p.Tags != nil {
		set("tags", pq.Array(*p.Tags))
	}
	if p.Notes != nil {
		set("notes", nullString(*p.Notes))
	}
	if n == 1 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE contacts SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, contactColumns)
	c, err := scanContact(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, duplicateError(notFound(err), domain.ErrDuplicateEmail)
	}
	return c, nil
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// escapeLike quotes LIKE wildcards so term matches literally.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// SearchByFirstName matches first names having a word that starts with term.
func (r *contactRepository) SearchByFirstName(ctx context.Context, term, company string, p domain.PaginationParams) ([]*domain.Contact, int, error) {
	escaped := escapeLike(term)
	where := []string{`(first_name ILIKE $1 OR first_name ILIKE $2)`}
	args := []any{escaped + "%", "% " + escaped + "%"}
	if company != "" {
		args = append(args, company)
		where = append(where, fmt.Sprintf("company = $%d", len(args)))
	}
	return r.page(ctx, strings.Join(where, " AND "), args, "created_at DESC, id", p)
}

var sortColumns = map[domain.ContactSortField]string{
	domain.SortByFirstName: `first_name COLLATE "C"`,
	domain.SortByLastName:  `last_name COLLATE "C"`,
	domain.SortByEmail:     `COALESCE(email, '') COLLATE "C"`,
	domain.SortByCompany:   `COALESCE(company, '') COLLATE "C"`,
}

func orderBy(by domain.ContactSortField, order domain.SortOrder) string {
	dir := "DESC"
	if order == domain.OrderAsc {
		dir = "ASC"
	}
	col, ok := sortColumns[by]
	if !ok {
		return fmt.Sprintf("created_at %s, id", dir)
	}
	return fmt.Sprintf("%s %s, created_at %s, id", col, dir, dir)
}

func (r *contactRepository) List(ctx context.Context, q domain.ContactQuery) ([]*domain.Contact, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if q.Company != "" {
		args = append(args, q.Company)
		where = append(where, fmt.Sprintf("company = $%d", len(args)))
	}
	if q.CreatedBy != "" {
		args = append(args, q.CreatedBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	return r.page(ctx, strings.Join(where, " AND "), args, orderBy(q.SortBy, q.Order), q.Pagination)
}

// page counts rows matching where and returns one ordered page of them.
func (r *contactRepository) page(ctx context.Context, where string, args []any, order string, p domain.PaginationParams) ([]*domain.Contact, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		contactColumns, where, order, n+1, n+2)
	pageArgs := append(append([]any{}, args...), p.PageSize, p.Offset())
	contacts, err := r.query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

func (r *contactRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	contacts := make([]*domain.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *contactRepository) ListWithEmail(ctx context.Context) ([]*domain.Contact, error) {
	return r.query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE email IS NOT NULL ORDER BY created_at DESC`)
}

func (r *contactRepository) column(ctx context.Context, query string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *contactRepository) ListCompanies(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT DISTINCT company FROM contacts WHERE company IS NOT NULL AND company <> ''`)
}

func (r *contactRepository) ListCreatorIDs(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT DISTINCT created_by FROM contacts`)
}
