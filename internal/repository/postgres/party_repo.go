package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/plan8/plan8-contacts/internal/domain"
)

const partyColumns = `id, name, description, date, location, status, created_by, created_at, updated_at`

type partyRepository struct {
	DB *sql.DB
}

// NewPartyRepository returns a domain.PartyRepository implemented with Postgres.
func NewPartyRepository(db *sql.DB) domain.PartyRepository {
	return &partyRepository{DB: db}
}

func scanParty(s rowScanner) (*domain.Party, error) {
	p := &domain.Party{}
	var desc, location sql.NullString
	var date sql.NullTime
	if err := s.Scan(&p.ID, &p.Name, &desc, &date, &location, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Description = desc.String
	p.Location = location.String
	p.Date = timePtr(date)
	return p, nil
}

func (r *partyRepository) Create(ctx context.Context, p *domain.Party) error {
	query := `
		INSERT INTO parties (name, description, date, location, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		p.Name, nullString(p.Description), nullTime(p.Date), nullString(p.Location), p.Status, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *partyRepository) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	p, err := scanParty(r.DB.QueryRowContext(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *partyRepository) List(ctx context.Context) ([]*domain.Party, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+partyColumns+` FROM parties ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	parties := make([]*domain.Party, 0)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

func (r *partyRepository) Update(ctx context.Context, id string, patch domain.PartyPatch) (*domain.Party, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	if patch.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", n))
		args = append(args, *patch.Name)
		n++
	}
	if patch.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, nullString(*patch.Description))
		n++
	}
	if patch.Date != nil {
		setClauses = append(setClauses, fmt.Sprintf("date = $%d", n))
		args = append(args, *patch.Date)
		n++
	}
	if patch.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", n))
		args = append(args, nullString(*patch.Location))
		n++
	}
	if patch.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", n))
		args = append(args, string(*patch.Status))
		n++
	}
	if n == 1 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE parties SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, partyColumns)
	p, err := scanParty(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *partyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM parties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
