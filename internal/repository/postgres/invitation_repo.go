package postgres

import (
	"context"
	"database/sql"

	"github.com/plan8/plan8-contacts/internal/domain"
)

const invitationColumns = `id, party_id, contact_id, invited_by, status, sent_at, responded_at, notes, created_at, updated_at`

type invitationRepository struct {
	DB *sql.DB
}

// NewInvitationRepository returns a domain.InvitationRepository implemented with Postgres.
func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

func scanInvitation(s rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	var sentAt, respondedAt sql.NullTime
	var notes sql.NullString
	err := s.Scan(&inv.ID, &inv.PartyID, &inv.ContactID, &inv.InvitedBy, &inv.Status,
		&sentAt, &respondedAt, &notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.SentAt = timePtr(sentAt)
	inv.RespondedAt = timePtr(respondedAt)
	inv.Notes = notes.String
	return inv, nil
}

// Create inserts inv. The (party_id, contact_id) unique constraint surfaces as ErrDuplicateInvitation.
func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (party_id, contact_id, invited_by, status, sent_at, responded_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.PartyID, inv.ContactID, inv.InvitedBy, string(inv.Status),
		nullTime(inv.SentAt), nullTime(inv.RespondedAt), nullString(inv.Notes), inv.CreatedAt, inv.UpdatedAt,
	).Scan(&inv.ID)
	return duplicateError(err, domain.ErrDuplicateInvitation)
}

func (r *invitationRepository) get(ctx context.Context, query string, args ...any) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	return r.get(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
}

func (r *invitationRepository) GetByPartyAndContact(ctx context.Context, partyID, contactID string) (*domain.Invitation, error) {
	return r.get(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE party_id = $1 AND contact_id = $2`, partyID, contactID)
}

func (r *invitationRepository) list(ctx context.Context, query string, arg string) ([]*domain.Invitation, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	invs := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *invitationRepository) ListByParty(ctx context.Context, partyID string) ([]*domain.Invitation, error) {
	return r.list(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE party_id = $1 ORDER BY created_at, id`, partyID)
}

func (r *invitationRepository) ListByContact(ctx context.Context, contactID string) ([]*domain.Invitation, error) {
	return r.list(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE contact_id = $1 ORDER BY created_at DESC, id`, contactID)
}

// UpdateStatus writes the status and notes of inv. sent_at and responded_at
// are only filled while still NULL, so a stored timestamp is never replaced.
func (r *invitationRepository) UpdateStatus(ctx context.Context, inv *domain.Invitation) error {
	query := `
		UPDATE invitations
		SET status = $1, sent_at = COALESCE(sent_at, $2), responded_at = COALESCE(responded_at, $3),
			notes = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.DB.ExecContext(ctx, query,
		string(inv.Status), nullTime(inv.SentAt), nullTime(inv.RespondedAt), nullString(inv.Notes), inv.UpdatedAt, inv.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invitationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invitationRepository) deleteWhere(ctx context.Context, query, arg string) (int, error) {
	result, err := r.DB.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

func (r *invitationRepository) DeleteByContact(ctx context.Context, contactID string) (int, error) {
	return r.deleteWhere(ctx, `DELETE FROM invitations WHERE contact_id = $1`, contactID)
}

func (r *invitationRepository) DeleteByParty(ctx context.Context, partyID string) (int, error) {
	return r.deleteWhere(ctx, `DELETE FROM invitations WHERE party_id = $1`, partyID)
}
