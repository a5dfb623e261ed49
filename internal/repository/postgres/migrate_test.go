package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/plan8/plan8-contacts/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, Migrate(context.Background(), db))

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(sql.ErrConnDone)
	require.ErrorIs(t, Migrate(context.Background(), db), sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchema_DeclaresUniqueConstraints(t *testing.T) {
	assert.Contains(t, schema, "CONSTRAINT invitations_party_contact_key UNIQUE (party_id, contact_id)")
	assert.Contains(t, schema, "CREATE UNIQUE INDEX IF NOT EXISTS contacts_email_key ON contacts (lower(email))")
}

func TestErrorMapping(t *testing.T) {
	assert.ErrorIs(t, duplicateError(&pq.Error{Code: "23505"}, domain.ErrDuplicateEmail), domain.ErrDuplicateEmail)
	other := errors.New("boom")
	assert.Equal(t, other, duplicateError(other, domain.ErrDuplicateEmail))
	assert.NoError(t, duplicateError(nil, domain.ErrDuplicateEmail))
	assert.ErrorIs(t, notFound(sql.ErrNoRows), domain.ErrNotFound)
}
