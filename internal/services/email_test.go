package services

import (
	"context"
	"errors"
	"testing"

	"github.com/plan8/plan8-contacts/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, html, text string
}

type fakeMailer struct {
	err  error
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, html, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, html, text})
	return nil
}

type fakeRenderer struct {
	err  error
	name string
}

func (r *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	if r.err != nil {
		return "", "", "", r.err
	}
	r.name = name
	d := data.(*domain.PartyInvitationEmailData)
	return "Invite: " + d.PartyName, "<p>" + d.FirstName + "</p>", d.FirstName, nil
}

func TestEmailService_SendPartyInvitation(t *testing.T) {
	ctx := context.Background()
	data := &domain.PartyInvitationEmailData{Email: "ada@engine.io", FirstName: "Ada", PartyName: "Midsummer"}

	t.Run("renders and sends", func(t *testing.T) {
		mailer, renderer := &fakeMailer{}, &fakeRenderer{}
		svc := NewEmailService(mailer, renderer, testLogger)
		require.NoError(t, svc.SendPartyInvitation(ctx, data))
		assert.Equal(t, "party_invitation", renderer.name)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, sentMail{"ada@engine.io", "Invite: Midsummer", "<p>Ada</p>", "Ada"}, mailer.sent[0])
	})

	t.Run("render failure", func(t *testing.T) {
		mailer := &fakeMailer{}
		svc := NewEmailService(mailer, &fakeRenderer{err: errors.New("bad template")}, testLogger)
		require.Error(t, svc.SendPartyInvitation(ctx, data))
		assert.Empty(t, mailer.sent)
	})

	t.Run("mailer failure", func(t *testing.T) {
		sesErr := errors.New("throttled")
		svc := NewEmailService(&fakeMailer{err: sesErr}, &fakeRenderer{}, testLogger)
		err := svc.SendPartyInvitation(ctx, data)
		assert.ErrorIs(t, err, sesErr)
	})

	t.Run("nil data", func(t *testing.T) {
		svc := NewEmailService(&fakeMailer{}, &fakeRenderer{}, testLogger)
		require.Error(t, svc.SendPartyInvitation(ctx, nil))
	})
}
