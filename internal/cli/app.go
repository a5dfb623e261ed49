package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/plan8/plan8-contacts/config"
	"github.com/plan8/plan8-contacts/internal/adapters/activity"
	"github.com/plan8/plan8-contacts/internal/adapters/auth"
	"github.com/plan8/plan8-contacts/internal/adapters/email"
	"github.com/plan8/plan8-contacts/internal/domain"
	"github.com/plan8/plan8-contacts/internal/repository/postgres"
	"github.com/plan8/plan8-contacts/internal/services"

	"github.com/redis/rueidis"
	"golang.org/x/crypto/bcrypt"
)

// app is the wired service graph shared by the commands.
type app struct {
	db    *sql.DB
	redis rueidis.Client

	verifier    domain.TokenVerifier
	auth        domain.AuthService
	contacts    domain.ContactService
	parties     domain.PartyService
	invitations domain.InvitationService
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	a := &app{db: db}

	providers, err := config.LoadEmailProviders(cfg.ProvidersFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	var publisher domain.ActivityPublisher
	if cfg.RedisAddr != "" {
		a.redis, err = activity.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			a.Close()
			return nil, err
		}
		publisher = activity.NewRedisPublisher(a.redis, activity.DefaultStream)
	} else {
		publisher = activity.NewNoopPublisher(logger)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	contactRepo := postgres.NewContactRepository(db)
	partyRepo := postgres.NewPartyRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	userRepo := postgres.NewUserRepository(db)
	guesser := services.NewCompanyGuesser(providers)
	timeout := cfg.RequestTimeout

	a.verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	a.auth = services.NewAuthService(userRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), auth.NewJWTIssuer(cfg.JWTSecret), cfg.JWTExpiry, timeout)
	a.contacts = services.NewContactService(contactRepo, invitationRepo, userRepo, services.NewDomainFuzzySearcher(contactRepo), guesser, timeout)
	a.parties = services.NewPartyService(partyRepo, invitationRepo, contactRepo, userRepo, timeout)
	a.invitations = services.NewInvitationService(
		invitationRepo, partyRepo, contactRepo, userRepo,
		emailService, publisher, guesser, logger,
		cfg.PublicBaseURL, timeout,
	)
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
