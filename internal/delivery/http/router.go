package http

import (
	"log/slog"
	"net/http"

	_ "github.com/plan8/plan8-contacts/docs"
	"github.com/plan8/plan8-contacts/internal/delivery/http/controllers"
	"github.com/plan8/plan8-contacts/internal/delivery/http/middleware"
	"github.com/plan8/plan8-contacts/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

const apiPrefix = "/api"

// Controllers groups every controller the router mounts.
type Controllers struct {
	Auth        *controllers.AuthController
	Contacts    *controllers.ContactController
	Parties     *controllers.PartyController
	Invitations *controllers.InvitationController
	Public      *controllers.PublicController
}

// NewRouter initializes the HTTP router with all application routes.
// Everything except auth, the public party pages and swagger requires a bearer token.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	open := func(method, path string, h http.HandlerFunc) {
		mux.HandleFunc(method+" "+apiPrefix+path, h)
	}
	protected := func(method, path string, h http.HandlerFunc) {
		mux.HandleFunc(method+" "+apiPrefix+path, auth(h))
	}

	// Auth
	open("POST", "/auth/signup", c.Auth.SignUp)
	open("POST", "/auth/login", c.Auth.Login)

	// Public party page
	open("GET", "/public/parties/{partyID}", c.Public.GetParty)
	open("POST", "/public/parties/{partyID}/attend", c.Public.Attend)

	// Contacts
	protected("GET", "/contacts", c.Contacts.List)
	protected("POST", "/contacts", c.Contacts.Create)
	protected("GET", "/contacts/companies", c.Contacts.Companies)
	protected("GET", "/contacts/created-by", c.Contacts.CreatedBy)
	protected("GET", "/contacts/suggest-company", c.Contacts.SuggestCompany)
	protected("POST", "/contacts/batch-delete", c.Contacts.BatchDelete)
	protected("POST", "/contacts/import/csv", c.Contacts.ImportCSV)
	protected("POST", "/contacts/import/linkedin", c.Contacts.ImportLinkedIn)
	protected("GET", "/contacts/{id}", c.Contacts.Get)
	protected("PATCH", "/contacts/{id}", c.Contacts.Update)
	protected("DELETE", "/contacts/{id}", c.Contacts.Delete)
	protected("GET", "/contacts/{id}/invitations", c.Invitations.ByContact)

	// Parties
	protected("GET", "/parties", c.Parties.List)
	protected("POST", "/parties", c.Parties.Create)
	protected("POST", "/parties/batch-status", c.Parties.BatchStatus)
	protected("PATCH", "/parties/{id}", c.Parties.Update)
	protected("DELETE", "/parties/{id}", c.Parties.Delete)
	protected("GET", "/parties/{id}/invitations", c.Parties.GetWithInvitations)
	protected("GET", "/parties/{id}/stats", c.Parties.Stats)
	protected("GET", "/parties/{id}/guests", c.Invitations.Guests)
	protected("POST", "/parties/{id}/bulk-invite", c.Invitations.BulkInvite)
	protected("POST", "/parties/{id}/send-invitations", c.Invitations.SendInvitations)

	// Invitations
	protected("POST", "/invitations", c.Invitations.Create)
	protected("POST", "/invitations/batch-status", c.Invitations.BatchStatus)
	protected("POST", "/invitations/batch-delete", c.Invitations.BatchDelete)
	protected("PATCH", "/invitations/{id}/status", c.Invitations.UpdateStatus)
	protected("POST", "/invitations/{id}/undo-check-in", c.Invitations.UndoCheckIn)
	protected("DELETE", "/invitations/{id}", c.Invitations.Delete)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with request ids, access logging and CORS.
func NewHandler(mux http.Handler, logger *slog.Logger, allowedOrigins []string) http.Handler {
	return middleware.RequestID(middleware.LoggingMiddleware(logger, middleware.CORS(allowedOrigins, mux)))
}
