package http

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"eventbooking/internal/delivery/http/controllers"
	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// RouterDeps are the collaborators the HTTP surface is built from.
type RouterDeps struct {
	Logger         *slog.Logger
	Verifier       domain.TokenVerifier
	Users          middleware.UserLoader
	AuthLimiter    *middleware.IPRateLimiter
	AllowedOrigins []string

	Auth      *controllers.AuthController
	User      *controllers.UserController
	Event     *controllers.EventController
	Taxonomy  *controllers.TaxonomyController
	RSVP      *controllers.RSVPController
	Review    *controllers.ReviewController
	External  *controllers.ExternalEventController
	Dashboard *controllers.DashboardController
}

// NewRouter initializes the HTTP router with all application routes wrapped in the
// middleware chain.
func NewRouter(d RouterDeps) http.Handler {
	var h http.Handler = newMux(d)
	h = middleware.Authenticate(d.Verifier, d.Users, d.Logger)(h)
	h = middleware.CORS(d.AllowedOrigins)(h)
	h = chimw.Recoverer(h)
	h = middleware.Logging(d.Logger)(h)
	h = chimw.RealIP(h)
	h = chimw.RequestID(h)
	return h
}

func newMux(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	authed := middleware.RequireAuth
	limited := d.AuthLimiter.Limit

	// Accounts
	mux.HandleFunc("POST /accounts/register", limited(d.Auth.Register))
	mux.HandleFunc("POST /accounts/login", limited(d.Auth.Login))
	mux.HandleFunc("POST /accounts/token/refresh", d.Auth.Refresh)
	mux.HandleFunc("GET /accounts/verify-email", d.Auth.VerifyEmail)
	mux.HandleFunc("POST /accounts/resend-verification", limited(d.Auth.ResendVerification))
	mux.HandleFunc("POST /accounts/reset-password", limited(d.Auth.RequestPasswordReset))
	mux.HandleFunc("GET /accounts/reset-password/verify", d.Auth.VerifyPasswordReset)
	mux.HandleFunc("POST /accounts/reset-password/confirm", d.Auth.ConfirmPasswordReset)
	mux.HandleFunc("POST /accounts/validate-email", d.Auth.ValidateEmail)
	mux.HandleFunc("GET /accounts/profile", authed(d.User.GetProfile))
	mux.HandleFunc("PUT /accounts/profile", authed(d.User.UpdateProfile))
	mux.HandleFunc("PATCH /accounts/profile", authed(d.User.UpdateProfile))
	mux.HandleFunc("DELETE /accounts/profile", authed(d.User.DeleteProfile))

	// Events
	mux.HandleFunc("GET /events", d.Event.ListEvents)
	mux.HandleFunc("POST /events", authed(d.Event.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", d.Event.GetEvent)
	mux.HandleFunc("PUT /events/{eventID}", authed(d.Event.UpdateEvent))
	mux.HandleFunc("PATCH /events/{eventID}", authed(d.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", authed(d.Event.DeleteEvent))
	mux.HandleFunc("GET /events/{eventID}/attendees", authed(d.Event.ListAttendees))
	mux.HandleFunc("GET /events/{eventID}/stats", authed(d.Event.GetStats))
	mux.HandleFunc("GET /events/{eventID}/insights", authed(d.Event.GetInsights))
	mux.HandleFunc("GET /events/{eventID}/rsvp-status", authed(d.RSVP.Status))
	mux.HandleFunc("GET /events/{eventID}/reviews", d.Review.ListEventReviews)

	// RSVPs
	mux.HandleFunc("POST /rsvps/events/{eventID}", authed(d.RSVP.Respond))
	mux.HandleFunc("PUT /rsvps/events/{eventID}", authed(d.RSVP.Respond))
	mux.HandleFunc("POST /rsvps/events/{eventID}/cancel", authed(d.RSVP.Cancel))
	mux.HandleFunc("GET /rsvps/my-events", authed(d.RSVP.MyEvents))
	mux.HandleFunc("GET /rsvps/my-rsvps", authed(d.RSVP.MyRSVPs))

	// Reviews
	mux.HandleFunc("POST /reviews", authed(d.Review.CreateReview))
	mux.HandleFunc("GET /reviews/mine", authed(d.Review.MyReviews))
	mux.HandleFunc("PUT /reviews/{reviewID}", authed(d.Review.UpdateReview))
	mux.HandleFunc("PATCH /reviews/{reviewID}", authed(d.Review.UpdateReview))
	mux.HandleFunc("DELETE /reviews/{reviewID}", authed(d.Review.DeleteReview))

	// Taxonomy
	mux.HandleFunc("GET /categories", d.Taxonomy.ListCategories)
	mux.HandleFunc("POST /categories", authed(d.Taxonomy.CreateCategory))
	mux.HandleFunc("GET /categories/{categoryID}", d.Taxonomy.GetCategory)
	mux.HandleFunc("PUT /categories/{categoryID}", authed(d.Taxonomy.UpdateCategory))
	mux.HandleFunc("DELETE /categories/{categoryID}", authed(d.Taxonomy.DeleteCategory))
	mux.HandleFunc("GET /tags", d.Taxonomy.ListTags)
	mux.HandleFunc("POST /tags", authed(d.Taxonomy.CreateTag))
	mux.HandleFunc("GET /tags/{tagID}", d.Taxonomy.GetTag)
	mux.HandleFunc("PUT /tags/{tagID}", authed(d.Taxonomy.UpdateTag))
	mux.HandleFunc("DELETE /tags/{tagID}", authed(d.Taxonomy.DeleteTag))

	// External providers
	mux.HandleFunc("GET /external-events/search", authed(d.External.Search))
	mux.HandleFunc("GET /external-events", authed(d.External.ListExternalEvents))
	mux.HandleFunc("GET /external-events/{externalEventID}", authed(d.External.GetExternalEvent))
	mux.HandleFunc("POST /external-events/{externalEventID}/import", authed(d.External.Import))

	// Dashboards
	mux.HandleFunc("GET /organizer/dashboard", authed(d.Dashboard.Organizer))
	mux.HandleFunc("GET /organizer/events/upcoming", authed(d.Dashboard.UpcomingEvents))
	mux.HandleFunc("GET /organizer/events/past", authed(d.Dashboard.PastEvents))
	mux.HandleFunc("GET /organizer/events/{eventID}/attendees", authed(d.Dashboard.EventAttendees))
	mux.HandleFunc("GET /admin/dashboard", authed(d.Dashboard.Admin))
	mux.HandleFunc("GET /admin/users/analytics", authed(d.Dashboard.UserAnalytics))
	mux.HandleFunc("GET /admin/categories/usage", authed(d.Taxonomy.CategoryUsage))
	mux.HandleFunc("GET /admin/tags/usage", authed(d.Taxonomy.TagUsage))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)
	return mux
}
