package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bizledger-backend/api/controllers"
	authcontrollers "github.com/angelmondragon/bizledger-backend/api/controllers/auth"
	"github.com/angelmondragon/bizledger-backend/api/middleware"
	"github.com/angelmondragon/bizledger-backend/internal/auth"
	"github.com/angelmondragon/bizledger-backend/internal/businesses"
	"github.com/angelmondragon/bizledger-backend/internal/contacts"
	"github.com/angelmondragon/bizledger-backend/internal/invoices"
	"github.com/angelmondragon/bizledger-backend/internal/notifications"
	"github.com/angelmondragon/bizledger-backend/pkg/auth/session"
	"github.com/angelmondragon/bizledger-backend/pkg/config"
	"github.com/angelmondragon/bizledger-backend/pkg/db"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/logger"
	"github.com/angelmondragon/bizledger-backend/pkg/metrics"
	"github.com/angelmondragon/bizledger-backend/pkg/redis"
)

// Services groups the domain services mounted by the router.
type Services struct {
	Auth          auth.Service
	Businesses    businesses.Service
	Members       controllers.MembersService
	Contacts      contacts.Service
	Invoices      invoices.Service
	Notifications notifications.Service
}

// NewRouter mounts every route. reg may be nil, in which case no metrics are
// collected or exposed. redisClient may be nil in tests; rate limiting and
// idempotency are then skipped.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	reg *prometheus.Registry,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	gate middleware.BusinessGate,
	svc Services,
) http.Handler {
	var registerer prometheus.Registerer
	if reg != nil && cfg.Metrics.Enabled {
		registerer = reg
	}
	httpMetrics := metrics.NewHTTPMetrics(registerer)
	accessMetrics := metrics.NewAccessMetrics(registerer)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	readiness := map[string]controllers.Pinger{"db": dbP}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if registerer != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	rateLimit := func(name string) func(http.Handler) http.Handler {
		policy := loginPolicy(cfg.AuthRateLimit)
		if name == "register" {
			policy = registerPolicy(cfg.AuthRateLimit)
		}
		if redisClient == nil {
			return middleware.AuthRateLimit(policy, nil, logg)
		}
		return middleware.AuthRateLimit(policy, redisClient, logg)
	}
	idempotent := func(next http.Handler) http.Handler {
		if redisClient == nil {
			return middleware.Idempotency(nil, logg)(next)
		}
		return middleware.Idempotency(redisClient, logg)(next)
	}
	requireRole := func(role enums.MemberRole) func(http.Handler) http.Handler {
		return middleware.RequireBusinessRole(gate, accessMetrics, logg, role)
	}
	requirePage := func(role enums.MemberRole) func(http.Handler) http.Handler {
		return middleware.RequireBusinessPage(gate, accessMetrics, logg, role)
	}
	authenticated := middleware.Auth(cfg.JWT, sessions, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit("register"), idempotent).Post("/register", authcontrollers.Register(svc.Auth, logg))
			r.With(rateLimit("login")).Post("/login", authcontrollers.Login(svc.Auth, cfg, logg))
			r.Post("/refresh", authcontrollers.Refresh(svc.Auth, cfg, logg))
			r.With(authenticated).Post("/logout", authcontrollers.Logout(svc.Auth, cfg, logg))
			r.With(authenticated).Post("/switch-business", authcontrollers.SwitchBusiness(svc.Auth, cfg, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/businesses", controllers.ListMyBusinesses(svc.Businesses, logg))
			r.With(idempotent).Post("/businesses", controllers.CreateBusiness(svc.Businesses, logg))

			r.Route("/businesses/{businessId}", func(r chi.Router) {
				r.With(requireRole(enums.MemberRoleEmployee)).Get("/", controllers.GetBusiness(svc.Businesses, logg))
				r.With(requireRole(enums.MemberRoleAdmin)).Patch("/", controllers.UpdateBusiness(svc.Businesses, logg))
				r.With(requireRole(enums.MemberRoleOwner)).Delete("/", controllers.DeleteBusiness(svc.Businesses, logg))

				r.With(requireRole(enums.MemberRoleManager)).Get("/members", controllers.ListMembers(svc.Members, logg))
				r.With(requireRole(enums.MemberRoleAdmin), idempotent).Post("/members", controllers.AddMember(svc.Members, logg))
				r.With(requireRole(enums.MemberRoleAdmin)).Patch("/members/{userId}", controllers.UpdateMember(svc.Members, logg))
				r.With(requireRole(enums.MemberRoleAdmin)).Delete("/members/{userId}", controllers.RemoveMember(svc.Members, logg))

				mountContacts(r, "/customers", enums.ContactKindCustomer, svc.Contacts, requireRole, logg)
				mountContacts(r, "/vendors", enums.ContactKindVendor, svc.Contacts, requireRole, logg)

				r.With(requireRole(enums.MemberRoleEmployee)).Get("/invoices", controllers.ListInvoices(svc.Invoices, logg))
				r.With(requireRole(enums.MemberRoleAccountant), idempotent).Post("/invoices", controllers.CreateInvoice(svc.Invoices, logg))
				r.With(requireRole(enums.MemberRoleEmployee)).Get("/invoices/{invoiceId}", controllers.GetInvoice(svc.Invoices, logg))
				r.With(requireRole(enums.MemberRoleAccountant)).Post("/invoices/{invoiceId}/status", controllers.UpdateInvoiceStatus(svc.Invoices, logg))

				r.Route("/notifications", func(r chi.Router) {
					r.Use(requireRole(enums.MemberRoleEmployee))
					r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
					r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
					r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
				})
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, sessions, logg))

		r.Get("/auth/login", controllers.Placeholder("login", "sign in to continue"))
		r.Get("/auth/businessSetup", controllers.Placeholder("business_setup", "create or join a business to continue"))
		r.Get("/forbidden", controllers.Placeholder("forbidden", "your role does not allow this page"))

		r.Route("/app/businesses/{businessId}", func(r chi.Router) {
			r.With(requirePage(enums.MemberRoleEmployee)).Get("/", controllers.BusinessPage(svc.Businesses, logg))
			r.With(requirePage(enums.MemberRoleAdmin)).Get("/settings", controllers.BusinessSettingsPage(svc.Businesses, svc.Members, logg))
		})
	})

	return r
}

func mountContacts(r chi.Router, prefix string, kind enums.ContactKind, svc contacts.Service, requireRole func(enums.MemberRole) func(http.Handler) http.Handler, logg *logger.Logger) {
	r.Route(prefix, func(r chi.Router) {
		r.With(requireRole(enums.MemberRoleEmployee)).Get("/", controllers.ListContacts(svc, kind, logg))
		r.With(requireRole(enums.MemberRoleManager)).Post("/", controllers.CreateContact(svc, kind, logg))
		r.With(requireRole(enums.MemberRoleEmployee)).Get("/{contactId}", controllers.GetContact(svc, kind, logg))
		r.With(requireRole(enums.MemberRoleManager)).Patch("/{contactId}", controllers.UpdateContact(svc, kind, logg))
		r.With(requireRole(enums.MemberRoleAdmin)).Delete("/{contactId}", controllers.DeleteContact(svc, kind, logg))
	})
}

func loginPolicy(cfg config.AuthRateLimitConfig) middleware.AuthRateLimitPolicy {
	return middleware.AuthRateLimitPolicy{
		Name:       "login",
		Window:     cfg.LoginWindow,
		IPLimit:    cfg.LoginIPLimit,
		EmailLimit: cfg.LoginEmailLimit,
	}
}

func registerPolicy(cfg config.AuthRateLimitConfig) middleware.AuthRateLimitPolicy {
	return middleware.AuthRateLimitPolicy{
		Name:       "register",
		Window:     cfg.RegisterWindow,
		IPLimit:    cfg.RegisterIPLimit,
		EmailLimit: cfg.RegisterEmailLimit,
	}
}
