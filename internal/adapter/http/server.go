package adapthttp

import (
	"net/http"

	"luminapos/internal/app"
	"luminapos/internal/domain"
	"luminapos/internal/metrics"
	"luminapos/internal/persistence"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Services groups the application services the adapter drives.
type Services struct {
	Licenses *app.LicenseService
	Admin    *app.AdminService
	Sessions *app.SessionService
	Catalog  *app.CatalogService
	Debts    *app.DebtService
	Finance  *app.FinanceService
	Shop     *app.ShopService
}

// ModeReporter exposes the current persistence mode.
type ModeReporter interface {
	Mode() persistence.Mode
}

// OIDCConfig configures admin single sign-on.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
	// Allowed lists the e-mails or subjects granted admin access. Empty denies
	// every identity.
	Allowed []string
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc        Services
	mode       ModeReporter
	metrics    *metrics.Metrics
	oidcConfig OIDCConfig
	log        *zap.Logger
}

// New creates a Server wired to the given application services. metrics may be
// nil.
func New(svc Services, mode ModeReporter, m *metrics.Metrics, oidcCfg OIDCConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, mode: mode, metrics: m, oidcConfig: oidcCfg, log: log.Named("http")}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(withNoCache)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/license", s.handleLicenseLogin)
			r.Get("/admin/status", s.handleAdminStatus)
			r.Post("/admin/setup", s.handleAdminSetup)
			r.Post("/admin/login", s.handleAdminLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/sso/login", s.handleSSOLogin)
			r.Get("/sso/callback", s.handleSSOCallback)
		})

		r.Get("/licenses/plans", s.handlePlans)
		r.Post("/licenses/purchase", s.handlePurchase)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession(domain.RoleAdmin))
			r.Get("/admin/licenses", s.handleListLicenses)
			r.Post("/admin/licenses", s.handleIssueLicense)
			r.Get("/admin/licenses/stats", s.handleLicenseStats)
			r.Post("/admin/licenses/{id}/revoke", s.handleRevokeLicense)
			r.Put("/admin/credentials", s.handleChangeCredentials)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession(domain.RoleAdmin, domain.RoleLicense))
			r.Get("/session", s.handleSession)

			r.Get("/products", s.handleListProducts)
			r.Put("/products", s.handleSaveProduct)
			r.Delete("/products/{id}", s.handleDeleteProduct)

			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleRecordTransaction)

			r.Get("/debts", s.handleListDebts)
			r.Post("/debts", s.handleAddDebt)
			r.Post("/debts/{id}/payments", s.handleDebtPayment)

			r.Get("/financials", s.handleListFinancials)
			r.Post("/financials", s.handleAddFinancial)

			r.Get("/shop-profile", s.handleShopProfile)
			r.Put("/shop-profile", s.handleSaveShopProfile)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := persistence.Online
	if s.mode != nil {
		mode = s.mode.Mode()
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"ok": true, "mode": mode.String()})
}
