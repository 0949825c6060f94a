package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	"github.com/aussiebroadwan/gatehouse/internal/idp/service"
	"github.com/aussiebroadwan/gatehouse/internal/idp/store"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	ownKeyID string
	store    store.Store
	gateway  gateway.Resources
	cookies  *httpx.SessionCookies

	Tokens   *service.TokenIssuer
	Grants   *service.GrantAuthenticator
	Bearer   *service.BearerAuthenticator
	Sessions *service.SessionResolver
	Saml     *service.SamlProcessor
}

func NewRouter(
	buildVersion, ownKeyID string,
	st store.Store,
	gw gateway.Resources,
	cookies *httpx.SessionCookies,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		ownKeyID:     ownKeyID,
		store:        st,
		gateway:      gw,
		cookies:      cookies,
	}

	r.middlewares = []httpx.Middleware{
		httpx.WrapMiddleware(),
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerSaml()
	r.registerAccount()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	tokenHandler := &TokenHandler{Grants: r.Grants}

	// All grant types are brute-forceable; limit the endpoint by IP.
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.NewRateLimiter(httpx.StrictLimit).Middleware(),
		),
	)
}

func (r *Router) registerSaml() {
	callback := &SamlCallbackHandler{
		Processor: r.Saml,
		Tokens:    r.Tokens,
		Cookies:   r.cookies,
	}
	r.Mux.Handle("GET /v1/saml/callback", callback)
}

func (r *Router) registerAccount() {
	me := &MeHandler{Gateway: r.gateway}

	// Browsers ride the session cookies; API callers present a bearer
	// token, which the session middleware leaves alone and the handler
	// sees as anonymous. Bearer routes use RequireBearer instead.
	r.Mux.Handle("GET /v1/me",
		httpx.Chain(me, WithSession(r.Sessions)),
	)

	r.Mux.Handle("GET /v1/introspect",
		httpx.Chain(me, RequireBearer(r.Bearer)),
	)
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.HandleFunc("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.gateway, r.ownKeyID))
}
