package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdownd/markdownd/internal/httpmw"
	"github.com/markdownd/markdownd/internal/log"
	"github.com/markdownd/markdownd/internal/probe"
)

type Options struct {
	Logger log.Logger
	Port   int

	// APIRoutes registers the service's routes on the public router.
	APIRoutes func(chi.Router)

	// ServiceVersion is surfaced as X-Service-Version on every response.
	ServiceVersion string

	UseRecoverMW bool
	OnPanic      func() // invoked after a recovered panic, e.g. to flip readiness

	MetricsMW   func(http.Handler) http.Handler
	RateLimitMW func(http.Handler) http.Handler

	ClientIPOpts httpmw.ClientIPOptions

	Health    probe.Probe
	Readiness probe.Probe
}
