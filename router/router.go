package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

func init() { huma.NewError = newError } //nolint: gochecknoinits // huma error factory is package-global

// New returns a mux serving probes, metrics and the huma API configured by opts.
func New(
	title, version string,
	readiness http.HandlerFunc,
	metrics http.HandlerFunc,
	opts ...func(huma.API),
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/liveness", func(http.ResponseWriter, *http.Request) {})
	if readiness != nil {
		mux.HandleFunc("/readiness", readiness)
	}
	if metrics != nil {
		mux.HandleFunc("/metrics", metrics)
	}

	api := humago.New(mux, huma.DefaultConfig(title, version))
	for _, opt := range opts {
		opt(api)
	}

	return mux
}

func OptUseMiddleware(middlewares ...func(huma.Context, func(huma.Context))) func(huma.API) {
	return func(api huma.API) { api.UseMiddleware(middlewares...) }
}

func OptGroup(prefix string, opts ...func(huma.API)) func(huma.API) {
	return func(api huma.API) {
		group := huma.NewGroup(api, prefix)
		for _, opt := range opts {
			opt(group)
		}
	}
}

func OptAutoRegister(server any) func(huma.API) {
	return func(api huma.API) { huma.AutoRegister(api, server) }
}

// ErrorModel is the body of every error response.
type ErrorModel struct {
	Status  int    `json:"-"`
	Message string `json:"error" example:"name must be unique" doc:"Human readable error message"`
}

func (e *ErrorModel) Error() string  { return e.Message }
func (e *ErrorModel) GetStatus() int { return e.Status }

// newError flattens validation details into the message, other causes stay out of the response.
func newError(status int, msg string, errs ...error) huma.StatusError {
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		var detailer huma.ErrorDetailer
		if errors.As(err, &detailer) {
			d := detailer.ErrorDetail()
			if d.Location != "" {
				details = append(details, d.Location+": "+d.Message)
			} else {
				details = append(details, d.Message)
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if len(details) > 0 {
		msg += ": " + strings.Join(details, ", ")
	}
	return &ErrorModel{Status: status, Message: msg}
}
