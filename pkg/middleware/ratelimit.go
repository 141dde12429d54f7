package middleware

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/iota-uz/workbook-import/pkg/httpapi"
)

func NewMemoryStore() limiter.Store {
	return memory.NewStore()
}

// RateLimit limits requests per client IP. rate uses the limiter format,
// e.g. "30-M" for thirty requests a minute.
func RateLimit(rate string, store limiter.Store, logger logrus.FieldLogger) (mux.MiddlewareFunc, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, errors.Wrapf(err, "parse rate limit %q", rate)
	}
	if store == nil {
		store = NewMemoryStore()
	}
	instance := limiter.New(store, parsed)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			_ = httpapi.WriteError(w, http.StatusTooManyRequests, httpapi.CodeRateLimited,
				"too many requests", map[string]string{"path": r.URL.Path})
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WithError(err).Error("rate limiter failed")
			_ = httpapi.WriteError(w, http.StatusInternalServerError, httpapi.CodeInternal,
				"internal server error", nil)
		}),
	)
	return mw.Handler, nil
}
