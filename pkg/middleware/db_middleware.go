package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/iota-uz/workbook-import/pkg/composables"
)

// WithDB puts the root database handle into the request context. Importers
// open their own transactions from it.
func WithDB(db *gorm.DB) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithDB(r.Context(), db)))
		})
	}
}

// WithPool exposes the postgres pool to raw SQL read paths. A nil pool
// leaves those paths on gorm.
func WithPool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}
