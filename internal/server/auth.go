package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/morezaGeek/Server-Monitor/internal/config"
	"github.com/morezaGeek/Server-Monitor/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

const authRealm = `Basic realm="servermon", charset="UTF-8"`

// basicAuth returns middleware that requires the dashboard credentials.
// With no credentials configured it lets everything through.
func basicAuth(cfg config.DashboardConfig, log logger.Logger) func(http.Handler) http.Handler {
	if !cfg.GateEnabled() {
		return func(next http.Handler) http.Handler { return next }
	}

	wantUser := []byte(cfg.Username)
	hash := []byte(cfg.PasswordHash)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if ok {
				userOK := subtle.ConstantTimeCompare([]byte(user), wantUser) == 1
				// Always run bcrypt so a wrong username costs the same as a wrong password.
				passOK := bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
				if userOK && passOK {
					next.ServeHTTP(w, r)
					return
				}
				log.Warn("rejected credentials for %q from %s", user, r.RemoteAddr)
			}

			w.Header().Set("WWW-Authenticate", authRealm)
			writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		})
	}
}
