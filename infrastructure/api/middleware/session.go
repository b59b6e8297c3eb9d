package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/internal/log"
)

// TokenCookie is the cookie the web pages read an access token from.
const TokenCookie = "guildhall_token"

// TokenVerifier checks an access token.
type TokenVerifier interface {
	Verify(token string) (service.Identity, error)
}

// ProfileResolver maps a verified identity to its profile.
type ProfileResolver interface {
	EnsureProfile(ctx context.Context, id service.Identity) (profile.Profile, error)
}

// Session attaches the caller's session to the request context.
//
// A request without a token is anonymous. A bad Authorization header is
// rejected with 401. A bad cookie is ignored, since browsers keep stale
// cookies around. A nil verifier leaves every request anonymous.
func Session(verifier TokenVerifier, profiles ProfileResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, fromHeader := bearerToken(r)
			if token == "" && !fromHeader {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				if fromHeader {
					WriteError(w, r, NewAuthenticationError("invalid access token"), logger)
					return
				}
				logger.DebugContext(r.Context(), "ignoring invalid token cookie", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			p, err := profiles.EnsureProfile(r.Context(), identity)
			if err != nil {
				WriteError(w, r, err, logger)
				return
			}

			ctx := session.WithSession(r.Context(), session.New(token, p))
			ctx = log.WithProfileID(ctx, p.ID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token), true
		}
		return "", true
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value, false
	}
	return "", false
}
