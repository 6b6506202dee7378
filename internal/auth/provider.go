package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/smart-attendance/attendance/internal/access"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return c
}

// Provider attaches the caller identity from a Bearer token. Requests with a
// missing, invalid or revoked token continue without an identity and are
// turned away by the access gate where a route requires one.
type Provider struct {
	tokens  *TokenIssuer
	revoked RevocationStore
	logger  *slog.Logger
}

// NewProvider constructs a Provider.
func NewProvider(tokens *TokenIssuer, revoked RevocationStore, logger *slog.Logger) *Provider {
	return &Provider{tokens: tokens, revoked: revoked, logger: logger}
}

// Middleware resolves the identity for each request.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := p.tokens.Parse(raw)
		if err != nil {
			p.logger.Debug("reject token", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}
		if p.revoked != nil {
			revoked, err := p.revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				p.logger.Warn("check token revocation", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}
			if revoked {
				next.ServeHTTP(w, r)
				return
			}
		}
		// Unknown roles are attached as-is; no tier accepts them.
		ctx := access.WithIdentity(r.Context(), access.Identity{ID: claims.Subject, Role: access.Role(claims.Role)})
		ctx = context.WithValue(ctx, claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
