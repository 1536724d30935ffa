package auth

import (
	"context"
	"net/http"
)

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by RequireUser or RequireAdmin.
func ClaimsFromContext(ctx context.Context) (AccessClaims, bool) {
	c, ok := ctx.Value(claimsKey{}).(AccessClaims)
	return c, ok
}

// RequireUser rejects requests that cannot be authenticated from cookies.
func (h *Handler) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return h.require(next, false)
}

// RequireAdmin additionally requires the admin flag.
func (h *Handler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.require(next, true)
}

func (h *Handler) require(next http.HandlerFunc, adminOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		access, refresh := h.cookies.read(r)
		res, err := h.svc.Resolve(r.Context(), access, refresh)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if res.MintedAccessToken != "" {
			h.cookies.SetAccess(w, res.MintedAccessToken)
		}
		if err := Authorize(res.Claims, adminOnly); err != nil {
			h.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, res.Claims)))
	}
}
