package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/formrelay/internal/common"
	"github.com/dmitrijs2005/formrelay/internal/server/auth"
)

type ctxKey int

const userIDKey ctxKey = iota

// UserID returns the authenticated user's ID stored by the auth middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// authMiddleware validates the bearer access token and stores the user ID
// in the request context. Expired tokens yield a 401 carrying the
// expired-token message the client keys its refresh on.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthHeaderName)
		if !strings.HasPrefix(header, common.AuthSchemePrefix) {
			writeError(w, http.StatusUnauthorized, common.ErrorUnauthorized.Error())
			return
		}
		token := strings.TrimPrefix(header, common.AuthSchemePrefix)

		userID, err := auth.GetUserIDFromToken(token, []byte(s.secretKey))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}
