package middleware

import (
	"context"
	"net/http"
	"strings"

	"gacha_backend/pkg/resp"
	"gacha_backend/pkg/token"
)

type ctxKey struct{}

// requestUser создает RequestLogger, Auth записывает в нее ID пользователя
type requestUser struct {
	id string
}

type requestUserKey struct{}

// Auth проверяет bearer токен и кладет ID пользователя в контекст
func Auth(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				resp.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := token.VerifyToken(strings.TrimSpace(raw), secretKey)
			if err != nil {
				resp.WriteError(w, http.StatusUnauthorized, "invalid access token")
				return
			}

			userID := claims.UserID()
			if holder, ok := r.Context().Value(requestUserKey{}).(*requestUser); ok {
				holder.id = userID
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
