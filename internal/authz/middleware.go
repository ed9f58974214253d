package authz

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

// RequireRole returns a middleware that ensures the requester has at least the required role tier.
func RequireRole(required models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roles, ok := RolesFromRequest(r)
			if !ok || !models.HasAtLeast(roles, required) {
				http.Error(w, "insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleHandler applies the role middleware inline when registering routes.
func RequireRoleHandler(required models.UserRole, next http.Handler) http.Handler {
	return RequireRole(required)(next)
}

// IssueToken signs an HS256 token carrying tenant, subject and roles.
func IssueToken(secret, tenantID, userID string, roles []models.UserRole, ttl time.Duration) (string, error) {
	rolesClaim := make([]string, 0, len(roles))
	for _, role := range roles {
		rolesClaim = append(rolesClaim, string(role))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"tid":   tenantID,
		"role":  string(models.HighestRole(roles)),
		"roles": rolesClaim,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// JWTMiddleware authenticates bearer tokens and puts the identity on the request context.
func JWTMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
				return
			}
			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}
			roles, ok := rolesFromClaims(claims)
			if !ok {
				http.Error(w, "Missing role claim", http.StatusUnauthorized)
				return
			}
			tenantID, ok := claims["tid"].(string)
			if !ok || tenantID == "" {
				http.Error(w, "Missing token claim", http.StatusUnauthorized)
				return
			}
			userID, _ := claims["sub"].(string)
			ctx := WithIdentity(r.Context(), Identity{TenantID: tenantID, UserID: userID, Roles: roles})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rolesFromClaims(claims jwt.MapClaims) ([]models.UserRole, bool) {
	var raw []string
	switch v := claims["roles"].(type) {
	case []interface{}:
		for _, val := range v {
			str, ok := val.(string)
			if !ok {
				return nil, false
			}
			raw = append(raw, str)
		}
	case string:
		raw = []string{v}
	case nil:
		if single, ok := claims["role"].(string); ok && single != "" {
			raw = []string{single}
		}
	default:
		return nil, false
	}

	roles := make([]models.UserRole, 0, len(raw))
	for _, r := range raw {
		roles = append(roles, models.UserRole(r))
	}
	roles = models.NormalizeRoles(roles)
	if !models.IsValidRoleList(roles) {
		return nil, false
	}
	return roles, true
}
