package middleware // package middleware contains the HTTP middleware shared by the API routes

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/soulspace-ledger/internal/logging"
    "github.com/iliyamo/soulspace-ledger/internal/utils"
)

// ErrUnauthenticated is returned by a Gate for any credential it cannot
// resolve to an existing user.
var ErrUnauthenticated = errors.New("unauthenticated")

// Gate resolves the Authorization header of a request to a user id.
type Gate interface {
    Resolve(ctx context.Context, authorization string) (uint64, error)
}

// UserChecker reports whether a user id still exists.
type UserChecker interface {
    Exists(ctx context.Context, id uint64) (bool, error)
}

// TokenGate accepts "Bearer <access token>" headers signed with Secret.
// When Users is set, tokens of deleted users are rejected as well.
type TokenGate struct {
    Secret string
    Users  UserChecker
}

func (g TokenGate) Resolve(ctx context.Context, authorization string) (uint64, error) {
    if !strings.HasPrefix(authorization, "Bearer ") {
        return 0, ErrUnauthenticated
    }
    raw := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
    id, err := utils.ParseAccessToken(g.Secret, raw)
    if err != nil {
        return 0, ErrUnauthenticated
    }
    if g.Users == nil {
        return id, nil
    }
    ok, err := g.Users.Exists(ctx, id)
    if err != nil {
        return 0, err
    }
    if !ok {
        return 0, ErrUnauthenticated
    }
    return id, nil
}

// RequireUser runs gate on every request and stores the resolved user id
// under the "user_id" context key. Unresolvable requests get 401; a gate
// that fails for any other reason yields 500.
func RequireUser(gate Gate, log logging.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            id, err := gate.Resolve(ctx, c.Request().Header.Get(echo.HeaderAuthorization))
            if errors.Is(err, ErrUnauthenticated) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            if err != nil {
                log.Error(ctx, "access gate failed", "err", err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
            }
            c.Set(userIDKey, id)
            return next(c)
        }
    }
}
