package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/soulspace-ledger/internal/config"
    "github.com/iliyamo/soulspace-ledger/internal/logging"
    "github.com/iliyamo/soulspace-ledger/internal/middleware"
    "github.com/iliyamo/soulspace-ledger/internal/model"
    "github.com/iliyamo/soulspace-ledger/internal/repository"
    "github.com/iliyamo/soulspace-ledger/internal/utils"
)

// UserStore is the part of *repository.UserRepo the auth endpoints use.
type UserStore interface {
    Create(ctx context.Context, email, password string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
}

// TokenStore is implemented by *repository.TokenRepo.
type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
    Stats  StatsService
    Gate   middleware.Gate
    Log    logging.Logger
    Now    func() time.Time
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, stats StatsService, gate middleware.Gate, log logging.Logger) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Stats: stats, Gate: gate, Log: log, Now: time.Now}
}

// ----- DTOs -----

type credentialsReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type refreshReq struct {
    RefreshToken string `json:"refreshToken"`
}

type authResp struct {
    Token            string      `json:"token"`
    ExpiresAt        time.Time   `json:"expiresAt"`
    RefreshToken     string      `json:"refreshToken"`
    RefreshExpiresAt time.Time   `json:"refreshExpiresAt"`
    User             profileResp `json:"user"`
}

const (
    minPasswordLen = 6
    maxPasswordLen = 72 // bcrypt ignores anything longer
    maxEmailLen    = 255
)

func validCredentials(req *credentialsReq) string {
    req.Email = repository.NormalizeEmail(req.Email)
    switch {
    case req.Email == "" || req.Password == "":
        return "email/password required"
    case len(req.Email) > maxEmailLen || !strings.Contains(req.Email, "@"):
        return "invalid email"
    case len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen:
        return "password must be 6 to 72 characters"
    }
    return ""
}

// Signup: create the user and return a session immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if msg := validCredentials(&req); msg != "" {
        return badRequest(c, msg)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        h.Log.Error(ctx, "create user failed", "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    return h.issue(ctx, c, http.StatusCreated, uid)
}

// Login: verify the password and return a new session.
func (h *AuthHandler) Login(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    req.Email = repository.NormalizeEmail(req.Email)
    if req.Email == "" || req.Password == "" {
        return badRequest(c, "email/password required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if err != nil {
        h.Log.Error(ctx, "load user failed", "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    return h.issue(ctx, c, http.StatusOK, u.ID)
}

// Refresh: validate by hash, revoke the old token, issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return badRequest(c, "refreshToken required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Tokens.ValidateRefresh(ctx, hash, h.Now())
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    if err != nil {
        h.Log.Error(ctx, "validate refresh failed", "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        h.Log.Error(ctx, "revoke refresh failed", "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
    }
    return h.issue(ctx, c, http.StatusOK, uid)
}

// Logout revokes the refresh token in the body, or every token of the
// bearer's user when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    raw := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if raw != "" {
        if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
            h.Log.Error(ctx, "logout failed", "err", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }

    uid, err := h.Gate.Resolve(ctx, c.Request().Header.Get(echo.HeaderAuthorization))
    if errors.Is(err, middleware.ErrUnauthenticated) {
        return badRequest(c, "provide Authorization header or refreshToken")
    }
    if err != nil {
        h.Log.Error(ctx, "logout failed", "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
        h.Log.Error(ctx, "logout failed", "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// issue signs an access token, stores a fresh refresh token and writes the
// session together with the user's profile.
func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, uid uint64) error {
    now := h.Now()
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, h.Cfg.AccessTTL(), now)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTL(), now)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        h.Log.Error(ctx, "save refresh failed", "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }
    p, err := h.Stats.Profile(ctx, uid)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(status, authResp{
        Token:            access.Token,
        ExpiresAt:        access.Exp,
        RefreshToken:     refresh.Raw, // raw back to client
        RefreshExpiresAt: refresh.Exp,
        User:             toProfile(p),
    })
}
