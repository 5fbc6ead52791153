package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/auth"
	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

const dbTimeout = 5 * time.Second

// UserStore is the part of the user repository the auth endpoints use.
type UserStore interface {
	Create(ctx context.Context, username, password, fullName string, cost int) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
}

// TokenStore persists refresh tokens by hash.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	Rotate(ctx context.Context, oldHash, newHash string, exp, now time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler serves registration, login, token refresh and logout.
type AuthHandler struct {
	cfg    config.Config
	users  UserStore
	tokens TokenStore
	gate   *auth.Gate
	log    *logger.Logger
	now    func() time.Time
}

func NewAuthHandler(cfg config.Config, users UserStore, tokens TokenStore, gate *auth.Gate, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &AuthHandler{cfg: cfg, users: users, tokens: tokens, gate: gate, log: log, now: time.Now}
}

type registerReq struct {
	Username string `json:"username" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"fullName" validate:"required,max=255"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutReq struct {
	RefreshToken string `json:"refreshToken"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

type authResp struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	User             userPart  `json:"user"`
}

// issue signs an access token and stores a fresh refresh token for u.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	now := h.now()
	access, err := utils.NewAccessToken(h.cfg.JWTSecret, u.ID, u.Username, h.cfg.AccessTTL, now)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.cfg.RefreshTTL, now)
	if err != nil {
		return authResp{}, err
	}
	if err := h.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return newAuthResp(u, access, refresh), nil
}

func newAuthResp(u model.User, access utils.AccessToken, refresh utils.RefreshToken) authResp {
	return authResp{
		AccessToken:      access.Token,
		AccessExpiresAt:  access.Exp,
		RefreshToken:     refresh.Raw,
		RefreshExpiresAt: refresh.Exp,
		User:             userPart{ID: u.ID, Username: u.Username, FullName: u.FullName},
	}
}

// Register handles POST /register. The new user is signed in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req, func() {
		req.Username = repository.NormalizeUsername(req.Username)
		req.FullName = strings.TrimSpace(req.FullName)
	}); err != nil {
		return respond(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.users.Create(ctx, req.Username, req.Password, req.FullName, h.cfg.BcryptCost)
	if errors.Is(err, repository.ErrUsernameExists) {
		return respond(c, h.log, errUsernameTaken)
	}
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	out, err := h.issue(ctx, u)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	h.log.InfoContext(ctx, "user registered", slog.Uint64("user_id", u.ID))
	return c.JSON(http.StatusOK, out)
}

// Login handles POST /login. Unknown users and wrong passwords get the same
// response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req, func() { req.Username = repository.NormalizeUsername(req.Username) }); err != nil {
		return respond(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return respond(c, h.log, errBadCredentials)
	}
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return respond(c, h.log, errBadCredentials)
	}
	if utils.NeedsRehash(u.PasswordHash, h.cfg.BcryptCost) {
		h.rehash(ctx, u.ID, req.Password)
	}

	out, err := h.issue(ctx, u)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	return c.JSON(http.StatusOK, out)
}

// rehash upgrades a stored hash to the configured cost. Failure only costs
// another attempt at the next login.
func (h *AuthHandler) rehash(ctx context.Context, userID uint64, password string) {
	hash, err := utils.HashPassword(password, h.cfg.BcryptCost)
	if err == nil {
		err = h.users.UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		h.log.WarnContext(ctx, "password rehash failed", slog.Uint64("user_id", userID), slog.Any("error", err))
	}
}

// Refresh handles POST /refresh-token. The presented refresh token is
// revoked and replaced, so each one works once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req, func() { req.RefreshToken = strings.TrimSpace(req.RefreshToken) }); err != nil {
		return respond(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	now := h.now()
	next, err := utils.NewRefreshToken(h.cfg.RefreshTTL, now)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	userID, err := h.tokens.Rotate(ctx, utils.HashRefreshRaw(req.RefreshToken), utils.HashRefreshRaw(next.Raw), next.Exp, now)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return respond(c, h.log, errRefreshInvalid)
	}
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}

	u, err := h.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return respond(c, h.log, errRefreshInvalid)
	}
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	access, err := utils.NewAccessToken(h.cfg.JWTSecret, u.ID, u.Username, h.cfg.AccessTTL, now)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	return c.JSON(http.StatusOK, newAuthResp(u, access, next))
}

// Logout handles POST /logout. A refresh token in the body revokes that
// session; otherwise a valid bearer token revokes every session of its user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := c.Bind(&req); err != nil {
		return respond(c, h.log, errBadBody.Wrap(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.tokens.ValidateRefresh(ctx, hash, h.now()); err != nil {
			if errors.Is(err, repository.ErrTokenInvalid) {
				return respond(c, h.log, errRefreshInvalid)
			}
			return respond(c, h.log, errInternal.Wrap(err))
		}
		if err := h.tokens.RevokeByHash(ctx, hash); err != nil {
			return respond(c, h.log, errInternal.Wrap(err))
		}
		return c.NoContent(http.StatusNoContent)
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return respond(c, h.log, errBadBody.Msg("refreshToken or a bearer token is required"))
	}
	p, err := h.gate.AuthorizeHeader(ctx, header)
	if err != nil {
		return respond(c, h.log, err)
	}
	if err := h.tokens.RevokeAllForUser(ctx, p.UserID); err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	return c.NoContent(http.StatusNoContent)
}
