// Package auth turns request credentials into a Principal. Every failure,
// including a token for a user that no longer exists and a request scoped to
// somebody else's data, is reported as ErrUnauthenticated.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

var (
	ErrUnauthenticated = apperr.New(apperr.KindUnauthenticated, "unauthenticated", "authentication required")
	ErrLookupFailed    = apperr.New(apperr.KindFatal, "auth_lookup_failed", "internal server error")
)

// Principal is the authenticated identity of a request.
type Principal struct {
	UserID   uint64
	Username string
}

// UserLookup resolves the subject of a token. found is false when no such
// user exists.
type UserLookup interface {
	UserByID(ctx context.Context, id uint64) (u model.User, found bool, err error)
}

// Gate validates access tokens.
type Gate struct {
	secret string
	users  UserLookup
	now    func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGate(secret string, users UserLookup, opts ...GateOption) *Gate {
	g := &Gate{secret: secret, users: users, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AuthorizeHeader authorizes an Authorization header value of the form
// "Bearer <token>".
func (g *Gate) AuthorizeHeader(ctx context.Context, header string) (Principal, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return Principal{}, ErrUnauthenticated.Msg("missing bearer token")
	}
	return g.Authorize(ctx, strings.TrimSpace(token))
}

// Authorize validates token and resolves its user.
func (g *Gate) Authorize(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrUnauthenticated.Msg("missing bearer token")
	}
	claims, uid, err := utils.ParseAccessToken(g.secret, token, g.now)
	if err != nil {
		return Principal{}, ErrUnauthenticated.Msg("invalid token").Wrap(err)
	}
	u, found, err := g.users.UserByID(ctx, uid)
	if err != nil {
		return Principal{}, ErrLookupFailed.Wrap(err)
	}
	if !found {
		return Principal{}, ErrUnauthenticated.Msg("invalid token")
	}
	username := u.Username
	if username == "" {
		username = claims.Username
	}
	return Principal{UserID: u.ID, Username: username}, nil
}

// RequireSelf fails unless p acts on its own data. A mismatch is reported the
// same way as missing credentials, whether or not userID exists.
func RequireSelf(p Principal, userID uint64) error {
	if p.UserID == 0 || p.UserID != userID {
		return ErrUnauthenticated.Msg("token does not belong to this user")
	}
	return nil
}
