package service

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gamewiki/issuestore/client"
	"github.com/gamewiki/issuestore/internal/domain"
)

var tracer = otel.Tracer("auth")

// ErrUnauthorized means the token was rejected by GitHub.
var ErrUnauthorized = errors.New("unauthorized")

// UserResolver looks up the GitHub user behind a token.
type UserResolver interface {
	GetAuthenticatedUser(ctx context.Context, token string) (*client.User, error)
}

type AuthService struct {
	resolver UserResolver
	cache    *cache.Cache
}

func NewAuthService(resolver UserResolver, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AuthService{
		resolver: resolver,
		cache:    cache.New(ttl, 2*ttl),
	}
}

// tokenKey is a 128-bit digest of token. Cache hits are not re-validated.
func tokenKey(token string) string {
	sum := xxh3.HashString128(token).Bytes()
	return hex.EncodeToString(sum[:])
}

// Authenticate resolves a user token to its owner. Results are cached by a
// hash of the token so the raw token is never kept in memory longer than
// the request.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Owner, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Authenticate")
	defer span.End()

	if token == "" {
		return domain.Owner{}, ErrUnauthorized
	}

	key := tokenKey(token)
	if cached, found := s.cache.Get(key); found {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached.(domain.Owner), nil
	}

	user, err := s.resolver.GetAuthenticatedUser(ctx, token)
	if err != nil {
		span.RecordError(err)
		if client.IsUnauthorized(err) {
			return domain.Owner{}, ErrUnauthorized
		}
		return domain.Owner{}, domain.TransportError{Op: "resolve user", Err: err}
	}
	if user.ID == 0 {
		return domain.Owner{}, ErrUnauthorized
	}

	owner := domain.Owner{UserID: user.ID, Username: user.Login}
	s.cache.Set(key, owner, cache.DefaultExpiration)
	span.SetAttributes(attribute.Int64("userId", owner.UserID))
	return owner, nil
}
