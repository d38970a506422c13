package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobchat/internal/microservices/http-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	HeaderActorType   = "X-Actor-Type"
	HeaderOwnerUserID = "X-Owner-User-Id"
	HeaderCrewID      = "X-Crew-Id"

	identityKey = "identity"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// IdentityResolver turns an inbound request into the caller's identity.
// Handlers never see how the identity was obtained.
type IdentityResolver interface {
	Resolve(r *http.Request) (models.Identity, error)
}

// HeaderResolver trusts identity headers set by an upstream gateway.
// Exactly one of the owner / crew id headers must match the actor type.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (models.Identity, error) {
	actor := strings.TrimSpace(r.Header.Get(HeaderActorType))
	owner := strings.TrimSpace(r.Header.Get(HeaderOwnerUserID))
	crew := strings.TrimSpace(r.Header.Get(HeaderCrewID))

	if owner != "" && crew != "" {
		return models.Identity{}, fmt.Errorf("%w: both %s and %s set", ErrUnauthenticated, HeaderOwnerUserID, HeaderCrewID)
	}

	switch models.ParticipantType(actor) {
	case models.ParticipantTaskOwner:
		id, err := parsePositiveID(owner)
		if err != nil {
			return models.Identity{}, fmt.Errorf("%w: %s: %v", ErrUnauthenticated, HeaderOwnerUserID, err)
		}
		return models.OwnerIdentity(id), nil
	case models.ParticipantCrew:
		id, err := parsePositiveID(crew)
		if err != nil {
			return models.Identity{}, fmt.Errorf("%w: %s: %v", ErrUnauthenticated, HeaderCrewID, err)
		}
		return models.CrewIdentity(id), nil
	}
	return models.Identity{}, fmt.Errorf("%w: %s must be task_owner or crew", ErrUnauthenticated, HeaderActorType)
}

// IdentityClaims is the payload of an identity assertion token.
type IdentityClaims struct {
	ActorType string `json:"actor_type"`
	ActorID   int64  `json:"actor_id"`
	jwt.RegisteredClaims
}

// JWTResolver accepts HS256 bearer tokens carrying IdentityClaims.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (j *JWTResolver) Resolve(r *http.Request) (models.Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return models.Identity{}, fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}

	// format: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.Identity{}, fmt.Errorf("%w: invalid authorization header format", ErrUnauthenticated)
	}

	claims := &IdentityClaims{}
	_, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	var identity models.Identity
	switch models.ParticipantType(claims.ActorType) {
	case models.ParticipantTaskOwner:
		identity = models.OwnerIdentity(claims.ActorID)
	case models.ParticipantCrew:
		identity = models.CrewIdentity(claims.ActorID)
	}
	if !identity.Valid() {
		return models.Identity{}, fmt.Errorf("%w: token does not name a task owner or crew", ErrUnauthenticated)
	}
	return identity, nil
}

// SignIdentityToken issues a token JWTResolver accepts; the CLI token command wraps it.
func SignIdentityToken(secret string, identity models.Identity, ttl time.Duration) (string, error) {
	if !identity.Valid() {
		return "", errors.New("cannot sign an invalid identity")
	}
	now := time.Now()
	claims := IdentityClaims{
		ActorType: string(identity.Kind()),
		ActorID:   identity.ID(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// IdentityMiddleware resolves the caller and stores it for handlers; unresolvable requests get 401.
func IdentityMiddleware(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolver.Resolve(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity set by IdentityMiddleware
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok && identity.Valid()
}

// SetIdentity is for tests and internal callers that already know who is calling.
func SetIdentity(c *gin.Context, identity models.Identity) {
	c.Set(identityKey, identity)
}

func parsePositiveID(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("missing")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
