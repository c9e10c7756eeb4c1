package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/pkg/errors"
)

const (
	defaultIssuer   = "card-portal"
	defaultLifetime = 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token revoked")
)

// Signer signs session tokens and supplies the key to verify them
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)
	GetVerificationKey(token *jwt.Token) (any, error)
	GetSigningMethod() jwt.SigningMethod
}

// HMACsigner signs with HMAC-SHA256 and a shared secret
type HMACsigner struct {
	secret []byte
}

func NewHMACSigner(secret string) *HMACsigner {
	return &HMACsigner{secret: []byte(secret)}
}

func (h *HMACsigner) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(h.GetSigningMethod(), claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "[HMACsigner.Sign] SignedString")
	}
	return signed, nil
}

func (h *HMACsigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACsigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

// Claims is what a verified session token says about its holder
type Claims struct {
	ID          string // jti
	UserID      int
	UserType    users.RoleType
	IsSuperuser bool
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Manager issues, verifies and revokes the session tokens handed out at login
type Manager struct {
	signer   Signer
	issuer   string
	lifetime time.Duration
	revoked  RevokedTokenCache
	nowFunc  func() time.Time
}

type ManagerOption func(*Manager)

func WithLifetime(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.lifetime = d
		}
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revoked = cache
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:   signer,
		issuer:   defaultIssuer,
		lifetime: defaultLifetime,
		revoked:  NewInMemoryRevokedTokenCache(),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Issue creates a signed token for identity
func (m *Manager) Issue(identity *users.Identity) (string, error) {
	if identity == nil {
		return "", errors.New("[Manager.Issue] identity is required")
	}

	now := m.nowFunc()
	claims := jwt.MapClaims{
		"iss":          m.issuer,
		"sub":          strconv.Itoa(identity.ID),
		"user_type":    string(identity.UserType),
		"is_superuser": identity.IsSuperuser,
		"iat":          now.Unix(),
		"exp":          now.Add(m.lifetime).Unix(),
		"jti":          uuid.New().String(),
	}
	return m.signer.Sign(claims)
}

// Verify checks the signature, issuer, expiry and revocation state of raw
func (m *Manager) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.Parse(raw, m.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.Wrap(ErrInvalidToken, "unexpected claims type")
	}
	claims, err := toClaims(mapClaims)
	if err != nil {
		return nil, err
	}
	if m.revoked.IsRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke invalidates raw until it would have expired. Invalid tokens are ignored.
func (m *Manager) Revoke(raw string) {
	claims, err := m.Verify(raw)
	if err != nil {
		return
	}
	m.revoked.Add(claims.ID, claims.ExpiresAt)
	m.revoked.Cleanup(m.nowFunc())
}

func toClaims(mc jwt.MapClaims) (*Claims, error) {
	sub, err := mc.GetSubject()
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, "missing subject")
	}
	userID, err := strconv.Atoi(sub)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidToken, "subject %q", sub)
	}
	jti, _ := mc["jti"].(string)
	if jti == "" {
		return nil, errors.Wrap(ErrInvalidToken, "missing jti")
	}

	claims := &Claims{ID: jti, UserID: userID}
	if userType, ok := mc["user_type"].(string); ok {
		claims.UserType = users.RoleType(userType)
	}
	claims.IsSuperuser, _ = mc["is_superuser"].(bool)
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
