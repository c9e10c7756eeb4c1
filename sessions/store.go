package sessions

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/storage"
	"github.com/jrsteele09/go-card-portal/users"
)

// Durable storage keys
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Store persists the session pair in a storage.Store
type Store struct {
	kv storage.Store
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Load reads the persisted session. An empty Session and nil error means nothing was stored.
// A partial pair or an identity that does not parse or is empty returns ErrCorruptPersistedState.
func (s *Store) Load() (Session, error) {
	token, hasToken, err := s.kv.Get(TokenKey)
	if err != nil {
		return Session{}, errors.Wrapf(errors.ErrCorruptPersistedState, "reading %s: %v", TokenKey, err)
	}
	raw, hasUser, err := s.kv.Get(UserKey)
	if err != nil {
		return Session{}, errors.Wrapf(errors.ErrCorruptPersistedState, "reading %s: %v", UserKey, err)
	}

	switch {
	case !hasToken && !hasUser:
		return Session{}, nil
	case !hasToken || token == "":
		return Session{}, errors.Wrapf(errors.ErrCorruptPersistedState, "%s stored without %s", UserKey, TokenKey)
	case !hasUser:
		return Session{}, errors.Wrapf(errors.ErrCorruptPersistedState, "%s stored without %s", TokenKey, UserKey)
	}

	var identity *users.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return Session{}, errors.Wrapf(errors.ErrCorruptPersistedState, "parsing %s: %v", UserKey, err)
	}
	// A stored null or {} is not an identity
	if identity == nil || (identity.ID == 0 && identity.Email == "") {
		return Session{}, errors.Wrapf(errors.ErrCorruptPersistedState, "%s is empty", UserKey)
	}
	return Session{Token: token, Identity: identity}, nil
}

// Save writes token and identity in a single storage write
func (s *Store) Save(token string, identity *users.Identity) error {
	if token == "" || identity == nil {
		return fmt.Errorf("token and identity are both required")
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	return s.kv.SetAll(map[string]string{
		TokenKey: token,
		UserKey:  string(raw),
	})
}

// SaveIdentity replaces the stored identity and leaves the token as it is
func (s *Store) SaveIdentity(identity *users.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	return s.kv.Set(UserKey, string(raw))
}

func (s *Store) Clear() error {
	return s.kv.Remove(TokenKey, UserKey)
}
