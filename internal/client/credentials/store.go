// Package credentials persists the session credential record (access token,
// refresh token, user snapshot) across client restarts.
//
// A record whose user snapshot cannot be decoded, or whose sealed values
// fail to open, is treated as absent and erased on the spot, so corruption
// heals itself instead of surfacing as an error.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/dreamwell/internal/client/models"
	"github.com/dmitrijs2005/dreamwell/internal/client/repositories/kv"
	"github.com/dmitrijs2005/dreamwell/internal/common"
	"github.com/dmitrijs2005/dreamwell/internal/cryptox"
	"github.com/dmitrijs2005/dreamwell/internal/logging"
)

type Store struct {
	// mu serializes every read-modify-write of the record in this process.
	mu      sync.Mutex
	backend kv.Backend
	sealer  *cryptox.Sealer
	log     logging.Logger
}

type Option func(*Store)

// WithSealer encrypts every stored value with s.
func WithSealer(s *cryptox.Sealer) Option {
	return func(st *Store) { st.sealer = s }
}

func WithLogger(l logging.Logger) Option {
	return func(st *Store) { st.log = l }
}

func New(backend kv.Backend, opts ...Option) *Store {
	s := &Store{backend: backend, log: logging.Discard()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the persisted record, or the empty record when nothing usable
// is stored. Storage failures are logged and reported as "no session"; only
// context cancellation is returned as an error.
func (s *Store) Load(ctx context.Context) (models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (models.Credentials, error) {
	raw, err := s.backend.GetMany(ctx, common.CredentialKeys...)
	if err != nil {
		if ctx.Err() != nil {
			return models.Credentials{}, ctx.Err()
		}
		s.log.Warn(ctx, "credential store unreadable, treating session as absent", "error", err)
		return models.Credentials{}, nil
	}

	creds, err := s.decode(raw)
	if err != nil {
		s.log.Warn(ctx, "purging corrupt credential record", "error", err)
		if cerr := s.clear(ctx); cerr != nil {
			s.log.Error(ctx, "failed to purge corrupt credential record", "error", cerr)
		}
		return models.Credentials{}, nil
	}
	return creds, nil
}

func (s *Store) decode(raw map[string][]byte) (models.Credentials, error) {
	var creds models.Credentials

	access, err := s.open(raw[common.KeyAccessToken])
	if err != nil {
		return creds, fmt.Errorf("%s: %w", common.KeyAccessToken, err)
	}
	refresh, err := s.open(raw[common.KeyRefreshToken])
	if err != nil {
		return creds, fmt.Errorf("%s: %w", common.KeyRefreshToken, err)
	}
	userBytes, err := s.open(raw[common.KeyUser])
	if err != nil {
		return creds, fmt.Errorf("%s: %w", common.KeyUser, err)
	}

	creds.AccessToken = string(access)
	creds.RefreshToken = string(refresh)

	if len(userBytes) > 0 {
		u, err := models.DecodeUser(userBytes)
		if err != nil {
			return models.Credentials{}, errors.Join(common.ErrCorruptRecord, err)
		}
		creds.User = u
	}
	return creds, nil
}

func (s *Store) open(v []byte) ([]byte, error) {
	if len(v) == 0 || s.sealer == nil {
		return v, nil
	}
	plain, err := s.sealer.Open(v)
	if err != nil {
		return nil, errors.Join(common.ErrCorruptRecord, err)
	}
	return plain, nil
}

func (s *Store) seal(v []byte) ([]byte, error) {
	if len(v) == 0 || s.sealer == nil {
		return v, nil
	}
	return s.sealer.Seal(v)
}

// Save replaces the whole record in one atomic write. A nil user is stored
// as an empty snapshot, which Load reads back as "no user".
func (s *Store) Save(ctx context.Context, creds models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, creds)
}

func (s *Store) save(ctx context.Context, creds models.Credentials) error {
	var userBytes []byte
	if creds.User != nil {
		b, err := models.EncodeUser(creds.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		userBytes = b
	}

	plain := map[string][]byte{
		common.KeyAccessToken:  []byte(creds.AccessToken),
		common.KeyRefreshToken: []byte(creds.RefreshToken),
		common.KeyUser:         userBytes,
	}

	values := make(map[string][]byte, len(plain))
	for k, v := range plain {
		sealed, err := s.seal(v)
		if err != nil {
			return fmt.Errorf("seal %s: %w", k, err)
		}
		values[k] = sealed
	}

	if err := s.backend.PutMany(ctx, values); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear removes every credential key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear(ctx)
}

func (s *Store) clear(ctx context.Context) error {
	if err := s.backend.DeleteMany(ctx, common.CredentialKeys...); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Update applies fn to the stored record and writes back what it returns
// when fn reports a change. An empty result clears the record. No other
// Load, Save, Clear or Update of this Store runs in between, so fn can
// decide on the record as it stands at write time. Update returns the
// record that is stored afterwards and whether fn's result was written.
func (s *Store) Update(ctx context.Context, fn func(models.Credentials) (models.Credentials, bool)) (models.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load(ctx)
	if err != nil {
		return models.Credentials{}, false, err
	}
	next, changed := fn(cur)
	if !changed {
		return cur, false, nil
	}

	if next.IsEmpty() {
		err = s.clear(ctx)
	} else {
		err = s.save(ctx, next)
	}
	if err != nil {
		return cur, false, err
	}
	return next, true, nil
}
