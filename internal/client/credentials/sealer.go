package credentials

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dreamwell/internal/client/repositories/kv"
	"github.com/dmitrijs2005/dreamwell/internal/common"
	"github.com/dmitrijs2005/dreamwell/internal/cryptox"
)

const saltSize = 16

// SealerFor derives a sealer from passphrase using the salt kept in backend,
// creating and storing a fresh salt on first use. The salt must outlive
// every record sealed with it, so it is written without expiry where the
// backend supports one.
func SealerFor(ctx context.Context, backend kv.Backend, passphrase []byte) (*cryptox.Sealer, error) {
	got, err := backend.GetMany(ctx, common.KeySealSalt)
	if err != nil {
		return nil, fmt.Errorf("read seal salt: %w", err)
	}

	salt := got[common.KeySealSalt]
	if len(salt) != saltSize {
		salt = common.GenerateRandByteArray(saltSize)
		if err := putSalt(ctx, backend, salt); err != nil {
			return nil, fmt.Errorf("write seal salt: %w", err)
		}
	}
	return cryptox.NewPassphraseSealer(passphrase, salt)
}

func putSalt(ctx context.Context, backend kv.Backend, salt []byte) error {
	values := map[string][]byte{common.KeySealSalt: salt}
	if p, ok := backend.(kv.Persister); ok {
		return p.PutPersistent(ctx, values)
	}
	return backend.PutMany(ctx, values)
}
