package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/yamdb/yamdb-server/internal/auth"
	"github.com/yamdb/yamdb-server/internal/config"
	"github.com/yamdb/yamdb-server/internal/logger"
)

// AuthKey wraps the token key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the token key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Auth.KeyPath)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded",
		"path", cfg.Auth.KeyPath,
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(key), cfg.Auth.AccessTokenDuration)
}

// ProvideCodeGenerator provides the confirmation code generator. Without a
// configured secret the codes are keyed with the token key.
func ProvideCodeGenerator(i do.Injector) (*auth.CodeGenerator, error) {
	cfg := do.MustInvoke[*config.Config](i)

	secret := []byte(cfg.Auth.CodeSecret)
	if len(secret) == 0 {
		secret = []byte(do.MustInvoke[AuthKey](i))
	}

	return auth.NewCodeGenerator(secret, cfg.Auth.CodeTTL, time.Now)
}
