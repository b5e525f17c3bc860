// Package vault reads service secrets from a Vault KV v2 engine, logging in
// with AppRole.
package vault

import (
	"context"
	"fmt"

	"github.com/amirrezaask/highlight/errors"
	vault "github.com/hashicorp/vault/api"
	auth "github.com/hashicorp/vault/api/auth/approle"
)

type Config struct {
	VaultAddress  string
	VaultRoleId   string
	VaultSecretId string
}

type Service struct {
	Client *vault.Client
}

func NewClient(ctx context.Context, c Config) (*Service, error) {
	cfg := vault.DefaultConfig()
	cfg.Address = c.VaultAddress
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vault client")
	}
	secretID := &auth.SecretID{FromString: c.VaultSecretId}
	appRoleAuth, err := auth.NewAppRoleAuth(
		c.VaultRoleId,
		secretID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize approle auth method")
	}

	authInfo, err := client.Auth().Login(ctx, appRoleAuth)
	if err != nil {
		return nil, errors.Wrap(err, "vault approle login")
	}
	if authInfo == nil {
		return nil, errors.New("no auth info was returned after login")
	}

	return &Service{Client: client}, nil
}

// GetSecrets reads the secret at serviceName under the KV v2 mount. Non-string
// values are rendered with fmt.
func (v *Service) GetSecrets(ctx context.Context, mount string, serviceName string) (map[string]string, error) {
	secretsData, err := v.Client.KVv2(mount).Get(ctx, serviceName)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read secrets %s/%s", mount, serviceName)
	}

	secrets := make(map[string]string, len(secretsData.Data))
	for key, value := range secretsData.Data {
		switch value := value.(type) {
		case string:
			secrets[key] = value
		case nil:
		default:
			secrets[key] = fmt.Sprint(value)
		}
	}

	return secrets, nil
}
