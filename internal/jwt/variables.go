package jwt

import (
	"sync"
	"time"

	"quote-desk-backend/internal/env"
)

const DefaultTokenTTL = 15 * time.Minute

var (
	secretsMu   sync.RWMutex
	roleSecrets = map[Role]string{}
)

// LoadSecrets reads the signing secrets from the environment.
func LoadSecrets() {
	SetRoleSecret(RoleStaff, env.Get(env.StaffSecretKey))
	SetRoleSecret(RoleCustomer, env.Get(env.CustomerSecretKey))
}

func SetRoleSecret(role Role, secret string) {
	secretsMu.Lock()
	defer secretsMu.Unlock()
	roleSecrets[role] = secret
}

func secretFor(role Role) (string, error) {
	secretsMu.RLock()
	defer secretsMu.RUnlock()
	secret, ok := roleSecrets[role]
	if !ok || secret == "" {
		return "", ErrUnknownRole
	}
	return secret, nil
}
