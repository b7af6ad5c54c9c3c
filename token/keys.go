package tokenkit

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// DefaultKeysPath is the directory where mounted secrets place signing keys.
const DefaultKeysPath = "/vault/downloadkit"

// KeySource provides the active signer and public keys for JWKS.
type KeySource interface {
	ActiveSigner() Signer
	PublicKeys() map[string]*rsa.PublicKey
}

// StaticKeySource is a simple in-memory implementation.
type StaticKeySource struct {
	Active Signer
	Pubs   map[string]*rsa.PublicKey
}

func (s StaticKeySource) ActiveSigner() Signer                  { return s.Active }
func (s StaticKeySource) PublicKeys() map[string]*rsa.PublicKey { return s.Pubs }

// NewAutoKeySource discovers signing keys in priority order: environment
// variables (ACTIVE_KEY_ID, ACTIVE_PRIVATE_KEY_PEM, PUBLIC_KEYS), then
// keys.json under DefaultKeysPath, then a freshly generated development key.
// Generation is refused in production so services cannot start without
// provisioned keys.
func NewAutoKeySource() (KeySource, error) {
	if ks, err := keysFromEnv(); err != nil {
		return nil, fmt.Errorf("load keys from environment: %w", err)
	} else if ks != nil {
		return ks, nil
	}

	if ks, err := keysFromFile(DefaultKeysPath); err != nil {
		return nil, fmt.Errorf("load keys from %s: %w", DefaultKeysPath, err)
	} else if ks != nil {
		return ks, nil
	}

	if isProdEnv() {
		return nil, fmt.Errorf("no signing keys in env or %s; set ACTIVE_KEY_ID/ACTIVE_PRIVATE_KEY_PEM or mount keys.json", DefaultKeysPath)
	}

	kid := fmt.Sprintf("dev-%d", time.Now().Unix())
	signer, err := NewRSASigner(2048, kid)
	if err != nil {
		return nil, fmt.Errorf("generate development key: %w", err)
	}
	return StaticKeySource{
		Active: signer,
		Pubs:   map[string]*rsa.PublicKey{kid: signer.PublicKey()},
	}, nil
}

func isProdEnv() bool {
	env := strings.TrimSpace(os.Getenv("ENV"))
	if env == "" {
		env = strings.TrimSpace(os.Getenv("APP_ENV"))
	}
	if env == "" {
		env = strings.TrimSpace(os.Getenv("ENVIRONMENT"))
	}
	env = strings.ToLower(env)
	return env == "production" || env == "prod"
}

// keysFromEnv returns (nil, nil) when the env vars are unset; an error only
// when they are set but invalid.
func keysFromEnv() (KeySource, error) {
	kid := strings.TrimSpace(os.Getenv("ACTIVE_KEY_ID"))
	priv := strings.TrimSpace(os.Getenv("ACTIVE_PRIVATE_KEY_PEM"))
	if kid == "" && priv == "" {
		return nil, nil
	}
	if kid == "" {
		return nil, fmt.Errorf("ACTIVE_PRIVATE_KEY_PEM is set but ACTIVE_KEY_ID is missing")
	}
	if priv == "" {
		return nil, fmt.Errorf("ACTIVE_KEY_ID is set but ACTIVE_PRIVATE_KEY_PEM is missing")
	}
	signer, err := NewRSASignerFromPEM(kid, []byte(priv))
	if err != nil {
		return nil, fmt.Errorf("parse ACTIVE_PRIVATE_KEY_PEM: %w", err)
	}
	pubs := map[string]*rsa.PublicKey{kid: signer.PublicKey()}
	if extra := strings.TrimSpace(os.Getenv("PUBLIC_KEYS")); extra != "" {
		var pemMap map[string]string
		if err := json.Unmarshal([]byte(extra), &pemMap); err != nil {
			return nil, fmt.Errorf("parse PUBLIC_KEYS: %w", err)
		}
		mergePublicKeys(pubs, pemMap)
	}
	return StaticKeySource{Active: signer, Pubs: pubs}, nil
}

// keysFromFile returns (nil, nil) when the directory or keys.json is absent.
func keysFromFile(dir string) (KeySource, error) {
	if dir == "" {
		dir = DefaultKeysPath
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, "keys.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read keys.json: %w", err)
	}
	var keyData struct {
		ActiveKeyID         string            `json:"active_key_id"`
		ActivePrivateKeyPEM string            `json:"active_private_key_pem"`
		PublicKeys          map[string]string `json:"public_keys"`
	}
	if err := json.Unmarshal(data, &keyData); err != nil {
		return nil, fmt.Errorf("parse keys.json: %w", err)
	}
	if keyData.ActiveKeyID == "" || keyData.ActivePrivateKeyPEM == "" {
		return nil, fmt.Errorf("keys.json missing active_key_id or active_private_key_pem")
	}
	signer, err := NewRSASignerFromPEM(keyData.ActiveKeyID, []byte(keyData.ActivePrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pubs := map[string]*rsa.PublicKey{keyData.ActiveKeyID: signer.PublicKey()}
	mergePublicKeys(pubs, keyData.PublicKeys)
	return StaticKeySource{Active: signer, Pubs: pubs}, nil
}

// mergePublicKeys adds parseable keys and skips the rest; a stale rotated key
// must not block startup.
func mergePublicKeys(dst map[string]*rsa.PublicKey, pemMap map[string]string) {
	for kid, pemStr := range pemMap {
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemStr))
		if err != nil {
			continue
		}
		dst[kid] = pub
	}
}
