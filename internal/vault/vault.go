// internal/vault/vault.go
//
// Vault client wrapper.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK for the one job this service needs:
//     reading KV‑v2 secrets named in configuration.
//   - A configuration value of the form `vault:<mount>/<path>#<key>` is a
//     reference; Resolve swaps it for the secret, any other value passes
//     through unchanged.
//   - Secrets are read once during boot, so there is no token renewal loop
//     and no cache.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New()                               // during boot.
//  2. pw,  err := cli.Resolve(ctx, cfg.Database.Password)
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – token (falls back to ~/.vault‑token).
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	vault "github.com/hashicorp/vault/api"
)

//
// SECTION 1.  Client
//

// Client is safe for concurrent use.  Zero value resolves plain values only.
type Client struct {
	api *vault.Client
}

// New constructs a Vault client from the environment.
func New() (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}
	return &Client{api: apiCli}, nil
}

// GetKV fetches a single string key from a KV‑v2 secret.
func (c *Client) GetKV(ctx context.Context, secretPath, key string) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non‑empty")
	}
	if c.api == nil {
		return "", errors.New("vault client not configured")
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}
	return sval, nil
}

//
// SECTION 2.  References
//

// RefPrefix marks a configuration value that names a Vault secret.
const RefPrefix = "vault:"

// IsRef reports whether v is a Vault reference.
func IsRef(v string) bool { return strings.HasPrefix(v, RefPrefix) }

// ParseRef splits "vault:<mount>/<path>#<key>" into secret path and key.
func ParseRef(ref string) (secretPath, key string, err error) {
	body, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return "", "", fmt.Errorf("%q is not a vault reference", ref)
	}
	secretPath, key, ok = strings.Cut(body, "#")
	if !ok || secretPath == "" || key == "" || !strings.Contains(secretPath, "/") {
		return "", "", fmt.Errorf("vault reference %q must look like vault:<mount>/<path>#<key>", ref)
	}
	return secretPath, key, nil
}

// Resolve returns v unchanged unless it is a Vault reference, in which case
// the referenced value is fetched.
func (c *Client) Resolve(ctx context.Context, v string) (string, error) {
	if !IsRef(v) {
		return v, nil
	}
	p, key, err := ParseRef(v)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, p, key)
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}
