package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// CredentialsDirEnvVar is the primary override for the credentials
	// directory. It always wins when set and non-empty.
	CredentialsDirEnvVar = "WORKSPACE_MCP_CREDENTIALS_DIR"

	// LegacyCredentialsDirEnvVar is honored for installations that predate
	// the WORKSPACE_MCP_* naming.
	LegacyCredentialsDirEnvVar = "GOOGLE_MCP_CREDENTIALS_DIR"

	// PortEnvVar configures the OAuth callback port.
	PortEnvVar = "WORKSPACE_MCP_PORT"

	// ClientIDEnvVar and ClientSecretEnvVar hold the Google OAuth client
	// used for the authorization-code exchange and token refresh.
	ClientIDEnvVar     = "GOOGLE_OAUTH_CLIENT_ID"
	ClientSecretEnvVar = "GOOGLE_OAUTH_CLIENT_SECRET"

	// DefaultCredentialsDir is used when neither override variable is set.
	DefaultCredentialsDir = "~/.workspace-mcp/credentials"

	// DefaultPort is the default OAuth callback port.
	DefaultPort = 8000
)

// ErrDirectoryUnwritable indicates the resolved credentials directory could
// not be created or is not writable. This is fatal at startup.
var ErrDirectoryUnwritable = errors.New("credentials directory unwritable")

// Config is the resolved configuration for one server process. It is a value:
// construct it with Resolve and pass it by value into component constructors.
type Config struct {
	// CredentialsDir is the absolute directory holding credential records.
	CredentialsDir string

	// Port is the local OAuth callback port.
	Port int

	// ClientID and ClientSecret identify the Google OAuth client.
	ClientID     string
	ClientSecret string

	// SingleUser binds the whole process to one account at startup.
	SingleUser bool
}

// Options carries explicit inputs that take precedence over the environment,
// typically from CLI flags.
type Options struct {
	// CredentialsDir overrides the environment chain entirely when non-empty.
	CredentialsDir string

	// Port overrides WORKSPACE_MCP_PORT when non-zero.
	Port int

	// SingleUser enables single-user session binding.
	SingleUser bool
}

// Resolve computes the process configuration. The credentials directory is
// chosen from, in order: opts.CredentialsDir, WORKSPACE_MCP_CREDENTIALS_DIR,
// GOOGLE_MCP_CREDENTIALS_DIR, the built-in default. The chosen path has any
// leading ~ expanded, is made absolute, and is created with 0700 permissions.
// Resolution is deterministic: the same inputs always yield the same Config.
func Resolve(opts Options) (Config, error) {
	dir, err := resolveCredentialsDir(opts.CredentialsDir)
	if err != nil {
		return Config{}, err
	}

	if err := ensureWritableDir(dir); err != nil {
		return Config{}, err
	}

	port := opts.Port
	if port == 0 {
		port = DefaultPort
		if v := os.Getenv(PortEnvVar); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil || p < 1 || p > 65535 {
				return Config{}, fmt.Errorf("invalid %s value %q", PortEnvVar, v)
			}
			port = p
		}
	}

	return Config{
		CredentialsDir: dir,
		Port:           port,
		ClientID:       os.Getenv(ClientIDEnvVar),
		ClientSecret:   os.Getenv(ClientSecretEnvVar),
		SingleUser:     opts.SingleUser,
	}, nil
}

// RedirectURL returns the loopback redirect URL for the OAuth callback.
func (c Config) RedirectURL() string {
	return fmt.Sprintf("http://localhost:%d/oauth2callback", c.Port)
}

func resolveCredentialsDir(explicit string) (string, error) {
	raw := explicit
	if raw == "" {
		raw = os.Getenv(CredentialsDirEnvVar)
	}
	if raw == "" {
		raw = os.Getenv(LegacyCredentialsDirEnvVar)
	}
	if raw == "" {
		raw = DefaultCredentialsDir
	}

	dir, err := expandHome(raw)
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(dir) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("resolving credentials dir %q: %w", dir, err)
		}
		dir = abs
	}

	return filepath.Clean(dir), nil
}

// expandHome expands a leading ~ or ~/ to the current user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", path, err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// ensureWritableDir creates dir (and parents) if absent and verifies the
// process can create files in it.
func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDirectoryUnwritable, dir, err)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDirectoryUnwritable, dir, err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}
