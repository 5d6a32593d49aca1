package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_YAMLWithDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "seccore.yaml")

	content := `
environment: production
policy:
  default_uri: "http://opcfoundation.org/UA/SecurityPolicy#Aes256_Sha256_RsaPss"
session:
  max_sessions: 64
pki:
  trusted_roots_dir: "/etc/seccore/pki/trusted/roots"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "http://opcfoundation.org/UA/SecurityPolicy#Aes256_Sha256_RsaPss", cfg.Policy.DefaultURI)
	assert.Equal(t, uint32(64), cfg.Session.MaxSessions)
	assert.Equal(t, "/etc/seccore/pki/trusted/roots", cfg.PKI.TrustedRootsDir)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Defaults fill in what the file left unset.
	assert.Equal(t, 10*time.Second, cfg.Session.MinSessionTimeout)
	assert.Equal(t, time.Hour, cfg.Session.MaxSessionTimeout)
	assert.Equal(t, time.Minute, cfg.Session.DefaultTimeout)
}

func TestLoadFromFile_EnvVarSubstitution(t *testing.T) {
	require.NoError(t, os.Setenv("SECCORE_TEST_PKI_DIR", "/srv/pki/roots"))
	defer os.Unsetenv("SECCORE_TEST_PKI_DIR")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "seccore.yaml")
	content := `
pki:
  trusted_roots_dir: "${SECCORE_TEST_PKI_DIR}"
  crl_dir: "${SECCORE_TEST_MISSING_VAR:/default/crl}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/pki/roots", cfg.PKI.TrustedRootsDir)
	assert.Equal(t, "/default/crl", cfg.PKI.CRLDir)
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "seccore.yaml")

	cfg := &Config{
		Environment: "staging",
		Session:     SessionConfig{MaxSessions: 8, MinSessionTimeout: time.Second, MaxSessionTimeout: time.Hour, DefaultTimeout: time.Minute},
	}
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", loaded.Environment)
	assert.Equal(t, uint32(8), loaded.Session.MaxSessions)
}

func TestConfig_Validate(t *testing.T) {
	valid := &Config{
		Session: SessionConfig{
			MaxSessions:       1,
			MinSessionTimeout: time.Second,
			MaxSessionTimeout: time.Hour,
			DefaultTimeout:    time.Minute,
		},
	}
	assert.NoError(t, valid.Validate())

	invalid := &Config{
		Session: SessionConfig{
			MaxSessions:       0,
			MinSessionTimeout: time.Hour,
			MaxSessionTimeout: time.Second, // inverted bounds
			DefaultTimeout:    0,
		},
	}
	err := invalid.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_sessions must be > 0")
	assert.Contains(t, err.Error(), "max_session_timeout must be >=")
}

func TestSubstituteEnvVars(t *testing.T) {
	require.NoError(t, os.Setenv("SECCORE_TEST_VAR", "value123"))
	defer os.Unsetenv("SECCORE_TEST_VAR")

	assert.Equal(t, "value123", SubstituteEnvVars("${SECCORE_TEST_VAR}"))
	assert.Equal(t, "fallback", SubstituteEnvVars("${SECCORE_TEST_UNSET:fallback}"))
	assert.Equal(t, "", SubstituteEnvVars("${SECCORE_TEST_UNSET}"))
}

func TestGetEnvironment(t *testing.T) {
	os.Unsetenv("SECCORE_ENV")
	os.Unsetenv("ENVIRONMENT")
	assert.Equal(t, "development", GetEnvironment())
	assert.True(t, IsDevelopment())
	assert.False(t, IsProduction())

	require.NoError(t, os.Setenv("SECCORE_ENV", "Production"))
	defer os.Unsetenv("SECCORE_ENV")
	assert.Equal(t, "production", GetEnvironment())
	assert.True(t, IsProduction())
}
