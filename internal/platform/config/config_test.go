package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MANIFEST_BASE_URL", "CALLBACK_URL", "OUTBOUND_TIMEOUT", "CORS_ALLOWED_ORIGINS", "ISSUANCE_API_BASE"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "http://localhost:3000", cfg.Issuance.ManifestBaseURL)
	assert.Equal(t, "http://localhost:3000/api/callback", cfg.Issuance.CallbackURL)
	assert.Equal(t, "https://verifiedid.did.msidentity.com", cfg.Issuance.APIBase)
	assert.Equal(t, VerifiedIDResource, cfg.Identity.Resource)
	assert.Equal(t, "2019-08-01", cfg.Identity.APIVersion)
	assert.Equal(t, 10*time.Second, cfg.Identity.Timeout)
	assert.Nil(t, cfg.CORSAllowedOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8443")
	t.Setenv("MANIFEST_BASE_URL", "https://demo.example.com/")
	t.Setenv("CALLBACK_URL", "")
	t.Setenv("OUTBOUND_TIMEOUT", "3s")
	t.Setenv("TOKEN_MAX_ATTEMPTS", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("AUTHORITY_DID", "did:web:demo.example.com")

	cfg := FromEnv()

	assert.Equal(t, ":8443", cfg.Addr)
	assert.Equal(t, "https://demo.example.com", cfg.Issuance.ManifestBaseURL)
	assert.Equal(t, "https://demo.example.com/api/callback", cfg.Issuance.CallbackURL)
	assert.Equal(t, 3*time.Second, cfg.Issuance.Timeout)
	assert.Equal(t, 5, cfg.Identity.MaxAttempts)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "did:web:demo.example.com", cfg.Issuance.AuthorityDID)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("OUTBOUND_TIMEOUT", "soon")
	t.Setenv("TOKEN_MAX_ATTEMPTS", "many")

	cfg := FromEnv()

	assert.Equal(t, 10*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, 3, cfg.Identity.MaxAttempts)
}
