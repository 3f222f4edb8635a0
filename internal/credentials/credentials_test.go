package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
)

const flatDoc = `{
  "VCAP_SERVICES": {
    "document-ai": [{
      "name": "dox",
      "credentials": {
        "baseurl": "https://dox.example.com/document-information-extraction/v1/",
        "clientid": "dox-client",
        "clientsecret": "dox-secret",
        "tokenurl": "https://auth.example.com/oauth/token"
      }
    }]
  },
  "SANDBOX-API-KEY": "sandbox-123"
}`

const nestedDoc = `{
  "VCAP_SERVICES": {
    "document-information-extraction": [{
      "credentials": {
        "url": "https://dox.example.com",
        "uaa": {"clientid": "uaa-client", "clientsecret": "uaa-secret", "url": "https://uaa.example.com/"}
      }
    }],
    "document-translation": [{
      "credentials": {
        "endpoints": {"translation": "https://dt.example.com/", "b": "https://other.example.com"},
        "uaa": {"clientid": "dt-client", "clientsecret": "dt-secret", "url": "https://uaa-dt.example.com"}
      }
    }]
  }
}`

func TestResolve_FlatCredentials(t *testing.T) {
	b, err := Resolve([]byte(flatDoc))
	require.NoError(t, err)

	assert.Equal(t, "https://dox.example.com/document-information-extraction/v1", b.Extraction.BaseURL)
	assert.Equal(t, "dox-client", b.Extraction.ClientID)
	assert.Equal(t, "dox-secret", b.Extraction.ClientSecret)
	assert.Equal(t, "https://auth.example.com/oauth/token", b.Extraction.TokenURL)
	assert.Nil(t, b.Translation)
	assert.Equal(t, "sandbox-123", b.SandboxAPIKey)
}

func TestResolve_NestedUAA(t *testing.T) {
	b, err := Resolve([]byte(nestedDoc))
	require.NoError(t, err)

	assert.Equal(t, "https://dox.example.com", b.Extraction.BaseURL)
	assert.Equal(t, "uaa-client", b.Extraction.ClientID)
	assert.Equal(t, "https://uaa.example.com/oauth/token", b.Extraction.TokenURL)

	require.NotNil(t, b.Translation)
	assert.Equal(t, "https://other.example.com", b.Translation.BaseURL, "lowest endpoint key wins")
	assert.Equal(t, "dt-client", b.Translation.ClientID)
	assert.Equal(t, "https://uaa-dt.example.com/oauth/token", b.Translation.TokenURL)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"invalid json", `{`},
		{"no extraction binding", `{"VCAP_SERVICES": {"document-translation": []}}`},
		{"missing secret", `{"VCAP_SERVICES": {"document-ai": [{"credentials": {"baseurl": "https://x", "clientid": "a", "tokenurl": "https://t"}}]}}`},
		{"missing token url", `{"VCAP_SERVICES": {"document-ai": [{"credentials": {"baseurl": "https://x", "clientid": "a", "clientsecret": "b"}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve([]byte(tt.doc))
			require.Error(t, err)
			var de *domain.DomainError
			assert.ErrorAs(t, err, &de)
			assert.Equal(t, domain.ErrorTypeConfig, de.Type)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default-env.json")
	require.NoError(t, os.WriteFile(path, []byte(flatDoc), 0o600))

	b, err := LoadFile(path, "override")
	require.NoError(t, err)
	assert.Equal(t, "override", b.SandboxAPIKey)
}

func TestLoadFile_FallsBackToEnv(t *testing.T) {
	t.Setenv("VCAP_SERVICES", `{"document-ai": [{"credentials": {"baseurl": "https://env.example.com", "clientid": "a", "clientsecret": "b", "tokenurl": "https://t"}}]}`)

	b, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), "k")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", b.Extraction.BaseURL)
	assert.Equal(t, "k", b.SandboxAPIKey)
}
