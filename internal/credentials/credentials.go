// Package credentials resolves service bindings for the extraction and
// translation services from a VCAP_SERVICES style document.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
)

var (
	extractionLabels  = []string{"document-ai", "document-information-extraction", "sap-document-information-extraction"}
	translationLabels = []string{"document-translation", "sap-document-translation"}
)

// ServiceCredentials is what one OAuth2 client-credentials protected service needs.
type ServiceCredentials struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Bindings holds the resolved credentials of both services.
type Bindings struct {
	Extraction ServiceCredentials
	// Translation is nil when only a sandbox API key is available.
	Translation   *ServiceCredentials
	SandboxAPIKey string
}

type envDocument struct {
	VCAPServices map[string][]serviceInstance `json:"VCAP_SERVICES"`
	SandboxKey   string                       `json:"SANDBOX-API-KEY"`
	SandboxKeyU  string                       `json:"SANDBOX_API_KEY"`
}

type serviceInstance struct {
	Name        string         `json:"name"`
	Credentials rawCredentials `json:"credentials"`
}

type rawCredentials struct {
	BaseURL      string            `json:"baseurl"`
	URL          string            `json:"url"`
	ClientID     string            `json:"clientid"`
	ClientSecret string            `json:"clientsecret"`
	TokenURL     string            `json:"tokenurl"`
	Endpoints    map[string]string `json:"endpoints"`
	UAA          *uaaCredentials   `json:"uaa"`
}

type uaaCredentials struct {
	ClientID     string `json:"clientid"`
	ClientSecret string `json:"clientsecret"`
	URL          string `json:"url"`
}

// Resolve parses a default-env.json document. The extraction binding is required;
// the translation binding may be absent when a sandbox API key is present.
func Resolve(raw []byte) (*Bindings, error) {
	var doc envDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.ConfigError("parse service bindings", err)
	}
	return fromServices(doc.VCAPServices, firstNonEmpty(doc.SandboxKey, doc.SandboxKeyU))
}

// ResolveServices parses the bare VCAP_SERVICES object as found in the environment.
func ResolveServices(raw []byte, sandboxKey string) (*Bindings, error) {
	var services map[string][]serviceInstance
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, domain.ConfigError("parse VCAP_SERVICES", err)
	}
	return fromServices(services, sandboxKey)
}

// LoadFile reads the bindings from path, falling back to the VCAP_SERVICES variable
// when the file does not exist. sandboxKey overrides the key found in the document.
func LoadFile(path, sandboxKey string) (*Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if vcap := os.Getenv("VCAP_SERVICES"); vcap != "" {
				return ResolveServices([]byte(vcap), sandboxKey)
			}
		}
		return nil, domain.ConfigError(fmt.Sprintf("read service bindings %s", path), err)
	}

	b, err := Resolve(data)
	if err != nil {
		return nil, err
	}
	if sandboxKey != "" {
		b.SandboxAPIKey = sandboxKey
	}
	return b, nil
}

func fromServices(services map[string][]serviceInstance, sandboxKey string) (*Bindings, error) {
	ext, ok := lookup(services, extractionLabels)
	if !ok {
		return nil, domain.ConfigError("extraction service binding not found", domain.ErrMissingCredentials)
	}
	extCreds, err := ext.normalize()
	if err != nil {
		return nil, domain.ConfigError("extraction service binding", err)
	}

	b := &Bindings{Extraction: extCreds, SandboxAPIKey: sandboxKey}

	if tr, ok := lookup(services, translationLabels); ok {
		trCreds, err := tr.normalize()
		if err != nil {
			return nil, domain.ConfigError("translation service binding", err)
		}
		b.Translation = &trCreds
	}

	return b, nil
}

func lookup(services map[string][]serviceInstance, labels []string) (rawCredentials, bool) {
	for _, label := range labels {
		if instances := services[label]; len(instances) > 0 {
			return instances[0].Credentials, true
		}
	}
	return rawCredentials{}, false
}

func (r rawCredentials) normalize() (ServiceCredentials, error) {
	c := ServiceCredentials{
		BaseURL:      firstNonEmpty(r.BaseURL, r.URL, firstEndpoint(r.Endpoints)),
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		TokenURL:     r.TokenURL,
	}

	if r.UAA != nil {
		c.ClientID = firstNonEmpty(c.ClientID, r.UAA.ClientID)
		c.ClientSecret = firstNonEmpty(c.ClientSecret, r.UAA.ClientSecret)
		if c.TokenURL == "" && r.UAA.URL != "" {
			c.TokenURL = strings.TrimRight(r.UAA.URL, "/") + "/oauth/token"
		}
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	switch {
	case c.BaseURL == "":
		return c, fmt.Errorf("base url: %w", domain.ErrMissingCredentials)
	case c.ClientID == "" || c.ClientSecret == "":
		return c, fmt.Errorf("client id/secret: %w", domain.ErrMissingCredentials)
	case c.TokenURL == "":
		return c, fmt.Errorf("token url: %w", domain.ErrMissingCredentials)
	}
	return c, nil
}

// firstEndpoint picks the endpoint with the lowest key so the choice is stable.
func firstEndpoint(endpoints map[string]string) string {
	if len(endpoints) == 0 {
		return ""
	}
	keys := make([]string, 0, len(endpoints))
	for k := range endpoints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return endpoints[keys[0]]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
