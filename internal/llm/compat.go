package llm

import (
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	defaultGroqModel         = "llama-3.1-8b-instant"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterApp     = "repaso"
)

// GroqProvider targets Groq's OpenAI-compatible endpoint. Groq models only
// accept the json_object response format, so schemas are enforced locally.
type GroqProvider struct {
	*OpenAIProvider
}

// OpenRouterProvider targets OpenRouter. Model IDs are passed through
// unchanged and requests carry the app attribution headers.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// compatEndpoint is an OpenAI-compatible API with its own defaults.
type compatEndpoint struct {
	name       string
	apiKey     string
	model      string
	baseURL    string
	jsonObject bool
	headers    http.Header
}

func (e compatEndpoint) provider() (*OpenAIProvider, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", e.name)
	}
	if e.model == "" {
		return nil, fmt.Errorf("%s model is required", e.name)
	}
	cc := openai.DefaultConfig(e.apiKey)
	cc.BaseURL = e.baseURL
	if len(e.headers) > 0 {
		cc.HTTPClient = &http.Client{Transport: headerTransport{base: http.DefaultTransport, headers: e.headers}}
	}
	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(cc),
		model:      e.model,
		jsonObject: e.jsonObject,
	}, nil
}

// NewGroqProvider creates a provider for the Groq API.
func NewGroqProvider(cfg GroqConfig) (*GroqProvider, error) {
	p, err := compatEndpoint{
		name:       ProviderGroq,
		apiKey:     cfg.APIKey,
		model:      orDefault(cfg.Model, defaultGroqModel),
		baseURL:    orDefault(cfg.BaseURL, defaultGroqBaseURL),
		jsonObject: true,
	}.provider()
	if err != nil {
		return nil, err
	}
	return &GroqProvider{OpenAIProvider: p}, nil
}

// NewOpenRouterProvider creates a provider for the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	headers := http.Header{}
	headers.Set("X-Title", orDefault(cfg.AppName, defaultOpenRouterApp))
	if cfg.SiteURL != "" {
		headers.Set("HTTP-Referer", cfg.SiteURL)
	}
	p, err := compatEndpoint{
		name:    ProviderOpenRouter,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: orDefault(cfg.BaseURL, defaultOpenRouterBaseURL),
		headers: headers,
	}.provider()
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: p}, nil
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, vs := range t.headers {
		r.Header[k] = vs
	}
	return t.base.RoundTrip(r)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
