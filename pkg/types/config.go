// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litreview/0.1"). Per prd002-search R5.4.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search stage.
// Per prd002-search R1.4, R5.1-R5.6.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the target number of papers for the final report.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// OverfetchFactor multiplies MaxResults when fetching candidates so
	// verification rejections do not starve the report (default 2).
	OverfetchFactor int `json:"overfetch_factor" yaml:"overfetch_factor"`

	// EnableArxiv controls whether the arXiv backend is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// ContactEmail is sent to OpenAlex (mailto) and Crossref for polite
	// pool access.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`

	// InterBackendDelay is the delay between API calls to different backends.
	InterBackendDelay time.Duration `json:"inter_backend_delay" yaml:"inter_backend_delay"`

	// RecencyBiasWindow is the window over which the recency component of
	// the ranking decays to zero (default 5 years).
	RecencyBiasWindow time.Duration `json:"recency_bias_window" yaml:"recency_bias_window"`
}

// VerifyConfig holds settings for the verification stage.
// Per prd003-verification R1.1-R1.4.
type VerifyConfig struct {
	HTTPConfig `yaml:",inline"`

	// MinConfidence is the acceptance threshold for the weighted check
	// score (default 0.6).
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`

	// MaxParallel bounds concurrent lookups (default 4).
	MaxParallel int `json:"max_parallel" yaml:"max_parallel"`

	// EnableCrossref controls whether Crossref is queried.
	EnableCrossref bool `json:"enable_crossref" yaml:"enable_crossref"`

	// EnableSemanticScholar controls whether Semantic Scholar is queried.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// ContactEmail is sent to Crossref for polite pool access.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
}

// LLMConfig holds settings for stages that call a language-model API.
// Per prd010-llm R1.1-R1.5.
type LLMConfig struct {
	// Provider selects the backend: "anthropic", "gemini", or "openai".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier. Empty selects the provider default.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the response length (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature controls sampling (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// Timeout is the per-request timeout (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retry attempts for transient failures
	// (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerSecond throttles calls to the provider (default 1).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the rate-limiter burst size (default 1).
	Burst int `json:"burst" yaml:"burst"`
}

// ArchiveConfig holds settings for the report archive.
// Per prd009-archive R1.1.
type ArchiveConfig struct {
	// Path is the SQLite database file (e.g. "archive/litreview.db").
	// Empty disables archiving.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// MaxResults is the default listing size (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// DefaultMaxActive bounds concurrently running reviews on the HTTP API.
const DefaultMaxActive = 4

// ServerConfig holds settings for the HTTP API.
// Per prd011-api R1.1-R1.3.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// MaxActive bounds concurrently running reviews
	// (default DefaultMaxActive).
	MaxActive int `json:"max_active" yaml:"max_active"`
}

// PipelineConfig groups all stage configurations for one workflow run.
// The controller receives it at construction time; nothing reads ambient
// configuration.
type PipelineConfig struct {
	Search  SearchConfig  `json:"search" yaml:"search"`
	Verify  VerifyConfig  `json:"verify" yaml:"verify"`
	LLM     LLMConfig     `json:"llm" yaml:"llm"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}
