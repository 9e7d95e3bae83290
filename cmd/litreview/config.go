package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultUserAgent   = "litreview/0.1"
	defaultArchivePath = "litreview.db"
	defaultServerAddr  = ":8080"
)

// pipelineConfig assembles the stage configuration once, from the config
// file, LITREVIEW_* environment variables, and loaded secrets. Commands
// layer their flag overrides on top before constructing the controller.
func pipelineConfig() types.PipelineConfig {
	var cfg types.PipelineConfig

	cfg.Search.Timeout = durationDefault("search.timeout", defaultHTTPTimeout)
	cfg.Search.UserAgent = stringDefault("search.user_agent", defaultUserAgent)
	cfg.Search.MaxResults = viper.GetInt("search.max_results")
	cfg.Search.OverfetchFactor = viper.GetInt("search.overfetch_factor")
	cfg.Search.EnableArxiv = boolDefault("search.enable_arxiv", true)
	cfg.Search.EnableSemanticScholar = boolDefault("search.enable_semantic_scholar", true)
	cfg.Search.EnableOpenAlex = boolDefault("search.enable_openalex", true)
	cfg.Search.SemanticScholarAPIKey = secretDefault("SEMANTIC_SCHOLAR_API_KEY",
		viper.GetString("search.semantic_scholar_api_key"))
	cfg.Search.ContactEmail = secretDefault("CONTACT_EMAIL",
		viper.GetString("search.contact_email"))
	cfg.Search.InterBackendDelay = viper.GetDuration("search.inter_backend_delay")
	cfg.Search.RecencyBiasWindow = viper.GetDuration("search.recency_bias_window")

	cfg.Verify.Timeout = durationDefault("verify.timeout", defaultHTTPTimeout)
	cfg.Verify.UserAgent = cfg.Search.UserAgent
	cfg.Verify.MinConfidence = viper.GetFloat64("verify.min_confidence")
	cfg.Verify.MaxParallel = viper.GetInt("verify.max_parallel")
	cfg.Verify.EnableCrossref = boolDefault("verify.enable_crossref", true)
	cfg.Verify.EnableSemanticScholar = boolDefault("verify.enable_semantic_scholar", true)
	cfg.Verify.SemanticScholarAPIKey = secretDefault("SEMANTIC_SCHOLAR_API_KEY",
		viper.GetString("verify.semantic_scholar_api_key"))
	cfg.Verify.ContactEmail = cfg.Search.ContactEmail

	cfg.LLM.Provider = stringDefault("llm.provider", llm.ProviderAnthropic)
	cfg.LLM.Model = viper.GetString("llm.model")
	cfg.LLM.APIKey = apiKeyFor(cfg.LLM.Provider)
	cfg.LLM.MaxTokens = intDefault("llm.max_tokens", llm.DefaultMaxTokens)
	cfg.LLM.Temperature = floatDefault("llm.temperature", llm.DefaultTemperature)
	cfg.LLM.Timeout = durationDefault("llm.timeout", llm.DefaultTimeout)
	cfg.LLM.MaxRetries = intDefault("llm.max_retries", llm.DefaultMaxRetries)
	cfg.LLM.RequestsPerSecond = viper.GetFloat64("llm.requests_per_second")
	cfg.LLM.Burst = viper.GetInt("llm.burst")

	cfg.Archive.Path = stringDefault("archive.path", defaultArchivePath)
	cfg.Archive.MaxResults = viper.GetInt("archive.max_results")

	cfg.Server.Addr = stringDefault("server.addr", defaultServerAddr)
	cfg.Server.MaxActive = viper.GetInt("server.max_active")

	return cfg
}

// apiKeyFor resolves the provider credential: explicit configuration
// first, then the provider's conventional environment variable, then the
// .secrets/ directory.
func apiKeyFor(provider string) string {
	if provider == "" {
		provider = llm.ProviderAnthropic
	}
	return secretDefault(strings.ToUpper(provider)+"_API_KEY",
		viper.GetString("llm.api_key"))
}

func stringDefault(key, def string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}

func boolDefault(key string, def bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return def
}

func intDefault(key string, def int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return def
}

func floatDefault(key string, def float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return def
}

func durationDefault(key string, def time.Duration) time.Duration {
	if v := viper.GetDuration(key); v > 0 {
		return v
	}
	return def
}
