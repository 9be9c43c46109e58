package services

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDims        = "embedding.dimensions"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMMaxTokens     = "llm.max_tokens"
	keyLLMTemperature   = "llm.temperature"
	keyStrategy         = "retrieval.domain"
	keyStrategyFile     = "retrieval.taxonomy_file"
	keyBasePoolSize     = "retrieval.base_pool_size"
	keyRelevanceFloor   = "retrieval.relevance_floor"
	keyBaselineChunks   = "retrieval.baseline_chunks"
	keyWeightSemantic   = "retrieval.weights.semantic"
	keyWeightKeyword    = "retrieval.weights.keyword"
	keyWeightStructural = "retrieval.weights.structural"
	keyChunkSize        = "chunking.chunk_size"
	keyChunkOverlap     = "chunking.overlap"
	keyServerAddr       = "server.addr"
	keyRequestTimeout   = "server.request_timeout"
	keyQuestionTimeout  = "server.question_timeout"
	keyMaxWorkers       = "server.max_workers"
	keyDocumentTTL      = "server.document_ttl"
	keyMaxDocBytes      = "server.max_document_bytes"
	keyCacheBackend     = "cache.backend"
	keyCachePath        = "cache.path"
	keyCacheDSN         = "cache.dsn"
	keyEmbeddingRPS     = "ratelimit.embedding_rps"
	keyEmbeddingBurst   = "ratelimit.burst"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// providerKeyEnv names the conventional variable holding a provider's API key.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// envAPIKey returns the provider's key from its conventional variable, if set.
func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	name, ok := providerKeyEnv[provider]
	if !ok {
		return ""
	}
	val, _ := s.lookupEnv(name)
	return val
}

// Get retrieves current application settings, filling gaps with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, d.Embedding.Dimensions),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:       s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			MaxTokens:   s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
		},
		Retrieval: domain.RetrievalSettings{
			Strategy:       s.getString(keyStrategy, d.Retrieval.Strategy),
			StrategyFile:   s.configStore.GetString(keyStrategyFile),
			Options:        s.getRetrievalOptions(),
			BaselineChunks: s.getInt(keyBaselineChunks, d.Retrieval.BaselineChunks),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize: s.getInt(keyChunkSize, d.Chunking.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Server: domain.ServerSettings{
			Addr:             s.getString(keyServerAddr, d.Server.Addr),
			RequestTimeout:   s.getDuration(keyRequestTimeout, d.Server.RequestTimeout),
			QuestionTimeout:  s.getDuration(keyQuestionTimeout, d.Server.QuestionTimeout),
			MaxWorkers:       s.getInt(keyMaxWorkers, d.Server.MaxWorkers),
			DocumentTTL:      s.getDuration(keyDocumentTTL, d.Server.DocumentTTL),
			MaxDocumentBytes: int64(s.getInt(keyMaxDocBytes, int(d.Server.MaxDocumentBytes))),
		},
		Cache: domain.CacheSettings{
			Backend: s.getCacheBackend(d.Cache.Backend),
			Path:    s.configStore.GetString(keyCachePath),
			DSN:     s.configStore.GetString(keyCacheDSN),
		},
		RateLimit: domain.RateLimitSettings{
			EmbeddingRPS: s.configStore.GetFloat(keyEmbeddingRPS),
			Burst:        s.getInt(keyEmbeddingBurst, 1),
		},
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envAPIKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envAPIKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyStrategy, settings.Retrieval.Strategy},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyServerAddr, settings.Server.Addr},
		{keyRequestTimeout, settings.Server.RequestTimeout.String()},
		{keyQuestionTimeout, settings.Server.QuestionTimeout.String()},
		{keyMaxWorkers, settings.Server.MaxWorkers},
		{keyDocumentTTL, settings.Server.DocumentTTL.String()},
		{keyCacheBackend, string(settings.Cache.Backend)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys are only written when set so the file stays minimal. API keys
	// taken from the environment stay there.
	type entry struct {
		key   string
		value any
		set   bool
	}
	optional := []entry{
		{keyEmbedAPIKey, settings.Embedding.APIKey, s.storesKey(settings.Embedding.Provider, settings.Embedding.APIKey)},
		{keyLLMAPIKey, settings.LLM.APIKey, s.storesKey(settings.LLM.Provider, settings.LLM.APIKey)},
		{keyStrategyFile, settings.Retrieval.StrategyFile, settings.Retrieval.StrategyFile != ""},
		{keyBaselineChunks, settings.Retrieval.BaselineChunks, settings.Retrieval.BaselineChunks > 0},
		{keyBasePoolSize, settings.Retrieval.Options.BasePoolSize, settings.Retrieval.Options.BasePoolSize > 0},
		{keyCachePath, settings.Cache.Path, settings.Cache.Path != ""},
		{keyCacheDSN, settings.Cache.DSN, settings.Cache.DSN != ""},
		{keyEmbeddingRPS, settings.RateLimit.EmbeddingRPS, settings.RateLimit.EmbeddingRPS > 0},
	}
	if f := settings.Retrieval.Options.RelevanceFloor; f != nil {
		optional = append(optional, entry{keyRelevanceFloor, *f, true})
	}
	if w := settings.Retrieval.Options.Weights; w != nil {
		optional = append(optional,
			entry{keyWeightSemantic, w.Semantic, true},
			entry{keyWeightKeyword, w.Keyword, true},
			entry{keyWeightStructural, w.Structural, true},
		)
	}
	for _, v := range optional {
		if !v.set {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

func (s *SettingsService) storesKey(provider domain.AIProvider, key string) bool {
	return key != "" && key != s.envAPIKey(provider)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	switch {
	case provider == domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	default:
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !provider.SupportsLLM() {
		return fmt.Errorf("provider %s does not support text generation", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetStrategy selects a built-in retrieval strategy.
func (s *SettingsService) SetStrategy(name string) error {
	if _, err := domain.Strategy(name); err != nil {
		return err
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Retrieval.Strategy = name
	return s.Save(settings)
}

// Validate checks that the configured retrieval policy and providers are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured", domain.ErrInvalidConfig, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q is not configured", domain.ErrInvalidConfig, settings.LLM.Provider)
	}
	if !settings.Cache.Backend.IsValid() {
		return fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidConfig, settings.Cache.Backend)
	}
	if settings.Cache.Backend == domain.CacheBackendPostgres && settings.Cache.DSN == "" {
		return fmt.Errorf("%w: postgres cache requires cache.dsn", domain.ErrInvalidConfig)
	}
	if settings.Chunking.ChunkSize < 1 || settings.Chunking.Overlap < 0 ||
		settings.Chunking.Overlap >= settings.Chunking.ChunkSize {
		return fmt.Errorf("%w: chunking %d/%d", domain.ErrInvalidConfig, settings.Chunking.ChunkSize, settings.Chunking.Overlap)
	}

	_, err = s.RetrievalConfig(settings)
	return err
}

// RetrievalConfig resolves the built-in strategy named in settings with the
// configured overrides applied. StrategyFile is handled by the caller.
func (s *SettingsService) RetrievalConfig(settings *domain.AppSettings) (domain.RetrievalConfig, error) {
	cfg, err := domain.Strategy(settings.Retrieval.Strategy)
	if err != nil {
		return domain.RetrievalConfig{}, err
	}
	return ApplySettings(cfg, settings.Retrieval)
}

// ApplySettings overlays configured retrieval overrides on cfg.
func ApplySettings(cfg domain.RetrievalConfig, rs domain.RetrievalSettings) (domain.RetrievalConfig, error) {
	if rs.BaselineChunks > 0 {
		cfg.BaselineChunks = rs.BaselineChunks
	}
	opts := rs.Options
	opts.Strategy = ""
	out, err := cfg.WithOptions(opts)
	if err != nil {
		return domain.RetrievalConfig{}, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return out, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetPipelineConfig returns the post-processor pipeline configuration.
// Chunking settings feed the chunker unless pipeline.chunker.* overrides them.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	defaults := domain.DefaultPipelineConfig()

	if processors := s.configStore.GetStringSlice("pipeline.processors"); len(processors) > 0 {
		defaults.Processors = processors
	}
	if defaults.ProcessorConfigs == nil {
		defaults.ProcessorConfigs = make(map[string]map[string]any)
	}

	chunker := defaults.ProcessorConfigs["chunker"]
	if chunker == nil {
		chunker = make(map[string]any)
	}
	if v := s.configStore.GetInt(keyChunkSize); v > 0 {
		chunker["chunk_size"] = v
	}
	if _, ok := s.configStore.Get(keyChunkOverlap); ok {
		chunker["overlap"] = s.configStore.GetInt(keyChunkOverlap)
	}
	defaults.ProcessorConfigs["chunker"] = chunker

	for _, name := range defaults.Processors {
		cfg := s.loadProcessorConfig("pipeline." + name + ".")
		if len(cfg) == 0 {
			continue
		}
		existing := defaults.ProcessorConfigs[name]
		if existing == nil {
			existing = make(map[string]any)
		}
		for k, v := range cfg {
			existing[k] = v
		}
		defaults.ProcessorConfigs[name] = existing
	}

	return defaults
}

// loadProcessorConfig loads config keys with a given prefix into a map.
func (s *SettingsService) loadProcessorConfig(prefix string) map[string]any {
	cfg := make(map[string]any)
	for _, key := range []string{"chunk_size", "overlap", "max_title"} {
		if val, exists := s.configStore.Get(prefix + key); exists {
			cfg[key] = val
		}
	}
	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	val := domain.CacheBackend(s.configStore.GetString(keyCacheBackend))
	if val == "" || !val.IsValid() {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getRetrievalOptions() domain.RetrievalOptions {
	opts := domain.RetrievalOptions{
		BasePoolSize: s.configStore.GetInt(keyBasePoolSize),
	}
	if _, ok := s.configStore.Get(keyRelevanceFloor); ok {
		f := s.configStore.GetFloat(keyRelevanceFloor)
		opts.RelevanceFloor = &f
	}
	_, hasSem := s.configStore.Get(keyWeightSemantic)
	_, hasKey := s.configStore.Get(keyWeightKeyword)
	_, hasStruct := s.configStore.Get(keyWeightStructural)
	if hasSem || hasKey || hasStruct {
		w := domain.DefaultWeights()
		if hasSem {
			w.Semantic = s.configStore.GetFloat(keyWeightSemantic)
		}
		if hasKey {
			w.Keyword = s.configStore.GetFloat(keyWeightKeyword)
		}
		if hasStruct {
			w.Structural = s.configStore.GetFloat(keyWeightStructural)
		}
		opts.Weights = &w
	}
	return opts
}
