package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Search    SearchConfig    `yaml:"search"`
	Server    ServerConfig    `yaml:"server"`
	Scraper   ScraperConfig   `yaml:"scraper"`
}

type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	BatchSize  int           `yaml:"batch_size"`
	Dimensions int           `yaml:"dimensions"`
}

type DatabaseConfig struct {
	Driver    string `yaml:"driver"`
	URL       string `yaml:"url"`
	Path      string `yaml:"path"`
	VectorDim int    `yaml:"vector_dim"`
}

type ChunkingConfig struct {
	Strategy     string  `yaml:"strategy"`
	Window       int     `yaml:"window"`
	Percentile   float64 `yaml:"percentile"`
	MinSentences int     `yaml:"min_sentences"`
	MaxSentences int     `yaml:"max_sentences"`
	ChunkSize    int     `yaml:"chunk_size"`
	ChunkOverlap int     `yaml:"chunk_overlap"`
}

type SearchConfig struct {
	DefaultLimit       int     `yaml:"default_limit"`
	MaxLimit           int     `yaml:"max_limit"`
	MinScore           float64 `yaml:"min_score"`
	ChunkCandidates    int     `yaml:"chunk_candidates"`
	DocumentCandidates int     `yaml:"document_candidates"`
	LexicalCandidates  int     `yaml:"lexical_candidates"`
	SnippetLength      int     `yaml:"snippet_length"`
}

type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type ScraperConfig struct {
	MaxDepth          int           `yaml:"max_depth"`
	MaxPages          int           `yaml:"max_pages"`
	RateLimit         float64       `yaml:"rate_limit"`
	IgnorePatterns    []string      `yaml:"ignore_patterns"`
	AllowedExtensions []string      `yaml:"allowed_extensions"`
	Timeout           time.Duration `yaml:"timeout"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"docspace.yaml",
			"docspace.yml",
			filepath.Join(os.Getenv("HOME"), ".config/docspace/config.yaml"),
			"/etc/docspace/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

// Default returns a configuration with every default applied and no
// environment overrides.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	e := &config.Embedding
	if e.Provider == "" {
		e.Provider = "sidecar"
	}
	if e.BaseURL == "" {
		switch e.Provider {
		case "sidecar":
			e.BaseURL = "http://localhost:8001"
		case "ollama":
			e.BaseURL = "http://localhost:11434"
		}
	}
	if e.Timeout == 0 {
		e.Timeout = 30 * time.Second
	}
	if e.BatchSize == 0 {
		e.BatchSize = 512
	}
	if e.Dimensions == 0 {
		e.Dimensions = 384
	}

	d := &config.Database
	if d.Driver == "" {
		if d.URL != "" {
			d.Driver = "postgres"
		} else {
			d.Driver = "sqlite"
		}
	}
	if d.Path == "" {
		d.Path = "docspace.db"
	}
	if d.VectorDim == 0 {
		d.VectorDim = e.Dimensions
	}

	c := &config.Chunking
	if c.Strategy == "" {
		c.Strategy = "semantic"
	}
	if c.Window == 0 {
		c.Window = 8
	}
	if c.Percentile == 0 {
		c.Percentile = 0.85
	}
	if c.MinSentences == 0 {
		c.MinSentences = 3
	}
	if c.MaxSentences == 0 {
		c.MaxSentences = 20
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 1800
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 200
	}

	s := &config.Search
	if s.DefaultLimit == 0 {
		s.DefaultLimit = 10
	}
	if s.MaxLimit == 0 {
		s.MaxLimit = 50
	}
	if s.MinScore == 0 {
		s.MinScore = 0.25
	}
	if s.ChunkCandidates == 0 {
		s.ChunkCandidates = 2000
	}
	if s.DocumentCandidates == 0 {
		s.DocumentCandidates = 300
	}
	if s.LexicalCandidates == 0 {
		s.LexicalCandidates = 200
	}
	if s.SnippetLength == 0 {
		s.SnippetLength = 240
	}

	srv := &config.Server
	if srv.Addr == "" {
		srv.Addr = ":8080"
	}
	if srv.MaxUploadBytes == 0 {
		srv.MaxUploadBytes = 5 << 20
	}
	if len(srv.AllowedOrigins) == 0 {
		srv.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if len(srv.AllowedExtensions) == 0 {
		srv.AllowedExtensions = []string{".txt", ".md"}
	}

	sc := &config.Scraper
	if sc.MaxDepth == 0 {
		sc.MaxDepth = 1
	}
	if sc.MaxPages == 0 {
		sc.MaxPages = 50
	}
	if sc.RateLimit == 0 {
		sc.RateLimit = 2.0
	}
	if len(sc.AllowedExtensions) == 0 {
		sc.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}
	if sc.Timeout == 0 {
		sc.Timeout = 30 * time.Second
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if driver := os.Getenv("DOCSPACE_DB_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if path := os.Getenv("DOCSPACE_DB_PATH"); path != "" {
		config.Database.Path = path
	}
	if provider := os.Getenv("EMBEDDING_PROVIDER"); provider != "" {
		config.Embedding.Provider = provider
	}
	if baseURL := os.Getenv("EMBEDDING_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
	} else if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.Embedding.Provider == "ollama" {
		config.Embedding.BaseURL = baseURL
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	}
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
}
