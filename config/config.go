package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "quimiaca.yaml"

// Config holds all configuration for the tutoring assistant.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Index      IndexConfig      `yaml:"index"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Completion CompletionConfig `yaml:"completion"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PathsConfig locates every persisted artifact. Relative paths resolve
// against the root directory.
type PathsConfig struct {
	Sources       string   `yaml:"sources"`
	Metadata      string   `yaml:"metadata"`
	Index         string   `yaml:"index"`
	Status        string   `yaml:"status"`
	Personalities string   `yaml:"personalities"`
	History       string   `yaml:"history"`
	Sentinel      string   `yaml:"sentinel"`
	Includes      []string `yaml:"includes"`
	Excludes      []string `yaml:"excludes"`
}

// ChunkerConfig holds chunking configuration.
type ChunkerConfig struct {
	Mode      string `yaml:"mode"` // "sentence" or "word"
	MaxTokens int    `yaml:"max_tokens"`
	Words     int    `yaml:"words"` // window size for "word" mode
	Language  string `yaml:"language"`
	Encoding  string `yaml:"encoding"` // tiktoken encoding, empty = heuristic
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai" or "hash"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
}

// IndexConfig holds vector index tuning.
type IndexConfig struct {
	NProbe int `yaml:"nprobe"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK        int `yaml:"top_k"`
	CacheSize   int `yaml:"cache_size"`
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// CompletionConfig configures the OpenAI-compatible chat backend.
type CompletionConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	TopK        int     `yaml:"top_k"`
	// ContextTokens caps the retrieved context packed into the prompt; 0 keeps every hit.
	ContextTokens int    `yaml:"context_tokens"`
	Personality   string `yaml:"personality"`
	TimeoutSec    int    `yaml:"timeout_sec"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Sources:       filepath.Join("dados", "aulas_originais"),
			Metadata:      filepath.Join("dados", "chunks", "base_chunks.json"),
			Index:         filepath.Join("dados", "faiss_index", "index.db"),
			Status:        filepath.Join("dados", "faiss_index", "status.json"),
			Personalities: filepath.Join("dados", "personalidades"),
			History:       filepath.Join("dados", "historico.db"),
			Sentinel:      ".gitkeep",
			Includes:      []string{"*.pdf", "*.txt", "*.PDF", "*.TXT"},
			Excludes:      []string{".*", "~*"},
		},
		Chunker: ChunkerConfig{
			Mode:      "sentence",
			MaxTokens: 200,
			Words:     50,
			Language:  "portuguese",
			Encoding:  "cl100k_base",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-nomic-embed-text-v1.5",
			BaseURL:   "http://localhost:1234/v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 768,
			BatchSize: 64,
			Workers:   4,
		},
		Index: IndexConfig{
			NProbe: 8,
		},
		Retrieve: RetrieveConfig{
			TopK:        5,
			CacheSize:   100,
			CacheTTLSec: 300,
		},
		Completion: CompletionConfig{
			BaseURL:       "http://localhost:1234/v1",
			Model:         "local-model",
			APIKeyEnv:     "OPENAI_API_KEY",
			Temperature:   0.7,
			TopP:          0.9,
			TopK:          3,
			ContextTokens: 1500,
			Personality:   "colega_quimica",
			TimeoutSec:    120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for quimiaca.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, "dados", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve returns a copy whose relative paths are anchored at root.
func (c *Config) Resolve(root string) *Config {
	out := *c
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	out.Paths.Sources = abs(c.Paths.Sources)
	out.Paths.Metadata = abs(c.Paths.Metadata)
	out.Paths.Index = abs(c.Paths.Index)
	out.Paths.Status = abs(c.Paths.Status)
	out.Paths.Personalities = abs(c.Paths.Personalities)
	out.Paths.History = abs(c.Paths.History)
	return &out
}

// EnsureDirs creates the directories holding the persisted artifacts.
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.Paths.Sources,
		filepath.Dir(c.Paths.Metadata),
		filepath.Dir(c.Paths.Index),
		filepath.Dir(c.Paths.Status),
		filepath.Dir(c.Paths.History),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}
