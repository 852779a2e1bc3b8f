package bucket

import (
	"time"

	"github.com/ethanbaker/bucket/pkg/factoid"
	"github.com/ethanbaker/bucket/pkg/utils"
)

// Config holds the engine settings
type Config struct {
	Nick           string        `json:"nick" yaml:"nick"`
	InventorySize  int           `json:"inventory_size" yaml:"inventory_size"`
	FactLength     int           `json:"fact_length" yaml:"fact_length"` // Minimum length of an unaddressed query
	StoreTimeout   time.Duration `json:"store_timeout" yaml:"store_timeout"`
	LiteralPath    string        `json:"literal_path" yaml:"literal_path"`
	LiteralBaseURL string        `json:"literal_base_url" yaml:"literal_base_url"`
	AliasDepth     int           `json:"alias_depth" yaml:"alias_depth"` // Alias hops followed per lookup
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() *Config {
	return &Config{
		Nick:           "bucket",
		InventorySize:  15,
		FactLength:     6,
		StoreTimeout:   10 * time.Second,
		LiteralPath:    "literal",
		LiteralBaseURL: "http://localhost:8080/api/literal/",
		AliasDepth:     factoid.MaxAliasDepth,
	}
}

// NewConfig reads the engine settings from the BUCKET_* keys of cfg
func NewConfig(cfg *utils.Config) *Config {
	d := DefaultConfig()
	return &Config{
		Nick:           cfg.GetWithDefault("BUCKET_NICK", d.Nick),
		InventorySize:  cfg.GetIntWithDefault("BUCKET_INV_SIZE", d.InventorySize),
		FactLength:     cfg.GetIntWithDefault("BUCKET_FACT_LENGTH", d.FactLength),
		StoreTimeout:   cfg.GetDurationWithDefault("BUCKET_STORE_TIMEOUT", d.StoreTimeout),
		LiteralPath:    cfg.GetWithDefault("BUCKET_LITERAL_PATH", d.LiteralPath),
		LiteralBaseURL: cfg.GetWithDefault("BUCKET_LITERAL_BASEURL", d.LiteralBaseURL),
		AliasDepth:     cfg.GetIntWithDefault("BUCKET_ALIAS_DEPTH", d.AliasDepth),
	}
}
