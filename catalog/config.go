package catalog

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/libraire/catalog/internal/crawl"
	"github.com/hazyhaar/libraire/catalog/internal/scrape"
)

// Config configures the catalog service.
type Config struct {
	// BaseURL is the source site origin.
	BaseURL string `yaml:"base_url"`

	// DBPath is the SQLite cache location.
	DBPath string `yaml:"db_path"`

	// Crawl settings (timeouts, settle delay, disable switch).
	Crawl crawl.Config `yaml:"crawl"`

	// Staleness thresholds per key class.
	Staleness StalenessConfig `yaml:"staleness"`

	// MaxCategories caps one navigation refresh. Default: 8.
	MaxCategories int `yaml:"max_categories"`

	// MaxProducts caps one product-listing refresh. Default: 10.
	MaxProducts int `yaml:"max_products"`
}

// StalenessConfig holds the cache-age thresholds.
type StalenessConfig struct {
	// NavigationTTL is the navigation cache threshold. Default: 24h.
	NavigationTTL time.Duration `yaml:"navigation_ttl"`
	// ProductTTL is the product-listing cache threshold. Default: 6h.
	ProductTTL time.Duration `yaml:"product_ttl"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.worldofbooks.com"
	}
	if c.DBPath == "" {
		c.DBPath = "catalog.db"
	}
	if c.Staleness.NavigationTTL <= 0 {
		c.Staleness.NavigationTTL = 24 * time.Hour
	}
	if c.Staleness.ProductTTL <= 0 {
		c.Staleness.ProductTTL = 6 * time.Hour
	}
	if c.MaxCategories <= 0 {
		c.MaxCategories = scrape.DefaultMaxCategories
	}
	if c.MaxProducts <= 0 {
		c.MaxProducts = scrape.DefaultMaxProducts
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
