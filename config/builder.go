package config

import "time"

// ConfigBuilder assembles a Config starting from LoadDefault
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder creates a builder seeded with the defaults
func NewConfigBuilder() *ConfigBuilder {
	cfg, err := LoadDefault()
	if err != nil {
		cfg = &Config{}
		*cfg = Defaults
	}
	return &ConfigBuilder{cfg: *cfg}
}

func (b *ConfigBuilder) WithDBPath(path string) *ConfigBuilder {
	b.cfg.DB.DBPath = path
	return b
}

func (b *ConfigBuilder) WithDBFile(file string) *ConfigBuilder {
	b.cfg.DB.DBFile = file
	return b
}

func (b *ConfigBuilder) WithBucket(bucket string) *ConfigBuilder {
	b.cfg.DB.Bucket = bucket
	return b
}

func (b *ConfigBuilder) WithArch(arch string) *ConfigBuilder {
	b.cfg.Catalog.Arch = arch
	return b
}

func (b *ConfigBuilder) WithTableFile(path string) *ConfigBuilder {
	b.cfg.Catalog.TableFile = path
	return b
}

func (b *ConfigBuilder) WithManifestTTL(ttl time.Duration) *ConfigBuilder {
	b.cfg.Catalog.ManifestTTL = ttl
	return b
}

func (b *ConfigBuilder) WithHTTPPort(port string) *ConfigBuilder {
	b.cfg.HTTP.Port = port
	return b
}

// Build validates and returns the assembled Config
func (b *ConfigBuilder) Build() (*Config, error) {
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
