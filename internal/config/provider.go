// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects where Load reads from. The zero value uses the
	// platform config directory.
	LoadOptions struct {
		// ConfigFilePath is a file given with --config. It must exist.
		ConfigFilePath string
		// ConfigDirPath replaces the platform config directory.
		ConfigDirPath string
	}

	// Provider produces the effective configuration for one command run.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	cueProvider struct{}

	staticProvider struct {
		cfg Config
	}
)

// NewProvider returns the Provider that layers defaults, the CUE file and
// SB_* environment variables.
func NewProvider() Provider {
	return cueProvider{}
}

// Static returns a Provider that ignores its options and hands out copies
// of cfg. It serves embedders that build a Config in code.
func Static(cfg *Config) Provider {
	return staticProvider{cfg: *cfg}
}

func (cueProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return loadWithOptions(ctx, opts)
}

func (p staticProvider) Load(ctx context.Context, _ LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := p.cfg
	return &c, nil
}
