// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/slicebuild/sb/pkg/version"
)

const (
	// FormatShell emits a plain shell script.
	FormatShell OutputFormat = "sh"
	// FormatDocker emits a Dockerfile.
	FormatDocker OutputFormat = "d"

	// DefaultRepo is the git repository sb fetches slice buckets from.
	DefaultRepo = "https://github.com/slicebuild/slices"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrConfigFileNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigFileNotFound = errors.New("config file not found")
)

type (
	// OutputFormat selects the formatter used by `sb make`.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// FetchConfig configures where `sb fetch` downloads slices from.
	FetchConfig struct {
		// Repo is the git repository whose version branches hold slice buckets.
		Repo string `json:"repo" mapstructure:"repo"`
		// ArchiveURL, when set, is a zip archive fetched instead of the repo.
		ArchiveURL string `json:"archive_url" mapstructure:"archive_url"`
	}

	// Config holds the application configuration.
	Config struct {
		// SlicesRoot is the directory containing version buckets.
		SlicesRoot string `json:"slices_root" mapstructure:"slices_root"`
		// OutputDir is where `sb make` writes generated files.
		OutputDir string `json:"output_dir" mapstructure:"output_dir"`
		// DefaultOS is the target OS when --os is not given.
		DefaultOS string `json:"default_os" mapstructure:"default_os"`
		// DefaultLayer is built when `sb make` gets no layer names.
		DefaultLayer string `json:"default_layer" mapstructure:"default_layer"`
		// Format is the default output format.
		Format OutputFormat `json:"format" mapstructure:"format"`
		// Policy is the default version-matching policy name.
		Policy string `json:"policy" mapstructure:"policy"`
		// OSBaseDependency makes every slice implicitly depend on the OS base slice.
		OSBaseDependency bool `json:"os_base_dependency" mapstructure:"os_base_dependency"`
		// Fetch configures remote catalog retrieval.
		Fetch FetchConfig `json:"fetch" mapstructure:"fetch"`

		// Source is the config file the values were read from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}
)

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: sh, d)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat so callers can use errors.Is for programmatic detection.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// IsValid returns whether the OutputFormat is one of the defined formats,
// and a list of validation errors if it is not.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case FormatShell, FormatDocker:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks the fields the CUE schema cannot fully express. It also
// covers values that arrived through environment variables, which bypass
// the schema.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SlicesRoot) == "" {
		errs = append(errs, errors.New("slices_root must not be empty"))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if _, fieldErrs := c.Format.IsValid(); len(fieldErrs) > 0 {
		errs = append(errs, fieldErrs...)
	}
	if _, err := version.ParsePolicy(c.Policy); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.OSName(); err != nil {
		errs = append(errs, fmt.Errorf("default_os: %w", err))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// VersionPolicy returns the parsed default policy.
func (c *Config) VersionPolicy() (version.Policy, error) {
	return version.ParsePolicy(c.Policy)
}

// OSName returns the name part of DefaultOS ("debian-8" yields "debian").
func (c *Config) OSName() (string, error) {
	name, _, err := version.ExtractNameAndVersion(strings.ToLower(strings.TrimSpace(c.DefaultOS)))
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", errors.New("empty OS name")
	}
	// A dot can only come from a version suffix that did not parse.
	if strings.Contains(name, ".") {
		return "", fmt.Errorf("%w: %q", version.ErrInvalidVersion, c.DefaultOS)
	}
	return name, nil
}

// DefaultConfig returns the built-in defaults. The output directory must stay
// outside the slices root, or generated files would load as a bucket.
func DefaultConfig() *Config {
	base := filepath.Join(userHomeDir(), ".sb")
	return &Config{
		SlicesRoot:       filepath.Join(base, "slices"),
		OutputDir:        filepath.Join(base, "make"),
		DefaultOS:        "debian",
		DefaultLayer:     "jekyll",
		Format:           FormatShell,
		Policy:           version.ExactOrGreater.String(),
		OSBaseDependency: true,
		Fetch: FetchConfig{
			Repo: DefaultRepo,
		},
	}
}
