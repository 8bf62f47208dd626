// SPDX-License-Identifier: MPL-2.0

// Package config handles sb configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the user config directory
// ($XDG_CONFIG_HOME/sb on Linux, ~/Library/Application Support/sb on macOS,
// %APPDATA%\sb on Windows) or from a path given explicitly. The file is
// validated against the embedded #Config schema before it is merged over the
// defaults. Environment variables prefixed with SB_ override both.
package config
