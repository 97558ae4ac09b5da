// Package configs provides the embedded configuration template for the
// bookmarks binary.
//
// The template is embedded at build time so `bookmarks config init` works
// from any distribution. Configuration precedence (see internal/config Load):
//  1. Hardcoded defaults
//  2. User config (~/.config/bookmarks/config.yaml)
//  3. --config file, or ./bookmarks.yaml
//  4. Environment variables (BOOKMARKS_*)
package configs

import _ "embed"

// UserConfigTemplate is written by `bookmarks config init` to the user
// config path. Every setting is commented out, so the file loads as the
// defaults until edited.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
