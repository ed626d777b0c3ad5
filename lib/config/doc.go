// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the metaloot
// command and local ledger.
//
// Configuration is loaded from a single file named by either the
// METALOOT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no file search. A command
// that runs without any configuration uses [Default].
//
// The file may carry environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${METALOOT_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Program ids and the escrow admin are written in base58 and parsed
// into [address.Address] values while decoding.
package config
