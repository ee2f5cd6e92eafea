// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the deploywatch daemon configuration.
//
// Configuration comes from a single YAML file named by either the
// DEPLOYWATCH_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no discovery and no search path.
//
// After the file is read, DEPLOYWATCH_* environment variables override
// individual values (DEPLOYWATCH_CHANNEL, DEPLOYWATCH_DEPLOY_TTL,
// DEPLOYWATCH_MATRIX_HOMESERVER_URL, ...). This lets a container
// supply the access token and homeserver without rewriting the file.
// ${HOME} and ${VAR:-default} are expanded in path fields.
//
// Callers run [Config.Validate] before using the result.
package config
