/*
SPDX-FileCopyrightText: 2025 Deutsche Telekom AG

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDirName = "relaynotify"
	defaultConfigFile    = "config.yaml"
)

// DefaultConfigPath honours RELAYNOTIFY_CONFIG, then the user config dir,
// then ~/.relaynotify.
func DefaultConfigPath() string {
	if env := os.Getenv("RELAYNOTIFY_CONFIG"); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultConfigFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".relaynotify", defaultConfigFile)
}
