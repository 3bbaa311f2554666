// Package cmd implements the relaynotify command tree: send, preview,
// config, secret and version.
package cmd
