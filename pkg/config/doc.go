// Package config loads the relaynotify YAML configuration: the relay
// endpoint, where its secret comes from, the sender, the fixed message and
// the recipient list.
package config
