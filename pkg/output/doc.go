// Package output renders message previews and run results as tables, JSON,
// YAML or raw MIME.
package output
