// Package preview serves a built site locally and rebuilds it when the input
// tree or the configuration file changes.
package preview
