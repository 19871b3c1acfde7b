// Package ui implements the `watch` terminal view: a live table of each
// user's sync status and currently-playing track, driven entirely by the
// engine's progress channel. The model never calls back into the engine.
package ui
