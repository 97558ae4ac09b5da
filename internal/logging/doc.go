// Package logging provides file-based structured logging with rotation for
// the bookmarks binary. Logs are JSON lines written to ~/.bookmarks/logs/,
// optionally teed to stderr; MCP mode never writes to stdout or stderr.
//
// Viewer reads those files back for 'bookmarks logs'.
package logging
