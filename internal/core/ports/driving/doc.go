// Package driving defines the ports the CLI, HTTP API, MCP server and chat
// TUI use to ask questions, select passages, manage cached documents and
// edit settings.
//
// Implementations live in internal/core/services.
package driving
