// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration with POLICYQA_* environment overrides
//   - PromptStore: user-editable answer prompt templates
//   - WatchPrompts: fsnotify-driven prompt reloading
package file
