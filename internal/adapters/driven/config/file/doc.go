// Package file provides filesystem-backed configuration adapters.
//
// Everything lives under ~/.pdfchat unless a directory is given:
//   - config.toml: ConfigStore, nested TOML read and written with dot-notation keys
//   - prompts/: PromptStore, user-editable prompt templates
//   - .env: secrets written by SaveSecret and loaded by LoadDotEnv
package file
