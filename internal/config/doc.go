// Package config provides configuration for replstorm.
//
// Configuration merges three layers, lowest priority first: built-in
// defaults, a TOML settings file, and REPLSTORM_ environment variables.
// REPL definitions (command lines and prompt rules) live in a separate
// repls.yml file merged over the built-in definitions.
package config
