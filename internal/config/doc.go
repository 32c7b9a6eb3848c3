// Package config loads, normalizes, and validates psxinstall configuration.
//
// Configuration is read from TOML (explicit path, then
// ~/.config/psxinstall/config.toml, then ./psxinstall.toml) and layered over
// Default(). Load expands `~`, derives the data, game, tool and manifest paths
// from resource_dir when they are left blank, resolves the Java runtime from
// JAVA_HOME when no binary is configured, and rejects unusable values before
// any pipeline code runs.
//
// CreateSample writes the embedded sample_config.toml for `psxinstall config init`.
package config
