// Package config provides configuration management for minewalk.
//
// Game configurations live as JSON or YAML files in a config directory.
// Each file defines a board size, a mine count, an optional seed, the
// exclusion policy used for random placement, an optional fixed layout
// ('.' empty, '*' mine) and the texts shown after each action.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("classic")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// Loaded configurations are cached by name without extension. The default is
// "classic" when present, else the first valid config in the directory, else
// the built-in 4x4 board with 8 mines.
package config
