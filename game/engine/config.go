package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Layout characters for fixed mine layouts
const (
	LayoutEmpty = '.'
	LayoutMine  = '*'
)

// Messages are the texts a driver shows after each action
type Messages struct {
	Welcome string `json:"welcome" yaml:"welcome"`
	Wall    string `json:"wall" yaml:"wall"`
	Boom    string `json:"boom" yaml:"boom"`
	Safe    string `json:"safe" yaml:"safe"`   // %d = adjacent mines
	Score   string `json:"score" yaml:"score"` // %d = score
	Goodbye string `json:"goodbye" yaml:"goodbye"`
	Invalid string `json:"invalid" yaml:"invalid"`
}

// GameConfig represents a game configuration loaded from JSON or YAML
type GameConfig struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Width       int    `json:"width" yaml:"width"`
	Height      int    `json:"height" yaml:"height"`
	Mines       int    `json:"mines" yaml:"mines"`
	// Seed fixes the mine layout; 0 picks a time based seed per game
	Seed      int64           `json:"seed,omitempty" yaml:"seed,omitempty"`
	Exclusion ExclusionPolicy `json:"exclusion,omitempty" yaml:"exclusion,omitempty"`
	// Layout optionally fixes mine positions, one string per row
	Layout   []string `json:"layout,omitempty" yaml:"layout,omitempty"`
	Messages Messages `json:"messages" yaml:"messages"`
}

// DefaultMessages returns the prompts of the classic console game
func DefaultMessages() Messages {
	return Messages{
		Welcome: "Find the safe squares. Mind the mines!",
		Wall:    "There's a wall.",
		Boom:    "Boom!",
		Safe:    "Nice! There are %d surrounding mines.",
		Score:   "Score: %d",
		Goodbye: "Goodbye.",
		Invalid: "Invalid command.",
	}
}

// DefaultGameConfig returns the classic 4x4 board with 8 mines
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "default",
		Description: "Classic 4x4 board with 8 hidden mines",
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Mines:       DefaultMines,
		Exclusion:   ExcludeCorners,
		Messages:    DefaultMessages(),
	}
}

// FillDefaults sets every empty message and the exclusion policy to their defaults
func (c *GameConfig) FillDefaults() {
	defaults := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&c.Messages.Welcome, defaults.Welcome)
	fill(&c.Messages.Wall, defaults.Wall)
	fill(&c.Messages.Boom, defaults.Boom)
	fill(&c.Messages.Safe, defaults.Safe)
	fill(&c.Messages.Score, defaults.Score)
	fill(&c.Messages.Goodbye, defaults.Goodbye)
	fill(&c.Messages.Invalid, defaults.Invalid)

	if c.Exclusion == "" {
		c.Exclusion = ExcludeCorners
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	// Board size
	if config.Width < MinBoardSize || config.Width > MaxBoardSize {
		return fmt.Errorf("%w: width must be between %d and %d, got %d",
			ErrInvalidConfig, MinBoardSize, MaxBoardSize, config.Width)
	}
	if config.Height < MinBoardSize || config.Height > MaxBoardSize {
		return fmt.Errorf("%w: height must be between %d and %d, got %d",
			ErrInvalidConfig, MinBoardSize, MaxBoardSize, config.Height)
	}

	policy, err := ParseExclusionPolicy(string(config.Exclusion))
	if err != nil {
		return err
	}

	if config.Mines < 0 {
		return fmt.Errorf("%w: mines must not be negative, got %d", ErrInvalidMineCount, config.Mines)
	}

	if len(config.Layout) > 0 {
		if err := validateLayout(config); err != nil {
			return err
		}
	} else {
		// Feasibility: the mines must fit on the squares the policy leaves open
		board, err := NewBoard(config.Width, config.Height)
		if err != nil {
			return err
		}
		if eligible := board.EligibleCount(policy); config.Mines > eligible {
			return fmt.Errorf("%w: %d mines requested but only %d squares are eligible on a %dx%d board (%s policy)",
				ErrInvalidMineCount, config.Mines, eligible, config.Width, config.Height, policy)
		}
	}

	// Format strings
	if config.Messages.Safe != "" && !strings.Contains(config.Messages.Safe, "%d") {
		return fmt.Errorf("%w: messages.safe must contain %%d for the adjacent mine count", ErrInvalidConfig)
	}
	if config.Messages.Score != "" && !strings.Contains(config.Messages.Score, "%d") {
		return fmt.Errorf("%w: messages.score must contain %%d for the score", ErrInvalidConfig)
	}

	return nil
}

func validateLayout(config *GameConfig) error {
	if len(config.Layout) != config.Height {
		return fmt.Errorf("%w: layout must have %d rows to match height, got %d",
			ErrInvalidConfig, config.Height, len(config.Layout))
	}

	mines := 0
	for i, row := range config.Layout {
		if len(row) != config.Width {
			return fmt.Errorf("%w: row %d must have %d characters to match width, got %d",
				ErrInvalidConfig, i+1, config.Width, len(row))
		}
		for j, char := range row {
			switch char {
			case LayoutEmpty:
			case LayoutMine:
				mines++
			default:
				return fmt.Errorf("%w: invalid character '%c' at row %d, col %d", ErrInvalidConfig, char, i+1, j+1)
			}
		}
	}

	if mines != config.Mines {
		return fmt.Errorf("%w: layout has %d mines but mines is %d", ErrInvalidMineCount, mines, config.Mines)
	}
	return nil
}

// LoadGameConfig loads a game configuration from a .json, .yaml or .yml file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseGameConfig(data, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}
	return config, nil
}

// ParseGameConfig decodes, defaults and validates a config. ext selects the
// format: ".yaml" and ".yml" are YAML, anything else JSON.
func ParseGameConfig(data []byte, ext string) (*GameConfig, error) {
	var config GameConfig

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}

	config.FillDefaults()
	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// buildBoard creates the board described by config, drawing random mines from rng
func buildBoard(config *GameConfig, rng RNG) (*Board, error) {
	board, err := NewBoard(config.Width, config.Height)
	if err != nil {
		return nil, err
	}

	if len(config.Layout) > 0 {
		for y, row := range config.Layout {
			for x, char := range row {
				if char == LayoutMine {
					if err := board.PlaceMine(x, y); err != nil {
						return nil, err
					}
				}
			}
		}
		return board, nil
	}

	policy, err := ParseExclusionPolicy(string(config.Exclusion))
	if err != nil {
		return nil, err
	}
	if err := board.PlaceRandomMines(rng, config.Mines, policy); err != nil {
		return nil, err
	}
	return board, nil
}
