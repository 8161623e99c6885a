// Command analyze prints quick, human-readable heuristics about configuration
// files in a configs directory. It summarizes dimensions, mine density, the
// squares the exclusion policy leaves open, and how dangerous the start is,
// either from a fixed layout or averaged over seeded random boards.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/minewalk/game/engine"
)

// samples is the number of seeded boards drawn for random configs
const samples = 200

// Analysis holds the figures reported for one configuration
type Analysis struct {
	Name        string
	Width       int
	Height      int
	Mines       int
	Policy      engine.ExclusionPolicy
	Fixed       bool
	Eligible    int     // squares open to random mines
	Density     float64 // mines per square
	SafeSquares int
	// StartAdjacent is the mine count next to the origin; averaged for random boards
	StartAdjacent float64
	// QuietSquares are safe squares with no adjacent mine; averaged for random boards
	QuietSquares float64
	// MinedLayout lists mine positions of a fixed layout
	MinedLayout []engine.Position
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := configFiles(dir)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", dir, err)
		os.Exit(1)
	}

	for _, path := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(path))
		config, err := engine.LoadGameConfig(path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		analysis, err := analyzeConfig(config)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
}

// configFiles lists the .json, .yaml and .yml files in dir, sorted
func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func analyzeConfig(config *engine.GameConfig) (Analysis, error) {
	a := Analysis{
		Name:   config.Name,
		Width:  config.Width,
		Height: config.Height,
		Mines:  config.Mines,
		Policy: config.Exclusion,
		Fixed:  len(config.Layout) > 0,
	}
	squares := config.Width * config.Height
	a.Density = float64(config.Mines) / float64(squares)
	a.SafeSquares = squares - config.Mines

	empty, err := engine.NewBoard(config.Width, config.Height)
	if err != nil {
		return a, err
	}
	a.Eligible = empty.EligibleCount(config.Exclusion)

	if a.Fixed {
		eng, err := engine.NewEngine(config)
		if err != nil {
			return a, err
		}
		board := eng.Board()
		a.StartAdjacent = float64(engine.CountAdjacentMines(board, 0, 0))
		a.QuietSquares = float64(quietSquares(board))
		for y := 0; y < board.Height(); y++ {
			for x := 0; x < board.Width(); x++ {
				if sq, _ := board.Square(x, y); sq.HasMine {
					a.MinedLayout = append(a.MinedLayout, engine.Position{X: x, Y: y})
				}
			}
		}
		return a, nil
	}

	var adjacent, quiet int
	for i := 1; i <= samples; i++ {
		seeded := *config
		seeded.Seed = int64(i)
		eng, err := engine.NewEngine(&seeded)
		if err != nil {
			return a, err
		}
		adjacent += engine.CountAdjacentMines(eng.Board(), 0, 0)
		quiet += quietSquares(eng.Board())
	}
	a.StartAdjacent = float64(adjacent) / samples
	a.QuietSquares = float64(quiet) / samples
	return a, nil
}

// quietSquares counts safe squares with no mine next to them
func quietSquares(board *engine.Board) int {
	count := 0
	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			sq, _ := board.Square(x, y)
			if !sq.HasMine && engine.CountAdjacentMines(board, x, y) == 0 {
				count++
			}
		}
	}
	return count
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Board: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(w, "Mines: %d (%.0f%% density)\n", a.Mines, a.Density*100)
	fmt.Fprintf(w, "Safe squares: %d\n", a.SafeSquares)

	if a.Fixed {
		fmt.Fprintf(w, "Layout: fixed, mines at %s\n", formatPositions(a.MinedLayout))
		fmt.Fprintf(w, "Mines next to start: %.0f\n", a.StartAdjacent)
		fmt.Fprintf(w, "Quiet squares (no adjacent mines): %.0f\n", a.QuietSquares)
		for _, p := range a.MinedLayout {
			if p.X == 0 && p.Y == 0 {
				fmt.Fprintf(w, "⚠️  WARNING: the starting square holds a mine\n")
			}
		}
		return
	}

	fmt.Fprintf(w, "Layout: random, %s policy leaves %d eligible squares\n", a.Policy, a.Eligible)
	if a.Mines == a.Eligible {
		fmt.Fprintf(w, "⚠️  WARNING: every eligible square is mined, the layout is the same for every seed\n")
	} else {
		fmt.Fprintf(w, "✅ %d mines fit on %d eligible squares\n", a.Mines, a.Eligible)
	}
	fmt.Fprintf(w, "Mines next to start (avg of %d boards): %.2f\n", samples, a.StartAdjacent)
	fmt.Fprintf(w, "Quiet squares (avg of %d boards): %.2f\n", samples, a.QuietSquares)
}

func formatPositions(positions []engine.Position) string {
	if len(positions) == 0 {
		return "none"
	}
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}
