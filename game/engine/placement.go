package engine

import "fmt"

// ExclusionPolicy decides which squares may never receive a random mine
type ExclusionPolicy string

const (
	// ExcludeCorners keeps mines off the four true corners
	ExcludeCorners ExclusionPolicy = "corners"
	// ExcludeEdges reproduces the classic game's placement, which keeps mines
	// off the left column, the bottom row and the top-right corner
	ExcludeEdges ExclusionPolicy = "edges"
)

// RNG is the subset of a seeded random source that mine placement needs.
// Both math/rand and golang.org/x/exp/rand generators satisfy it.
type RNG interface {
	Shuffle(n int, swap func(i, j int))
	Int63() int64
}

// ParseExclusionPolicy maps a config value to a policy; empty means corners
func ParseExclusionPolicy(s string) (ExclusionPolicy, error) {
	switch p := ExclusionPolicy(s); p {
	case "":
		return ExcludeCorners, nil
	case ExcludeCorners, ExcludeEdges:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown exclusion policy %q", ErrInvalidConfig, s)
	}
}

// Excludes reports whether x,y is off-limits for random mines on b.
// The origin, where the player starts, is excluded by every policy.
func (p ExclusionPolicy) Excludes(b *Board, x, y int) bool {
	lastX, lastY := b.width-1, b.height-1

	switch p {
	case ExcludeEdges:
		return x == 0 || (x == lastX && y == 0) || y == lastY
	default:
		return (x == 0 || x == lastX) && (y == 0 || y == lastY)
	}
}

// EligibleCount returns how many squares could still receive a random mine
func (b *Board) EligibleCount(policy ExclusionPolicy) int {
	return len(b.eligible(policy))
}

func (b *Board) eligible(policy ExclusionPolicy) []*Square {
	var squares []*Square
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			sq := &b.squares[y][x]
			if sq.HasMine || policy.Excludes(b, x, y) {
				continue
			}
			squares = append(squares, sq)
		}
	}
	return squares
}

// PlaceRandomMines puts count mines on distinct, mine-free squares that the
// policy does not exclude. Every eligible square is equally likely. Nothing is
// placed when count exceeds the eligible squares.
func (b *Board) PlaceRandomMines(rng RNG, count int, policy ExclusionPolicy) error {
	candidates := b.eligible(policy)
	if count < 0 || count > len(candidates) {
		return fmt.Errorf("%w: %d requested, %d eligible squares on %dx%d board (%s policy)",
			ErrInvalidMineCount, count, len(candidates), b.width, b.height, policy)
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, sq := range candidates[:count] {
		sq.HasMine = true
	}

	return nil
}
