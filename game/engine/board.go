package engine

import "fmt"

// Square is one cell of the board
type Square struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	HasMine bool `json:"has_mine"`
	Exposed bool `json:"exposed"`
}

// Board owns the grid of squares. Its shape is fixed at construction; only
// mine placement and exposure mutate it.
type Board struct {
	width, height int
	squares       [][]Square // indexed [y][x]
}

// NewBoard creates a width x height board of unexposed, mine-free squares
func NewBoard(width, height int) (*Board, error) {
	if width < MinBoardSize || width > MaxBoardSize || height < MinBoardSize || height > MaxBoardSize {
		return nil, fmt.Errorf("%w: %dx%d (each side must be between %d and %d)",
			ErrInvalidBoardSize, width, height, MinBoardSize, MaxBoardSize)
	}

	squares := make([][]Square, height)
	for y := 0; y < height; y++ {
		row := make([]Square, width)
		for x := 0; x < width; x++ {
			row[x] = Square{X: x, Y: y}
		}
		squares[y] = row
	}

	return &Board{
		width:   width,
		height:  height,
		squares: squares,
	}, nil
}

func (b *Board) Width() int {
	return b.width
}

func (b *Board) Height() int {
	return b.height
}

// InBounds reports whether x,y addresses a square on the board
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// Square returns the square at x,y. The returned pointer aliases the board.
func (b *Board) Square(x, y int) (*Square, error) {
	if !b.InBounds(x, y) {
		return nil, fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfBounds, x, y, b.width, b.height)
	}
	return &b.squares[y][x], nil
}

// PlaceMine puts a mine on x,y regardless of any exclusion policy
func (b *Board) PlaceMine(x, y int) error {
	sq, err := b.Square(x, y)
	if err != nil {
		return err
	}
	sq.HasMine = true
	return nil
}

// Expose marks x,y exposed and reports whether it holds a mine. Exposing an
// already exposed square changes nothing and reports the same mine status.
func (b *Board) Expose(x, y int) (bool, error) {
	sq, err := b.Square(x, y)
	if err != nil {
		return false, err
	}
	if sq.Exposed {
		return sq.HasMine, nil
	}
	sq.Exposed = true
	return sq.HasMine, nil
}

// MineCount returns the number of mined squares
func (b *Board) MineCount() int {
	return b.count(func(sq *Square) bool { return sq.HasMine })
}

// ExposedCount returns the number of exposed squares
func (b *Board) ExposedCount() int {
	return b.count(func(sq *Square) bool { return sq.Exposed })
}

// SafeRemaining returns the number of mine-free squares not yet exposed
func (b *Board) SafeRemaining() int {
	return b.count(func(sq *Square) bool { return !sq.HasMine && !sq.Exposed })
}

func (b *Board) count(match func(*Square) bool) int {
	n := 0
	for y := range b.squares {
		for x := range b.squares[y] {
			if match(&b.squares[y][x]) {
				n++
			}
		}
	}
	return n
}
