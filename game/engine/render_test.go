package engine

import "testing"

func TestRenderBoard(t *testing.T) {
	board := newTestBoard(t, 3, 2, Position{2, 0}, Position{1, 1})
	player := NewPlayer()

	board.Expose(0, 1)
	board.Expose(1, 1)

	rows := RenderBoard(board, player, false)
	expected := []string{
		"[o ] [  ] [  ]",
		"[ x] [ *] [  ]",
	}

	if len(rows) != len(expected) {
		t.Fatalf("Expected %d rows, got %d", len(expected), len(rows))
	}
	for i := range expected {
		if rows[i] != expected[i] {
			t.Errorf("Row %d: expected %q, got %q", i, expected[i], rows[i])
		}
	}
}

func TestRenderBoard_Reveal(t *testing.T) {
	board := newTestBoard(t, 2, 1, Position{1, 0})
	player := NewPlayer()

	if rows := RenderBoard(board, player, false); rows[0] != "[o ] [  ]" {
		t.Errorf("Expected hidden mine, got %q", rows[0])
	}
	if rows := RenderBoard(board, player, true); rows[0] != "[o ] [ +]" {
		t.Errorf("Expected revealed mine, got %q", rows[0])
	}

	player.X = 1
	board.Expose(1, 0)
	if rows := RenderBoard(board, player, true); rows[0] != "[  ] [o*]" {
		t.Errorf("Expected player on exposed mine, got %q", rows[0])
	}
}
