package engine

import "strings"

// RenderBoard draws one string per board row. Each square is "[pe] " where p
// is "o" for the player and e is "x" for an exposed safe square or "*" for an
// exposed mine. With reveal set, unexposed mines are drawn as "+".
func RenderBoard(board *Board, player *Player, reveal bool) []string {
	rows := make([]string, board.height)

	var sb strings.Builder
	for y := 0; y < board.height; y++ {
		sb.Reset()
		for x := 0; x < board.width; x++ {
			sq := &board.squares[y][x]

			sb.WriteByte('[')
			if player != nil && player.X == x && player.Y == y {
				sb.WriteByte('o')
			} else {
				sb.WriteByte(' ')
			}

			switch {
			case sq.Exposed && sq.HasMine:
				sb.WriteByte('*')
			case sq.Exposed:
				sb.WriteByte('x')
			case reveal && sq.HasMine:
				sb.WriteByte('+')
			default:
				sb.WriteByte(' ')
			}
			sb.WriteString("] ")
		}
		rows[y] = strings.TrimRight(sb.String(), " ")
	}

	return rows
}
