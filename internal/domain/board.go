package domain

// BoardCells is the number of cells on the 3x3 grid.
const BoardCells = 9

// the 8 standard three-in-a-row lines: rows, columns, diagonals
var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// ValidCell reports whether cell is inside the 3x3 grid.
func ValidCell(cell int) bool {
	return cell >= 0 && cell < BoardCells
}

// Outcome evaluates the terminal state of an ordered move list: a sign if any
// winning line is fully occupied by that sign, draw if all 9 cells are filled
// with no line, otherwise none.
func Outcome(moves []Move) Winner {
	var cells [BoardCells]Sign
	for _, m := range moves {
		if ValidCell(m.Cell) {
			cells[m.Cell] = m.Sign
		}
	}

	for _, line := range winningLines {
		s := cells[line[0]]
		if s != "" && s == cells[line[1]] && s == cells[line[2]] {
			return Winner(s)
		}
	}

	if len(moves) == BoardCells {
		return WinnerDraw
	}
	return WinnerNone
}
