package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func movesFor(cells ...int) []Move {
	moves := make([]Move, 0, len(cells))
	for i, c := range cells {
		sign := SignX
		if i%2 == 1 {
			sign = SignO
		}
		moves = append(moves, Move{Sign: sign, Cell: c})
	}
	return moves
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name  string
		cells []int
		want  Winner
	}{
		{name: "empty board is open", cells: nil, want: WinnerNone},
		{name: "single move is open", cells: []int{4}, want: WinnerNone},
		{name: "diagonal win for X", cells: []int{0, 1, 4, 2, 8}, want: WinnerX},
		{name: "row win for O", cells: []int{0, 3, 1, 4, 8, 5}, want: WinnerO},
		{name: "column win for X", cells: []int{1, 0, 4, 2, 7}, want: WinnerX},
		{name: "full board no line is a draw", cells: []int{0, 2, 1, 3, 5, 4, 6, 7, 8}, want: WinnerDraw},
		{name: "four non-winning moves stay open", cells: []int{0, 1, 5, 6}, want: WinnerNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(movesFor(tt.cells...)))
		})
	}
}

func TestValidCell(t *testing.T) {
	assert.True(t, ValidCell(0))
	assert.True(t, ValidCell(8))
	assert.False(t, ValidCell(-1))
	assert.False(t, ValidCell(9))
}
