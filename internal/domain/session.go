package domain

import "time"

// Move is a single accepted placement. Signs strictly alternate starting with
// X, so the sign of moves[i] is X for even i and O for odd i.
type Move struct {
	Sign     Sign      `json:"sign"`
	Cell     int       `json:"cell"`
	PlayedAt time.Time `json:"played_at"`
}

// GameSession is one instance of a two-player game. Player order is fixed at
// creation and defines the sign assignment: PlayerX moves first.
type GameSession struct {
	ID        string    `json:"id"`
	PlayerX   Identity  `json:"player_x"`
	PlayerO   Identity  `json:"player_o"`
	Moves     []Move    `json:"moves"`
	Winner    Winner    `json:"winner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsPlayer reports whether the identity is one of the session's two players.
func (s *GameSession) IsPlayer(id Identity) bool {
	_, ok := s.SignOf(id.Email)
	return ok
}

// SignOf resolves a player's assigned sign by case-folded email.
func (s *GameSession) SignOf(email string) (Sign, bool) {
	switch NormalizeEmail(email) {
	case NormalizeEmail(s.PlayerX.Email):
		return SignX, true
	case NormalizeEmail(s.PlayerO.Email):
		return SignO, true
	}
	return "", false
}

// TurnSign is the sign allowed to move next: even move count means X.
func (s *GameSession) TurnSign() Sign {
	if len(s.Moves)%2 == 0 {
		return SignX
	}
	return SignO
}

// CellTaken reports whether a cell is already occupied.
func (s *GameSession) CellTaken(cell int) bool {
	for _, m := range s.Moves {
		if m.Cell == cell {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session accepts no further moves.
func (s *GameSession) IsTerminal() bool {
	return s.Winner != WinnerNone
}

// PlayerEmails returns the ordered pair of case-folded player emails.
func (s *GameSession) PlayerEmails() [2]string {
	return [2]string{NormalizeEmail(s.PlayerX.Email), NormalizeEmail(s.PlayerO.Email)}
}
