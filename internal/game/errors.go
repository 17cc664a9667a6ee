package game

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidPhase     = errors.New("invalid phase for action")
	ErrCancelled        = errors.New("game was cancelled")
	ErrGameInProgress   = errors.New("a game is already in progress")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrNothingToCancel  = errors.New("nothing to cancel")
	ErrNoDurationVotes  = errors.New("no duration votes")
	ErrNoDeliveries     = errors.New("no role message could be delivered")
	ErrEmptyWordPool    = errors.New("word pool is empty")
)

// MinPlayers is the smallest group that can play.
const MinPlayers = 3
