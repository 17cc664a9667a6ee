package game

import (
	"slices"
	"time"
)

// Session is the full mutable state of one group's game. It carries no lock;
// the orchestrator serializes access per group.
type Session struct {
	GroupID string
	Phase   Phase

	DurationVotes    []DurationVote
	SelectedDuration Minutes

	Players     map[string]*Player
	playerOrder []string // membership order at role assignment

	ImpostorID         string
	SecretWord         string
	FirstSpeakerID     string
	DiscussionDeadline time.Time

	Votes     map[string]string // voterID -> voteeID
	voteOrder []string          // voters by arrival of their first vote

	VotedOutID string
	Winner     Winner
}

func NewSession(groupID string) *Session {
	s := &Session{GroupID: groupID}
	s.Reset()
	return s
}

// Reset returns the session to Idle and clears every per-game field.
func (s *Session) Reset() {
	s.Phase = PhaseIdle
	s.DurationVotes = nil
	s.SelectedDuration = 0
	s.Players = make(map[string]*Player)
	s.playerOrder = nil
	s.ImpostorID = ""
	s.SecretWord = ""
	s.FirstSpeakerID = ""
	s.DiscussionDeadline = time.Time{}
	s.Votes = make(map[string]string)
	s.voteOrder = nil
	s.VotedOutID = ""
	s.Winner = WinnerNone
}

// RecordDurationVote stores the voter's choice, replacing an earlier vote in
// place. Votes outside the VotingDuration phase or outside allowed are
// dropped; the return value reports whether the vote was kept.
func (s *Session) RecordDurationVote(voterID string, m Minutes, allowed []Minutes) bool {
	if s.Phase != PhaseVotingDuration || !slices.Contains(allowed, m) {
		return false
	}
	for i := range s.DurationVotes {
		if s.DurationVotes[i].VoterID == voterID {
			s.DurationVotes[i].Minutes = m
			return true
		}
	}
	s.DurationVotes = append(s.DurationVotes, DurationVote{VoterID: voterID, Minutes: m})
	return true
}

// RecordPlayerVote stores an accusation; last write wins. The votee is not
// checked against Players.
func (s *Session) RecordPlayerVote(voterID, voteeID string) bool {
	if s.Phase != PhaseVoting {
		return false
	}
	if _, ok := s.Votes[voterID]; !ok {
		s.voteOrder = append(s.voteOrder, voterID)
	}
	s.Votes[voterID] = voteeID
	if p := s.Players[voterID]; p != nil {
		p.HasVoted = true
	}
	return true
}

// Ballots returns the accusations in arrival order.
func (s *Session) Ballots() []Ballot {
	out := make([]Ballot, 0, len(s.voteOrder))
	for _, voter := range s.voteOrder {
		out = append(out, Ballot{VoterID: voter, VoteeID: s.Votes[voter]})
	}
	return out
}

// PlayerList returns copies of the players in membership order.
func (s *Session) PlayerList() []Player {
	out := make([]Player, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		if p := s.Players[id]; p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Plurality returns the value with the strictly highest count. On a tie the
// value that first appeared in values wins. ok is false for empty input.
func Plurality[T comparable](values []T) (winner T, count int, ok bool) {
	counts := make(map[T]int, len(values))
	var order []T
	for _, v := range values {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	for _, v := range order {
		if counts[v] > count {
			winner, count, ok = v, counts[v], true
		}
	}
	return winner, count, ok
}

// CalculateWinningDuration tallies the duration votes in arrival order.
func CalculateWinningDuration(votes []DurationVote) (Minutes, bool) {
	values := make([]Minutes, len(votes))
	for i, v := range votes {
		values[i] = v.Minutes
	}
	m, _, ok := Plurality(values)
	return m, ok
}

// TallyVotes returns the most accused player and the number of votes against
// them.
func (s *Session) TallyVotes() (votedOutID string, count int, ok bool) {
	values := make([]string, 0, len(s.voteOrder))
	for _, voter := range s.voteOrder {
		values = append(values, s.Votes[voter])
	}
	return Plurality(values)
}

func DetermineWinner(s *Session, votedOutID string) Winner {
	if votedOutID != "" && votedOutID == s.ImpostorID {
		return WinnerGroup
	}
	return WinnerImpostor
}

// AssignRoles fills Players from members, then draws the impostor, the
// secret word and the first speaker from rng. members must already exclude
// the bot itself.
func (s *Session) AssignRoles(members []Member, words []string, rng Rand) error {
	if len(members) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	if len(words) == 0 {
		return ErrEmptyWordPool
	}
	s.Players = make(map[string]*Player, len(members))
	s.playerOrder = s.playerOrder[:0]
	for _, m := range members {
		if _, dup := s.Players[m.ID]; dup {
			continue
		}
		s.Players[m.ID] = &Player{ID: m.ID, Handle: m.Handle}
		s.playerOrder = append(s.playerOrder, m.ID)
	}
	if len(s.playerOrder) < MinPlayers {
		s.Players = make(map[string]*Player)
		s.playerOrder = nil
		return ErrNotEnoughPlayers
	}

	s.ImpostorID = s.playerOrder[rng.Intn(len(s.playerOrder))]
	s.Players[s.ImpostorID].IsImpostor = true
	s.SecretWord = words[rng.Intn(len(words))]
	s.FirstSpeakerID = s.playerOrder[rng.Intn(len(s.playerOrder))]
	return nil
}

// Finalize records the outcome of the accusation vote. ok is false when no
// votes were cast.
func (s *Session) Finalize() (Results, bool) {
	votedOut, count, ok := s.TallyVotes()
	if !ok {
		return Results{}, false
	}
	s.VotedOutID = votedOut
	s.Winner = DetermineWinner(s, votedOut)
	return Results{
		VotedOutID: votedOut,
		VoteCount:  count,
		ImpostorID: s.ImpostorID,
		SecretWord: s.SecretWord,
		Winner:     s.Winner,
		Ballots:    s.Ballots(),
	}, true
}
