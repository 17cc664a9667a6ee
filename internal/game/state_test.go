package game

import (
	"errors"
	"testing"
	"time"
)

type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) Intn(n int) int {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

func members(ids ...string) []Member {
	out := make([]Member, 0, len(ids))
	for _, id := range ids {
		out = append(out, Member{ID: id, Handle: "@" + id})
	}
	return out
}

func TestDurationVoteOverwrites(t *testing.T) {
	s := NewSession("g")
	s.Phase = PhaseVotingDuration

	s.RecordDurationVote("A", 5, DefaultDurations)
	s.RecordDurationVote("B", 7, DefaultDurations)
	s.RecordDurationVote("A", 10, DefaultDurations)
	s.RecordDurationVote("A", 7, DefaultDurations)

	if len(s.DurationVotes) != 2 {
		t.Fatalf("expected 2 duration votes, got %d", len(s.DurationVotes))
	}
	if s.DurationVotes[0] != (DurationVote{VoterID: "A", Minutes: 7}) {
		t.Fatalf("expected A's vote to be overwritten in place, got %+v", s.DurationVotes[0])
	}
}

func TestDurationVoteRejectsUnknownDurationAndPhase(t *testing.T) {
	s := NewSession("g")
	if s.RecordDurationVote("A", 5, DefaultDurations) {
		t.Fatal("vote in Idle should be ignored")
	}
	s.Phase = PhaseVotingDuration
	if s.RecordDurationVote("A", 6, DefaultDurations) {
		t.Fatal("6 minutes is not an allowed duration")
	}
	if len(s.DurationVotes) != 0 {
		t.Fatalf("expected no votes, got %v", s.DurationVotes)
	}
}

func TestCalculateWinningDuration(t *testing.T) {
	cases := []struct {
		name  string
		votes []Minutes
		want  Minutes
	}{
		{"majority", []Minutes{5, 7, 5}, 5},
		{"tie goes to first", []Minutes{7, 5}, 7},
		{"later tie", []Minutes{10, 5, 5, 10}, 10},
		{"single", []Minutes{10}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var votes []DurationVote
			for i, m := range tc.votes {
				votes = append(votes, DurationVote{VoterID: string(rune('A' + i)), Minutes: m})
			}
			for range 5 {
				got, ok := CalculateWinningDuration(votes)
				if !ok || got != tc.want {
					t.Fatalf("expected %d, got %d (ok=%v)", tc.want, got, ok)
				}
			}
		})
	}
	if _, ok := CalculateWinningDuration(nil); ok {
		t.Fatal("no votes should report no winner")
	}
}

func TestTallyVotesUsesFirstVotePosition(t *testing.T) {
	s := NewSession("g")
	s.Phase = PhaseVoting
	s.RecordPlayerVote("A", "X")
	s.RecordPlayerVote("B", "Y")
	// A changes their mind; A keeps the first arrival slot.
	s.RecordPlayerVote("A", "Y")
	s.RecordPlayerVote("C", "X")

	got, n, ok := s.TallyVotes()
	if !ok || got != "Y" || n != 2 {
		t.Fatalf("expected Y with 2 votes, got %q with %d", got, n)
	}
	if len(s.Votes) != 3 {
		t.Fatalf("expected one vote per voter, got %d", len(s.Votes))
	}
	ballots := s.Ballots()
	if ballots[0] != (Ballot{VoterID: "A", VoteeID: "Y"}) {
		t.Fatalf("unexpected first ballot %+v", ballots[0])
	}
}

func TestDetermineWinner(t *testing.T) {
	s := NewSession("g")
	s.ImpostorID = "P2"
	if DetermineWinner(s, "P2") != WinnerGroup {
		t.Fatal("voting out the impostor should let the group win")
	}
	if DetermineWinner(s, "P1") != WinnerImpostor {
		t.Fatal("voting out a crew member should let the impostor win")
	}
	if DetermineWinner(s, "") != WinnerImpostor {
		t.Fatal("empty vote should let the impostor win")
	}
}

func TestAssignRolesWithDeterministicSource(t *testing.T) {
	s := NewSession("g")
	rng := &seqRand{vals: []int{1, 2, 0}}
	if err := s.AssignRoles(members("P1", "P2", "P3"), []string{"apple", "bridge", "cloud"}, rng); err != nil {
		t.Fatalf("assign roles: %v", err)
	}
	if s.ImpostorID != "P2" {
		t.Fatalf("expected impostor P2, got %s", s.ImpostorID)
	}
	if s.SecretWord != "cloud" {
		t.Fatalf("expected secret word cloud, got %s", s.SecretWord)
	}
	if s.FirstSpeakerID != "P1" {
		t.Fatalf("expected first speaker P1, got %s", s.FirstSpeakerID)
	}
	impostors := 0
	for _, p := range s.Players {
		if p.IsImpostor {
			impostors++
		}
	}
	if impostors != 1 || !s.Players[s.ImpostorID].IsImpostor {
		t.Fatalf("expected exactly one impostor, got %d", impostors)
	}
}

func TestAssignRolesNeedsThreeDistinctPlayers(t *testing.T) {
	s := NewSession("g")
	err := s.AssignRoles(members("P1", "P2", "P1"), DefaultWords, &seqRand{vals: []int{0}})
	if !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}
	if len(s.Players) != 0 || s.ImpostorID != "" {
		t.Fatal("failed assignment must not leave players behind")
	}
	if err := s.AssignRoles(members("P1", "P2", "P3"), nil, &seqRand{vals: []int{0}}); !errors.Is(err, ErrEmptyWordPool) {
		t.Fatalf("expected ErrEmptyWordPool, got %v", err)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := NewSession("g")
	s.Phase = PhaseVotingDuration
	s.RecordDurationVote("P1", 5, DefaultDurations)
	s.SelectedDuration = 5
	if err := s.AssignRoles(members("P1", "P2", "P3"), DefaultWords, &seqRand{vals: []int{0}}); err != nil {
		t.Fatal(err)
	}
	s.DiscussionDeadline = time.Now()
	s.Phase = PhaseVoting
	s.RecordPlayerVote("P1", "P2")
	s.Finalize()

	s.Reset()

	if s.Phase != PhaseIdle {
		t.Fatalf("expected Idle, got %s", s.Phase)
	}
	if s.SelectedDuration != 0 || s.ImpostorID != "" || s.SecretWord != "" || s.VotedOutID != "" || s.Winner != WinnerNone {
		t.Fatalf("optional fields not cleared: %+v", s)
	}
	if len(s.Players) != 0 || len(s.Votes) != 0 || len(s.DurationVotes) != 0 || len(s.Ballots()) != 0 {
		t.Fatal("collections not emptied")
	}
	if !s.DiscussionDeadline.IsZero() || s.FirstSpeakerID != "" {
		t.Fatal("discussion fields not cleared")
	}
}

func TestFinalizeWithoutVotes(t *testing.T) {
	s := NewSession("g")
	s.Phase = PhaseVoting
	if _, ok := s.Finalize(); ok {
		t.Fatal("finalize without votes should report no result")
	}
}

func TestParseWords(t *testing.T) {
	words, err := ParseWords([]byte("- apple\n- ' banana '\n- Apple\n- ''\n"))
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(words) != 2 || words[1] != "banana" {
		t.Fatalf("unexpected words %v", words)
	}

	words, err = ParseWords([]byte(`{"words": ["castle", "moon"]}`))
	if err != nil {
		t.Fatalf("parse mapping: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("unexpected words %v", words)
	}

	if _, err := ParseWords([]byte("[]")); !errors.Is(err, ErrEmptyWordPool) {
		t.Fatalf("expected ErrEmptyWordPool, got %v", err)
	}
}
