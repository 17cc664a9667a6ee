package game

import (
	"strconv"
	"time"
)

type Phase string

const (
	PhaseIdle           Phase = "Idle"
	PhaseVotingDuration Phase = "VotingDuration"
	PhaseAssigningRoles Phase = "AssigningRoles"
	PhaseDiscussion     Phase = "Discussion"
	PhaseVoting         Phase = "Voting"
	PhaseEnded          Phase = "Ended"
)

// Active reports whether a game occupies the group. Idle and Ended sessions
// may be replaced by a new game.
func (p Phase) Active() bool {
	return p != PhaseIdle && p != PhaseEnded && p != ""
}

type Winner string

const (
	WinnerNone     Winner = ""
	WinnerImpostor Winner = "impostor"
	WinnerGroup    Winner = "group"
)

// Minutes is a discussion length offered in the duration poll.
type Minutes int

func (m Minutes) Duration() time.Duration { return time.Duration(m) * time.Minute }

func (m Minutes) String() string { return strconv.Itoa(int(m)) }

// DefaultDurations are the discussion lengths offered when none are configured.
var DefaultDurations = []Minutes{5, 7, 10}

// Member is one participant of a chat group as reported by the membership
// collaborator.
type Member struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
}

type Player struct {
	ID         string `json:"id"`
	Handle     string `json:"handle"`
	IsImpostor bool   `json:"-"`
	HasVoted   bool   `json:"hasVoted"`
}

type DurationVote struct {
	VoterID string  `json:"voterId"`
	Minutes Minutes `json:"minutes"`
}

// PollOption is one selectable entry of a Poll.
type PollOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type PollKind string

const (
	PollDuration   PollKind = "duration"
	PollAccusation PollKind = "accusation"
)

// Poll is the structured payload handed to the messenger. Encoding it for
// the wire is the messenger's job.
type Poll struct {
	ID      string       `json:"id"`
	Kind    PollKind     `json:"kind"`
	Prompt  string       `json:"prompt"`
	Options []PollOption `json:"options"`
}

// Ballot is one line of the per-voter breakdown in the results.
type Ballot struct {
	VoterID string `json:"voterId"`
	VoteeID string `json:"voteeId"`
}

type Results struct {
	VotedOutID string   `json:"votedOutId"`
	VoteCount  int      `json:"voteCount"`
	ImpostorID string   `json:"impostorId"`
	SecretWord string   `json:"secretWord"`
	Winner     Winner   `json:"winner"`
	Ballots    []Ballot `json:"ballots"`
}

// Status is a read-only snapshot of a group's session.
type Status struct {
	GroupID          string    `json:"groupId"`
	Phase            Phase     `json:"phase"`
	DurationVotes    int       `json:"durationVotes"`
	SelectedDuration Minutes   `json:"selectedDuration,omitempty"`
	Players          []Player  `json:"players"`
	Votes            int       `json:"votes"`
	Deadline         time.Time `json:"deadline,omitzero"`
	Winner           Winner    `json:"winner,omitempty"`
}
