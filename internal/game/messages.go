package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func durationPoll(durations []Minutes) Poll {
	opts := make([]PollOption, 0, len(durations))
	for _, m := range durations {
		opts = append(opts, PollOption{ID: m.String(), Label: fmt.Sprintf("%d minutes", m)})
	}
	return Poll{
		ID:      uuid.NewString(),
		Kind:    PollDuration,
		Prompt:  "New game! How long should the discussion last?",
		Options: opts,
	}
}

func accusationPoll(players []Player) Poll {
	opts := make([]PollOption, 0, len(players))
	for _, p := range players {
		opts = append(opts, PollOption{ID: p.ID, Label: p.Handle})
	}
	return Poll{
		ID:      uuid.NewString(),
		Kind:    PollAccusation,
		Prompt:  "Discussion is over. Who is the impostor?",
		Options: opts,
	}
}

func roleText(isImpostor bool, word string) string {
	if isImpostor {
		return "🕵️ You are the IMPOSTOR.\n" +
			"Everyone else knows the secret word. Blend in and don't get caught."
	}
	return "🔑 The secret word is: " + word + "\n" +
		"One player doesn't know it. Find the impostor without giving the word away."
}

func discussionText(firstSpeaker string, m Minutes, deadline time.Time, delivered, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Roles are out (%d/%d delivered). Check your private messages.\n", delivered, total)
	if delivered < total {
		b.WriteString("Players who got nothing should open a private chat with me first.\n")
	}
	fmt.Fprintf(&b, "Discussion runs for %d minutes, voting opens at %s.\n", m, deadline.Format("15:04"))
	fmt.Fprintf(&b, "%s starts.", firstSpeaker)
	return b.String()
}

func resultsText(r Results, label func(id string) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗳 %s was voted out with %d vote(s).\n", label(r.VotedOutID), r.VoteCount)
	fmt.Fprintf(&b, "The impostor was %s. The secret word was %q.\n", label(r.ImpostorID), r.SecretWord)
	if r.Winner == WinnerGroup {
		b.WriteString("🎉 The group wins!\n")
	} else {
		b.WriteString("😈 The impostor wins!\n")
	}
	b.WriteString("\nVotes:\n")
	for _, v := range r.Ballots {
		fmt.Fprintf(&b, "• %s → %s\n", label(v.VoterID), label(v.VoteeID))
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusText(st Status) string {
	switch st.Phase {
	case PhaseVotingDuration:
		return fmt.Sprintf("Choosing the discussion length: %d vote(s) so far.", st.DurationVotes)
	case PhaseAssigningRoles:
		return "Handing out roles…"
	case PhaseDiscussion:
		return fmt.Sprintf("Discussion (%d minutes) with %d players, voting opens at %s.",
			st.SelectedDuration, len(st.Players), st.Deadline.Format("15:04"))
	case PhaseVoting:
		return fmt.Sprintf("Voting: %d of %d players have voted.", st.Votes, len(st.Players))
	case PhaseEnded:
		return "The game has ended."
	default:
		return "No game running. Send /newgame to start one."
	}
}

const (
	msgInProgress      = "A game is already in progress. Use /cancel to stop it."
	msgNothingToCancel = "There is no game to cancel."
	msgCancelled       = "Game cancelled."
	msgNoDurationVotes = "Nobody voted on the discussion length. Game aborted."
	msgNoDeliveries    = "I couldn't message any player privately. Everyone needs to open a private chat with me first. Game aborted."
	msgNoMembers       = "I couldn't fetch the member list. Game aborted."
	msgDraw            = "Nobody voted. The game ends in a draw."
)

func notEnoughPlayersText(have int) string {
	return fmt.Sprintf("Not enough players: need at least %d, have %d.", MinPlayers, have)
}

func durationChosenText(m Minutes) string {
	return fmt.Sprintf("Discussion will last %d minutes. Handing out roles…", m)
}
