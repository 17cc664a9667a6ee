package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/impostor/internal/game"
)

// Adapter exposes the Bot API as the game's messenger, member directory and
// name resolver. Group and participant ids are decimal Telegram ids.
type Adapter struct {
	client *Client
	roster *Roster
}

func NewAdapter(client *Client, roster *Roster) *Adapter {
	return &Adapter{client: client, roster: roster}
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram id %q: %w", id, err)
	}
	return n, nil
}

func (a *Adapter) SendGroup(ctx context.Context, groupID, text string) error {
	chatID, err := parseID(groupID)
	if err != nil {
		return err
	}
	_, err = a.client.SendMessage(ctx, chatID, text, nil)
	return err
}

func (a *Adapter) SendPoll(ctx context.Context, groupID string, poll game.Poll) error {
	chatID, err := parseID(groupID)
	if err != nil {
		return err
	}
	_, err = a.client.SendMessage(ctx, chatID, poll.Prompt, PollKeyboard(poll))
	return err
}

// SendPrivate fails with 403 for users who never opened a chat with the bot.
func (a *Adapter) SendPrivate(ctx context.Context, _ string, to game.Member, text string) error {
	userID, err := parseID(to.ID)
	if err != nil {
		return err
	}
	_, err = a.client.SendMessage(ctx, userID, text, nil)
	return err
}

// Members merges the chat administrators into the observed roster.
func (a *Adapter) Members(ctx context.Context, groupID string) ([]game.Member, error) {
	chatID, err := parseID(groupID)
	if err != nil {
		return nil, err
	}
	admins, err := a.client.GetChatAdministrators(ctx, chatID)
	if err != nil {
		log.Warn().Err(err).Str("group", groupID).Msg("could not list administrators")
	}
	for _, m := range admins {
		a.roster.Observe(chatID, m.User)
	}
	return a.roster.Members(chatID), nil
}

func (a *Adapter) DisplayName(_ context.Context, _ string, participantID string) string {
	userID, err := parseID(participantID)
	if err != nil {
		return ShortID(participantID)
	}
	return a.roster.Name(userID)
}

var (
	_ game.Messenger    = (*Adapter)(nil)
	_ game.Directory    = (*Adapter)(nil)
	_ game.NameResolver = (*Adapter)(nil)
)
