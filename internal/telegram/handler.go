package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/impostor/internal/game"
)

// Game is the part of the orchestrator driven by chat commands.
type Game interface {
	StartGame(groupID string, members []game.Member) error
	CancelGame(groupID string) error
	RecordDurationVote(groupID, voterID string, m game.Minutes) bool
	RecordPlayerVote(groupID, voterID, voteeID string) bool
	AnnounceStatus(groupID string) game.Status
}

const helpText = `Find the impostor! Everyone but one player gets a secret word in a private message.

/join – take part in the next game
/newgame – start a game (needs 3 players)
/status – show the current phase
/cancel – stop the running game

Open a private chat with me and press Start so I can send you your role.`

const privateWelcome = "You're all set. I'll send your role here when a game starts in your group."

type UpdateHandler struct {
	client      *Client
	roster      *Roster
	game        Game
	botUsername string
}

func NewUpdateHandler(client *Client, roster *Roster, g Game, botUsername string) *UpdateHandler {
	return &UpdateHandler{client: client, roster: roster, game: g, botUsername: botUsername}
}

func (h *UpdateHandler) Handle(ctx context.Context, upd Update) {
	if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
		return
	}
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	}
}

func (h *UpdateHandler) handleMessage(ctx context.Context, msg *Message) {
	if msg.From == nil {
		return
	}
	chat := msg.Chat
	cmd := h.command(msg)

	if !chat.IsGroup() {
		if cmd == "start" || cmd == "help" {
			h.reply(ctx, chat.ID, privateWelcome+"\n\n"+helpText)
		}
		return
	}

	for _, u := range msg.NewChatMembers {
		h.roster.Observe(chat.ID, u)
	}
	if msg.LeftChatMember != nil {
		h.roster.Remove(chat.ID, msg.LeftChatMember.ID)
	}
	h.roster.Observe(chat.ID, *msg.From)

	groupID := strconv.FormatInt(chat.ID, 10)
	switch cmd {
	case "newgame":
		members := h.roster.Members(chat.ID)
		err := h.game.StartGame(groupID, members)
		log.Info().Err(err).Str("group", groupID).Int("members", len(members)).Msg("newgame")
	case "cancel":
		err := h.game.CancelGame(groupID)
		log.Info().Err(err).Str("group", groupID).Msg("cancel")
	case "status":
		h.game.AnnounceStatus(groupID)
	case "join":
		n := len(h.roster.Members(chat.ID))
		h.reply(ctx, chat.ID, fmt.Sprintf("%s is in. %d player(s) ready.", DisplayName(*msg.From), n))
	case "help", "start":
		h.reply(ctx, chat.ID, helpText)
	}
}

func (h *UpdateHandler) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if cb.Message == nil || !cb.Message.Chat.IsGroup() {
		h.answer(ctx, cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID
	h.roster.Observe(chatID, cb.From)

	groupID := strconv.FormatInt(chatID, 10)
	voterID := strconv.FormatInt(cb.From.ID, 10)
	kind, value, ok := ParseCallback(cb.Data)
	if !ok {
		h.answer(ctx, cb.ID, "")
		return
	}

	counted := false
	switch kind {
	case callbackDuration:
		minutes, err := strconv.Atoi(value)
		if err == nil {
			counted = h.game.RecordDurationVote(groupID, voterID, game.Minutes(minutes))
		}
	case callbackAccusation:
		counted = h.game.RecordPlayerVote(groupID, voterID, value)
	}
	if counted {
		h.answer(ctx, cb.ID, "Vote counted ✔")
		return
	}
	h.answer(ctx, cb.ID, "This vote is closed.")
}

// command returns the bot command at the start of msg without its slash,
// or "" when the message is not a command for this bot.
func (h *UpdateHandler) command(msg *Message) string {
	for _, e := range msg.Entities {
		if e.Type != "bot_command" || e.Offset != 0 || e.Length < 2 || e.Length > len(msg.Text) {
			continue
		}
		name, target, _ := strings.Cut(msg.Text[1:e.Length], "@")
		if target != "" && h.botUsername != "" && !strings.EqualFold(target, h.botUsername) {
			return ""
		}
		return strings.ToLower(name)
	}
	return ""
}

func (h *UpdateHandler) reply(ctx context.Context, chatID int64, text string) {
	if _, err := h.client.SendMessage(ctx, chatID, text, nil); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("reply failed")
	}
}

func (h *UpdateHandler) answer(ctx context.Context, callbackID, text string) {
	if err := h.client.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		log.Debug().Err(err).Msg("answerCallbackQuery failed")
	}
}
