package telegram

import (
	"strings"

	"github.com/kiliankoe/impostor/internal/game"
)

const (
	callbackDuration   = "dur"
	callbackAccusation = "acc"
)

// PollKeyboard renders a poll as one button per option. Duration polls fit on
// a single row; accusation polls get a row per player.
func PollKeyboard(p game.Poll) *InlineKeyboardMarkup {
	prefix := callbackDuration
	if p.Kind == game.PollAccusation {
		prefix = callbackAccusation
	}
	var rows [][]InlineKeyboardButton
	var row []InlineKeyboardButton
	for _, opt := range p.Options {
		btn := InlineKeyboardButton{Text: opt.Label, CallbackData: prefix + ":" + opt.ID}
		if p.Kind == game.PollAccusation {
			rows = append(rows, []InlineKeyboardButton{btn})
			continue
		}
		row = append(row, btn)
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// ParseCallback splits callback data produced by PollKeyboard.
func ParseCallback(data string) (kind, value string, ok bool) {
	kind, value, ok = strings.Cut(data, ":")
	if !ok || value == "" {
		return "", "", false
	}
	switch kind {
	case callbackDuration, callbackAccusation:
		return kind, value, true
	}
	return "", "", false
}
