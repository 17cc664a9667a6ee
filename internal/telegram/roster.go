package telegram

import (
	"strconv"
	"strings"
	"sync"

	"github.com/kiliankoe/impostor/internal/game"
)

// Roster remembers who has been seen in each chat. The Bot API cannot list
// all members of a group, so senders, /join presses and join events are the
// membership snapshot. It also caches display names.
type Roster struct {
	mu    sync.RWMutex
	chats map[int64]*chatRoster
	names map[int64]string
}

type chatRoster struct {
	order   []int64
	members map[int64]User
}

func NewRoster() *Roster {
	return &Roster{chats: make(map[int64]*chatRoster), names: make(map[int64]string)}
}

// Observe records u as a member of chatID. Bots are ignored.
func (r *Roster) Observe(chatID int64, u User) bool {
	if u.IsBot || u.ID == 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[u.ID] = DisplayName(u)
	cr := r.chats[chatID]
	if cr == nil {
		cr = &chatRoster{members: make(map[int64]User)}
		r.chats[chatID] = cr
	}
	_, known := cr.members[u.ID]
	cr.members[u.ID] = u
	if !known {
		cr.order = append(cr.order, u.ID)
	}
	return !known
}

func (r *Roster) Remove(chatID, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cr := r.chats[chatID]
	if cr == nil {
		return
	}
	if _, ok := cr.members[userID]; !ok {
		return
	}
	delete(cr.members, userID)
	for i, id := range cr.order {
		if id == userID {
			cr.order = append(cr.order[:i], cr.order[i+1:]...)
			break
		}
	}
}

// Members returns the known members of chatID in the order they were first
// seen.
func (r *Roster) Members(chatID int64) []game.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cr := r.chats[chatID]
	if cr == nil {
		return []game.Member{}
	}
	out := make([]game.Member, 0, len(cr.order))
	for _, id := range cr.order {
		u := cr.members[id]
		out = append(out, game.Member{ID: strconv.FormatInt(u.ID, 10), Handle: DisplayName(u)})
	}
	return out
}

// Name returns the cached label for userID, or a shortened id.
func (r *Roster) Name(userID int64) string {
	r.mu.RLock()
	name, ok := r.names[userID]
	r.mu.RUnlock()
	if ok {
		return name
	}
	return ShortID(strconv.FormatInt(userID, 10))
}

// DisplayName prefers the user's full name and falls back to @username.
func DisplayName(u User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ShortID(strconv.FormatInt(u.ID, 10))
}

// ShortID abbreviates an id to its last four characters.
func ShortID(id string) string {
	if len(id) <= 4 {
		return "user " + id
	}
	return "user …" + id[len(id)-4:]
}
