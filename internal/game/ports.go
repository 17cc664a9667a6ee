package game

import (
	"context"
	"time"
)

// Messenger delivers notifications to a group or privately to one of its
// members.
type Messenger interface {
	SendGroup(ctx context.Context, groupID, text string) error
	SendPoll(ctx context.Context, groupID string, poll Poll) error
	SendPrivate(ctx context.Context, groupID string, to Member, text string) error
}

// Directory enumerates the current members of a group.
type Directory interface {
	Members(ctx context.Context, groupID string) ([]Member, error)
}

// NameResolver turns a participant id into a human readable label.
// Implementations fall back to a shortened id.
type NameResolver interface {
	DisplayName(ctx context.Context, groupID, participantID string) string
}

// Observer is told about every state change of a session.
type Observer interface {
	SessionChanged(st Status)
}

// Scheduler arms deadlines. Tests substitute a manual implementation.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

type Timer interface {
	Stop() bool
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

func (wallClock) Now() time.Time { return time.Now() }

// WallClock schedules deadlines on real timers.
func WallClock() Scheduler { return wallClock{} }
