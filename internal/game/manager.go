package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// SelfID is the bot's own participant id. It is never dealt a role.
	SelfID string

	Durations            []Minutes
	Words                []string
	DurationVoteWindow   time.Duration
	AccusationVoteWindow time.Duration
	ResetGrace           time.Duration
	SendTimeout          time.Duration

	Rand      Rand
	Scheduler Scheduler
	Logger    *zerolog.Logger
}

func (o *Options) setDefaults() {
	if len(o.Durations) == 0 {
		o.Durations = DefaultDurations
	}
	if len(o.Words) == 0 {
		o.Words = DefaultWords
	}
	if o.DurationVoteWindow <= 0 {
		o.DurationVoteWindow = 60 * time.Second
	}
	if o.AccusationVoteWindow <= 0 {
		o.AccusationVoteWindow = 60 * time.Second
	}
	if o.ResetGrace <= 0 {
		o.ResetGrace = 5 * time.Second
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 15 * time.Second
	}
	if o.Rand == nil {
		o.Rand = NewSeededRand()
	}
	if o.Scheduler == nil {
		o.Scheduler = WallClock()
	}
}

// sessionCtx pairs a group's session with its serialization point and its
// single deadline. gen is bumped whenever the deadline is replaced or
// cancelled; a timer callback holding an older gen does nothing.
// Each group also owns its outbox so a slow send for one group never delays
// another.
type sessionCtx struct {
	mu       sync.Mutex
	state    *Session
	timer    Timer
	gen      uint64
	deadline time.Time
	out      *outbox

	// stopDelivery aborts role messages still in flight.
	stopDelivery context.CancelFunc
}

func (sc *sessionCtx) disarm() {
	if sc.timer != nil {
		sc.timer.Stop()
		sc.timer = nil
	}
	if sc.stopDelivery != nil {
		sc.stopDelivery()
		sc.stopDelivery = nil
	}
	sc.gen++
	sc.deadline = time.Time{}
}

func (sc *sessionCtx) snapshot() Status {
	s := sc.state
	return Status{
		GroupID:          s.GroupID,
		Phase:            s.Phase,
		DurationVotes:    len(s.DurationVotes),
		SelectedDuration: s.SelectedDuration,
		Players:          s.PlayerList(),
		Votes:            len(s.Votes),
		Deadline:         sc.deadline,
		Winner:           s.Winner,
	}
}

// Orchestrator runs one independent game per chat group. The map lock only
// guards lookups; every session is serialized by its own mutex.
type Orchestrator struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionCtx
	observers []Observer
	closed    atomic.Bool

	msg   Messenger
	dir   Directory
	names NameResolver
	opts  Options
	log   zerolog.Logger

	// notify delivers observer callbacks apart from group messages.
	notify *outbox
}

func NewOrchestrator(msg Messenger, dir Directory, names NameResolver, opts Options) *Orchestrator {
	opts.setDefaults()
	l := log.Logger
	if opts.Logger != nil {
		l = *opts.Logger
	}
	return &Orchestrator{
		sessions: make(map[string]*sessionCtx),
		msg:      msg,
		dir:      dir,
		names:    names,
		opts:     opts,
		log:      l.With().Str("component", "orchestrator").Logger(),
		notify:   newOutbox(),
	}
}

// AddObserver registers ob for state change notifications.
func (o *Orchestrator) AddObserver(ob Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, ob)
}

// Durations returns the discussion lengths offered in duration polls.
func (o *Orchestrator) Durations() []Minutes {
	return append([]Minutes(nil), o.opts.Durations...)
}

func (o *Orchestrator) lookup(groupID string) *sessionCtx {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sessions[groupID]
}

func (o *Orchestrator) session(groupID string) *sessionCtx {
	if sc := o.lookup(groupID); sc != nil {
		return sc
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	sc := o.sessions[groupID]
	if sc == nil {
		sc = &sessionCtx{state: NewSession(groupID), out: newOutbox()}
		o.sessions[groupID] = sc
	}
	return sc
}

// StartGame opens the duration poll for a new game. It fails when a game is
// already running or when fewer than MinPlayers members are present.
func (o *Orchestrator) StartGame(groupID string, members []Member) error {
	sc := o.session(groupID)
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.state.Phase.Active() {
		o.post(sc, msgInProgress)
		return ErrGameInProgress
	}
	if len(members) < MinPlayers {
		o.post(sc, notEnoughPlayersText(len(members)))
		return ErrNotEnoughPlayers
	}

	sc.disarm()
	sc.state.Reset()
	o.setPhase(sc, PhaseVotingDuration)
	o.postPoll(sc, durationPoll(o.opts.Durations))
	o.arm(sc, o.opts.DurationVoteWindow, o.closeDurationVote)
	o.changed(sc)
	return nil
}

// RecordDurationVote reports whether the vote was counted.
func (o *Orchestrator) RecordDurationVote(groupID, voterID string, m Minutes) bool {
	sc := o.lookup(groupID)
	if sc == nil {
		return false
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.state.RecordDurationVote(voterID, m, o.opts.Durations) {
		return false
	}
	o.log.Debug().Str("group", groupID).Str("voter", voterID).Int("minutes", int(m)).Msg("duration vote")
	o.changed(sc)
	return true
}

// RecordPlayerVote reports whether the accusation was counted.
func (o *Orchestrator) RecordPlayerVote(groupID, voterID, voteeID string) bool {
	sc := o.lookup(groupID)
	if sc == nil {
		return false
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.state.RecordPlayerVote(voterID, voteeID) {
		return false
	}
	o.log.Debug().Str("group", groupID).Str("voter", voterID).Str("votee", voteeID).Msg("player vote")
	o.changed(sc)
	return true
}

// CancelGame stops a running game and returns the group to Idle.
func (o *Orchestrator) CancelGame(groupID string) error {
	sc := o.session(groupID)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.state.Phase.Active() {
		o.post(sc, msgNothingToCancel)
		return ErrNothingToCancel
	}
	o.reset(sc, msgCancelled)
	return nil
}

func (o *Orchestrator) Status(groupID string) Status {
	sc := o.lookup(groupID)
	if sc == nil {
		return Status{GroupID: groupID, Phase: PhaseIdle, Players: []Player{}}
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.snapshot()
}

// AnnounceStatus posts the group's status to the group.
func (o *Orchestrator) AnnounceStatus(groupID string) Status {
	sc := o.session(groupID)
	sc.mu.Lock()
	st := sc.snapshot()
	o.post(sc, statusText(st))
	sc.mu.Unlock()
	return st
}

// AssignRoles deals roles to members and sends every player their role in
// private. The session must be in AssigningRoles.
func (o *Orchestrator) AssignRoles(ctx context.Context, groupID string, members []Member) error {
	sc := o.lookup(groupID)
	if sc == nil {
		return ErrSessionNotFound
	}

	eligible := make([]Member, 0, len(members))
	for _, m := range members {
		if m.ID == "" || m.ID == o.opts.SelfID {
			continue
		}
		if m.Handle == "" && o.names != nil {
			m.Handle = o.names.DisplayName(ctx, groupID, m.ID)
		}
		eligible = append(eligible, m)
	}

	sc.mu.Lock()
	if sc.state.Phase != PhaseAssigningRoles {
		sc.mu.Unlock()
		return ErrInvalidPhase
	}
	if err := sc.state.AssignRoles(eligible, o.opts.Words, o.opts.Rand); err != nil {
		if errors.Is(err, ErrNotEnoughPlayers) {
			o.reset(sc, notEnoughPlayersText(len(eligible)))
		} else {
			o.log.Error().Err(err).Str("group", groupID).Msg("role assignment failed")
			o.reset(sc, "")
		}
		sc.mu.Unlock()
		return err
	}
	gen := sc.gen
	players := sc.state.PlayerList()
	word := sc.state.SecretWord
	deliverCtx, stop := context.WithCancel(ctx)
	defer stop()
	sc.stopDelivery = stop
	sc.mu.Unlock()

	delivered := 0
	for _, p := range players {
		if deliverCtx.Err() != nil {
			break
		}
		sendCtx, cancel := context.WithTimeout(deliverCtx, o.opts.SendTimeout)
		err := o.msg.SendPrivate(sendCtx, groupID, Member{ID: p.ID, Handle: p.Handle}, roleText(p.IsImpostor, word))
		cancel()
		if err != nil {
			o.log.Warn().Err(err).Str("group", groupID).Str("player", p.ID).Msg("role message failed")
			continue
		}
		delivered++
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.gen != gen || sc.state.Phase != PhaseAssigningRoles {
		return ErrCancelled
	}
	sc.stopDelivery = nil
	if delivered == 0 {
		o.reset(sc, msgNoDeliveries)
		return ErrNoDeliveries
	}

	s := sc.state
	s.DiscussionDeadline = o.opts.Scheduler.Now().Add(s.SelectedDuration.Duration())
	o.log.Info().Str("group", groupID).Int("players", len(players)).Int("delivered", delivered).Msg("roles assigned")
	o.setPhase(sc, PhaseDiscussion)
	o.post(sc, discussionText(s.Players[s.FirstSpeakerID].Handle, s.SelectedDuration, s.DiscussionDeadline, delivered, len(players)))
	o.arm(sc, s.SelectedDuration.Duration(), o.openVoting)
	o.changed(sc)
	return nil
}

func (o *Orchestrator) closeDurationVote(sc *sessionCtx) func() {
	groupID := sc.state.GroupID
	m, ok := CalculateWinningDuration(sc.state.DurationVotes)
	if !ok {
		o.log.Info().Str("group", groupID).Err(ErrNoDurationVotes).Msg("game aborted")
		o.reset(sc, msgNoDurationVotes)
		return nil
	}
	sc.state.SelectedDuration = m
	o.setPhase(sc, PhaseAssigningRoles)
	o.post(sc, durationChosenText(m))
	o.changed(sc)
	return func() { o.assignFromDirectory(groupID) }
}

func (o *Orchestrator) assignFromDirectory(groupID string) {
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.SendTimeout)
	members, err := o.dir.Members(ctx, groupID)
	cancel()
	if err != nil {
		o.log.Error().Err(err).Str("group", groupID).Msg("member lookup failed")
		sc := o.lookup(groupID)
		sc.mu.Lock()
		if sc.state.Phase == PhaseAssigningRoles {
			o.reset(sc, msgNoMembers)
		}
		sc.mu.Unlock()
		return
	}
	if err := o.AssignRoles(context.Background(), groupID, members); err != nil {
		o.log.Info().Err(err).Str("group", groupID).Msg("role assignment ended the game")
	}
}

func (o *Orchestrator) openVoting(sc *sessionCtx) func() {
	o.setPhase(sc, PhaseVoting)
	o.postPoll(sc, accusationPoll(sc.state.PlayerList()))
	o.arm(sc, o.opts.AccusationVoteWindow, o.finalizeVoting)
	o.changed(sc)
	return nil
}

func (o *Orchestrator) finalizeVoting(sc *sessionCtx) func() {
	groupID := sc.state.GroupID
	res, ok := sc.state.Finalize()
	if !ok {
		o.reset(sc, msgDraw)
		return nil
	}
	o.log.Info().Str("group", groupID).Str("votedOut", res.VotedOutID).Int("votes", res.VoteCount).
		Str("winner", string(res.Winner)).Msg("game finished")
	o.setPhase(sc, PhaseEnded)

	handles := make(map[string]string, len(sc.state.Players))
	for id, p := range sc.state.Players {
		handles[id] = p.Handle
	}
	sc.out.push(func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.opts.SendTimeout)
		defer cancel()
		label := func(id string) string {
			if h := handles[id]; h != "" {
				return h
			}
			if o.names != nil {
				return o.names.DisplayName(ctx, groupID, id)
			}
			return id
		}
		if err := o.msg.SendGroup(ctx, groupID, resultsText(res, label)); err != nil {
			o.log.Warn().Err(err).Str("group", groupID).Msg("results message failed")
		}
	})

	o.arm(sc, o.opts.ResetGrace, func(sc *sessionCtx) func() {
		o.reset(sc, "")
		return nil
	})
	o.changed(sc)
	return nil
}

// Shutdown cancels every armed deadline and flushes queued messages.
func (o *Orchestrator) Shutdown() {
	if !o.closed.CompareAndSwap(false, true) {
		return
	}
	o.mu.RLock()
	all := make([]*sessionCtx, 0, len(o.sessions))
	for _, sc := range o.sessions {
		all = append(all, sc)
	}
	o.mu.RUnlock()
	for _, sc := range all {
		sc.mu.Lock()
		sc.disarm()
		sc.mu.Unlock()
	}
	for _, sc := range all {
		sc.out.close()
	}
	o.notify.close()
	o.log.Info().Int("sessions", len(all)).Msg("orchestrator stopped")
}

// arm replaces the group's deadline. Callers hold sc.mu. fire runs with
// sc.mu held; the func it returns runs after the lock is released.
func (o *Orchestrator) arm(sc *sessionCtx, d time.Duration, fire func(sc *sessionCtx) func()) {
	sc.disarm()
	if o.closed.Load() {
		return
	}
	gen := sc.gen
	sc.deadline = o.opts.Scheduler.Now().Add(d)
	sc.timer = o.opts.Scheduler.AfterFunc(d, func() {
		sc.mu.Lock()
		if sc.gen != gen {
			sc.mu.Unlock()
			return
		}
		sc.timer = nil
		sc.deadline = time.Time{}
		next := fire(sc)
		sc.mu.Unlock()
		if next != nil {
			next()
		}
	})
}

func (o *Orchestrator) setPhase(sc *sessionCtx, p Phase) {
	o.log.Info().Str("group", sc.state.GroupID).Str("from", string(sc.state.Phase)).Str("to", string(p)).Msg("phase transition")
	sc.state.Phase = p
}

// reset drops the deadline and returns the session to Idle, telling the
// group why when text is set.
func (o *Orchestrator) reset(sc *sessionCtx, text string) {
	sc.disarm()
	o.setPhase(sc, PhaseIdle)
	sc.state.Reset()
	if text != "" {
		o.post(sc, text)
	}
	o.changed(sc)
}

func (o *Orchestrator) post(sc *sessionCtx, text string) {
	groupID := sc.state.GroupID
	sc.out.push(func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.opts.SendTimeout)
		defer cancel()
		if err := o.msg.SendGroup(ctx, groupID, text); err != nil {
			o.log.Warn().Err(err).Str("group", groupID).Msg("group message failed")
		}
	})
}

func (o *Orchestrator) postPoll(sc *sessionCtx, poll Poll) {
	groupID := sc.state.GroupID
	sc.out.push(func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.opts.SendTimeout)
		defer cancel()
		if err := o.msg.SendPoll(ctx, groupID, poll); err != nil {
			o.log.Warn().Err(err).Str("group", groupID).Str("poll", string(poll.Kind)).Msg("poll failed")
		}
	})
}

func (o *Orchestrator) changed(sc *sessionCtx) {
	o.mu.RLock()
	obs := o.observers
	o.mu.RUnlock()
	if len(obs) == 0 {
		return
	}
	st := sc.snapshot()
	o.notify.push(func() {
		for _, ob := range obs {
			ob.SessionChanged(st)
		}
	})
}
