package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/game"
	log "github.com/sirupsen/logrus"
)

// EventRoomUpdate carries the full room snapshot after every commit.
const EventRoomUpdate = "room-update"

var ErrClosed = errors.New("session closed")

type Persister interface {
	SaveSnapshot(ctx context.Context, room *models.Room) error
}

// Persisters saves to every store in order. A failing store does not stop
// the others.
type Persisters []Persister

func (ps Persisters) SaveSnapshot(ctx context.Context, room *models.Room) error {
	var first error
	for _, p := range ps {
		if err := p.SaveSnapshot(ctx, room); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type Notifier interface {
	Broadcast(roomId, event string, payload interface{})
}

type ResultRecorder interface {
	RecordResult(ctx context.Context, roomId string, r game.Result) error
}

type Options struct {
	Engine    *game.Engine
	Clock     Clock
	Persister Persister
	Notifier  Notifier
	Results   ResultRecorder
	// Mailbox is the number of commands that may queue before Submit blocks.
	Mailbox     int
	SaveTimeout time.Duration
	// Finished is called from the session goroutine once the room reaches
	// FINISHED.
	Finished func(roomId string)
}

type request struct {
	actor game.Actor
	cmd   game.Command
	reply chan reply
}

type reply struct {
	room  *models.Room
	err   error
	saved <-chan struct{}
}

type saveJob struct {
	room    *models.Room
	results []game.Result
	done    chan struct{}
}

type armedTimer struct {
	token string
	timer Timer
}

// Session owns one room. All commands for the room go through its mailbox
// and are applied one at a time by a single goroutine.
type Session struct {
	id      string
	opts    Options
	log     *log.Entry
	room    *models.Room
	timers  map[string]*armedTimer
	mailbox chan *request
	reads   chan chan *models.Room
	saves   chan saveJob

	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
	saved     chan struct{}
}

func New(room *models.Room, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Mailbox <= 0 {
		opts.Mailbox = 64
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 5 * time.Second
	}
	s := &Session{
		id:      room.Id,
		opts:    opts,
		log:     log.WithField("room", room.Id),
		room:    room,
		timers:  make(map[string]*armedTimer),
		mailbox: make(chan *request, opts.Mailbox),
		reads:   make(chan chan *models.Room),
		saves:   make(chan saveJob, 256),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		saved:   make(chan struct{}),
	}
	s.reconcileTimers()
	go s.persist()
	go s.run()
	return s
}

func (s *Session) Id() string { return s.id }

// Submit queues cmd and waits until it has been applied and, when it changed
// the room, saved. The returned room is a private copy.
func (s *Session) Submit(ctx context.Context, actor game.Actor, cmd game.Command) (*models.Room, error) {
	req := &request{actor: actor, cmd: cmd, reply: make(chan reply, 1)}
	select {
	case s.mailbox <- req:
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var rep reply
	select {
	case rep = <-req.reply:
	case <-s.stopped:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if rep.saved != nil {
		select {
		case <-rep.saved:
		case <-ctx.Done():
			return rep.room, ctx.Err()
		}
	}
	return rep.room, rep.err
}

// post queues a command without waiting for it. Timers use it.
func (s *Session) post(cmd game.Command) {
	req := &request{cmd: cmd, reply: make(chan reply, 1)}
	select {
	case s.mailbox <- req:
	case <-s.done:
	}
}

// Snapshot returns a copy of the current room.
func (s *Session) Snapshot(ctx context.Context) (*models.Room, error) {
	ch := make(chan *models.Room, 1)
	select {
	case s.reads <- ch:
	case <-s.stopped:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case room := <-ch:
		return room, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the session after the queued saves are written.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	<-s.stopped
	<-s.saved
}

func (s *Session) run() {
	defer close(s.stopped)
	defer close(s.saves)
	for {
		select {
		case req := <-s.mailbox:
			s.handle(req)
		case ch := <-s.reads:
			ch <- s.room.Clone()
		case <-s.done:
			for key, t := range s.timers {
				t.timer.Stop()
				delete(s.timers, key)
			}
			return
		}
	}
}

func (s *Session) handle(req *request) {
	next := s.room.Clone()
	out, err := s.opts.Engine.Apply(next, req.actor, req.cmd, s.opts.Clock.Now())
	entry := s.log.WithFields(log.Fields{"player": req.actor.PlayerId, "command": fmt.Sprintf("%T", req.cmd)})

	if err != nil {
		rej, ok := game.AsRejection(err)
		switch {
		case ok && !rej.Commit:
			entry.WithField("reason", rej.Reason).Debug(rej.Msg)
			req.reply <- reply{err: err}
			return
		case ok:
			entry.WithField("reason", rej.Reason).Debug(rej.Msg)
		default:
			entry.WithError(err).Error("room aborted")
			next = s.room.Clone()
			game.Abort(next, err.Error())
			out = game.Outcome{}
		}
		room, saved := s.commit(next, out)
		req.reply <- reply{room: room, err: err, saved: saved}
		return
	}

	if out.Unchanged {
		s.broadcast(out.Events)
		req.reply <- reply{room: s.room.Clone()}
		return
	}
	entry.Debug("applied")
	room, saved := s.commit(next, out)
	req.reply <- reply{room: room, saved: saved}
}

func (s *Session) commit(next *models.Room, out game.Outcome) (*models.Room, <-chan struct{}) {
	finished := next.Status == models.StatusFinished && s.room.Status != models.StatusFinished
	next.Version++
	s.room = next
	s.reconcileTimers()
	if finished && s.opts.Finished != nil {
		s.opts.Finished(s.id)
	}

	s.broadcast(out.Events)
	snapshot := next.Clone()
	if s.opts.Notifier != nil {
		s.opts.Notifier.Broadcast(s.id, EventRoomUpdate, snapshot)
	}

	done := make(chan struct{})
	s.saves <- saveJob{room: snapshot, results: out.Results, done: done}
	return next.Clone(), done
}

func (s *Session) broadcast(events []game.Event) {
	if s.opts.Notifier == nil {
		return
	}
	for _, ev := range events {
		s.opts.Notifier.Broadcast(s.id, ev.Name, ev.Payload)
	}
}

// persist writes snapshots and final results outside the command loop.
func (s *Session) persist() {
	defer close(s.saved)
	for job := range s.saves {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
		if s.opts.Persister != nil {
			if err := s.opts.Persister.SaveSnapshot(ctx, job.room); err != nil {
				s.log.WithError(err).WithField("version", job.room.Version).Warn("snapshot not saved")
			}
		}
		if s.opts.Results != nil {
			for _, r := range job.results {
				if err := s.opts.Results.RecordResult(ctx, s.id, r); err != nil {
					s.log.WithError(err).WithField("player", r.PlayerId).Error("result not recorded")
				}
			}
		}
		cancel()
		close(job.done)
	}
}

type timerSpec struct {
	token string
	at    time.Time
	cmd   game.Command
}

// reconcileTimers arms a timer for every deadline in the room and stops the
// ones whose deadline is gone or was replaced.
func (s *Session) reconcileTimers() {
	want := make(map[string]timerSpec)
	for _, p := range s.room.Players {
		if pa := p.PendingAction; pa != nil {
			want["decision:"+p.PlayerId] = timerSpec{
				token: strconv.FormatInt(pa.Token, 10),
				at:    pa.ExpiresAt,
				cmd:   game.DecisionTimeout{PlayerId: p.PlayerId, Token: pa.Token},
			}
		}
	}
	if a := s.room.ActiveAuction; a != nil {
		want["auction"] = timerSpec{token: a.Id, at: a.EndsAt, cmd: game.AuctionTimeout{AuctionId: a.Id}}
	}

	for key, t := range s.timers {
		if w, ok := want[key]; !ok || w.token != t.token {
			t.timer.Stop()
			delete(s.timers, key)
		}
	}
	now := s.opts.Clock.Now()
	for key, w := range want {
		if _, ok := s.timers[key]; ok {
			continue
		}
		d := w.at.Sub(now)
		if d < 0 {
			d = 0
		}
		cmd := w.cmd
		s.timers[key] = &armedTimer{
			token: w.token,
			timer: s.opts.Clock.AfterFunc(d, func() { s.post(cmd) }),
		}
	}
}
