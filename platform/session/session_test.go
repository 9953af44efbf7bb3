package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
	"github.com/DedS3t/monopoly-engine/platform/economy"
	"github.com/DedS3t/monopoly-engine/platform/game"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2021, 4, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves the clock and runs the timers that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func (c *fakeClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type dice struct {
	mu    sync.Mutex
	rolls [][2]int
}

func (d *dice) Roll() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rolls) == 0 {
		return 4, 6
	}
	r := d.rolls[0]
	d.rolls = d.rolls[1:]
	return r[0], r[1]
}

type notifier struct {
	mu     sync.Mutex
	events []string
}

func (n *notifier) Broadcast(roomId, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *notifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == event {
			c++
		}
	}
	return c
}

type store struct {
	mu    sync.Mutex
	saved []*models.Room
	err   error
}

func (s *store) SaveSnapshot(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, room)
	return s.err
}

func (s *store) snapshots() []*models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Room(nil), s.saved...)
}

type recorder struct {
	mu      sync.Mutex
	results map[string]game.Result
}

func (r *recorder) RecordResult(ctx context.Context, roomId string, res game.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string]game.Result)
	}
	r.results[roomId+"/"+res.PlayerId] = res
	return nil
}

type harness struct {
	s     *Session
	clock *fakeClock
	dice  *dice
	note  *notifier
	store *store
	rec   *recorder
}

func newHarness(t *testing.T, room *models.Room) *harness {
	h := &harness{clock: newFakeClock(), dice: &dice{}, note: &notifier{}, store: &store{}, rec: &recorder{}}
	engine := &game.Engine{Rules: game.DefaultRules(), Catalog: board.Default, Dice: h.dice, Rand: rand.New(rand.NewSource(1))}
	h.s = New(room, Options{
		Engine:    engine,
		Clock:     h.clock,
		Persister: h.store,
		Notifier:  h.note,
		Results:   h.rec,
	})
	t.Cleanup(h.s.Close)
	return h
}

func playingRoom(ids ...string) *models.Room {
	r := models.NewRoom("room", "test", len(ids))
	for i, id := range ids {
		r.Players = append(r.Players, &models.Participant{PlayerId: id, DisplayName: id, Seat: i + 1, Money: 1500})
	}
	r.Status = models.StatusInProgress
	r.CurrentTurnPlayerId = ids[0]
	return r
}

func (h *harness) submit(id string, cmd game.Command) (*models.Room, error) {
	return h.s.Submit(context.Background(), game.Actor{PlayerId: id, DisplayName: id}, cmd)
}

func (h *harness) snapshot(t *testing.T) *models.Room {
	t.Helper()
	r, err := h.s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSubmitCommitsBroadcastsAndSaves(t *testing.T) {
	h := newHarness(t, playingRoom("a", "b"))
	h.dice.rolls = [][2]int{{1, 2}}

	room, err := h.submit("a", game.RollDice{})
	if err != nil {
		t.Fatal(err)
	}
	if room.Player("a").Position != 3 || room.Version != 1 {
		t.Fatalf("pos %d version %d", room.Player("a").Position, room.Version)
	}
	saved := h.store.snapshots()
	if len(saved) != 1 || saved[0].Version != 1 {
		t.Fatalf("saved %d snapshots", len(saved))
	}
	if h.note.count(EventRoomUpdate) != 1 || h.note.count(game.EventDice) != 1 {
		t.Fatalf("events %v", h.note.events)
	}

	room.Player("a").Money = 0
	if h.snapshot(t).Player("a").Money != 1500 {
		t.Fatal("returned room shares memory with the session")
	}
}

func TestRejectionLeavesRoomUntouched(t *testing.T) {
	h := newHarness(t, playingRoom("a", "b"))

	_, err := h.submit("b", game.RollDice{})
	r, ok := game.AsRejection(err)
	if !ok || r.Reason != game.NotYourTurn {
		t.Fatalf("got %v", err)
	}
	if len(h.store.snapshots()) != 0 || len(h.note.events) != 0 {
		t.Fatal("rejected command was saved or broadcast")
	}
	if v := h.snapshot(t).Version; v != 0 {
		t.Fatalf("version %d", v)
	}
}

func TestChatIsBroadcastNotSaved(t *testing.T) {
	h := newHarness(t, playingRoom("a", "b"))
	if _, err := h.submit("b", game.SendChat{Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	if h.note.count(game.EventChat) != 1 || h.note.count(EventRoomUpdate) != 0 || len(h.store.snapshots()) != 0 {
		t.Fatalf("events %v", h.note.events)
	}
}

func TestDecisionTimeoutFiresOnce(t *testing.T) {
	h := newHarness(t, playingRoom("a", "b"))
	h.dice.rolls = [][2]int{{1, 2}}
	if _, err := h.submit("a", game.RollDice{}); err != nil {
		t.Fatal(err)
	}
	if h.clock.armed() != 1 {
		t.Fatalf("%d timers armed", h.clock.armed())
	}

	h.clock.Advance(29 * time.Second)
	if h.snapshot(t).CurrentTurnPlayerId != "a" {
		t.Fatal("timer fired early")
	}
	h.clock.Advance(time.Second)
	waitFor(t, "timeout skip", func() bool {
		return h.snapshot(t).CurrentTurnPlayerId == "b"
	})
	if h.clock.armed() != 0 {
		t.Fatalf("%d timers still armed", h.clock.armed())
	}

	_, err := h.submit("a", game.Decide{Buy: false})
	if r, ok := game.AsRejection(err); !ok || r.Reason != game.AlreadyResolved {
		t.Fatalf("late skip: %v", err)
	}
	if v := h.snapshot(t).Version; v != 2 {
		t.Fatalf("version %d, want roll and one timeout", v)
	}
}

func TestExplicitDecisionStopsTimer(t *testing.T) {
	h := newHarness(t, playingRoom("a", "b"))
	h.dice.rolls = [][2]int{{1, 2}}
	if _, err := h.submit("a", game.RollDice{}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.submit("a", game.Decide{Buy: true}); err != nil {
		t.Fatal(err)
	}
	if h.clock.armed() != 0 {
		t.Fatal("decision timer not stopped")
	}
	h.clock.Advance(time.Minute)
	room := h.snapshot(t)
	if room.Version != 2 || room.CurrentTurnPlayerId != "b" || room.Cells[3].OwnerId != "a" {
		t.Fatalf("room %+v", room)
	}
}

func TestAuctionTimerEndsAuction(t *testing.T) {
	room := playingRoom("a", "b")
	h := newHarness(t, room)
	h.dice.rolls = [][2]int{{1, 2}}
	h.submit("a", game.RollDice{})
	h.submit("a", game.Decide{Buy: false})
	if _, err := h.submit("a", game.StartAuction{CellId: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.submit("b", game.PlaceBid{Amount: 40}); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(20 * time.Second)
	waitFor(t, "auction end", func() bool {
		r := h.snapshot(t)
		return r.ActiveAuction == nil && r.Cells[3] != nil
	})
	if got := h.snapshot(t).Cells[3].OwnerId; got != "b" {
		t.Fatalf("owner %q", got)
	}
}

func TestPersistenceFailureDoesNotRollBack(t *testing.T) {
	h := newHarness(t, playingRoom("a", "b"))
	h.store.err = errors.New("redis down")
	h.dice.rolls = [][2]int{{1, 2}}

	room, err := h.submit("a", game.RollDice{})
	if err != nil {
		t.Fatalf("save failure surfaced: %v", err)
	}
	if room.Player("a").Position != 3 || h.snapshot(t).Player("a").Position != 3 {
		t.Fatal("state rolled back")
	}
}

func TestInvariantViolationAbortsRoom(t *testing.T) {
	room := playingRoom("a", "b")
	room.Players[1].Bankrupt = true
	h := newHarness(t, room)

	_, err := h.submit("a", game.RollDice{})
	if !errors.Is(err, game.ErrInvariant) {
		t.Fatalf("got %v", err)
	}
	r := h.snapshot(t)
	if r.Status != models.StatusFinished || !r.Flagged || r.WinnerId != "" {
		t.Fatalf("room not aborted: %+v", r)
	}
	if saved := h.store.snapshots(); len(saved) != 1 || !saved[0].Flagged {
		t.Fatal("aborted room not saved")
	}
}

func TestFinishedRoomRecordsResults(t *testing.T) {
	room := playingRoom("a", "b")
	room.Players[0].Money = 20
	room.Cells[5] = economy.NewCellState(board.Default.Tile(5), "b")
	h := newHarness(t, room)
	h.dice.rolls = [][2]int{{2, 3}}

	if _, err := h.submit("a", game.RollDice{}); err != nil {
		t.Fatal(err)
	}
	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	a, b := h.rec.results["room/a"], h.rec.results["room/b"]
	if a.Outcome != game.OutcomeLose || b.Outcome != game.OutcomeWin || b.FinalMoney != 1500 {
		t.Fatalf("results %+v", h.rec.results)
	}
}

func TestConcurrentCommandsSerialize(t *testing.T) {
	room := playingRoom("a", "b", "c")
	for id, owner := range map[int]string{1: "a", 3: "a", 6: "b", 8: "b", 9: "c"} {
		room.Cells[id] = economy.NewCellState(board.Default.Tile(id), owner)
	}
	h := newHarness(t, room)
	players := []string{"a", "b", "c"}
	cells := []int{1, 3, 6, 8, 9}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < 100; i++ {
				actor := players[rnd.Intn(len(players))]
				var cmd game.Command
				switch rnd.Intn(5) {
				case 0, 1:
					cmd = game.ProposeTrade{
						ToPlayerId: players[rnd.Intn(len(players))],
						FromCells:  []int{cells[rnd.Intn(len(cells))]},
						FromMoney:  rnd.Intn(300),
						ToMoney:    rnd.Intn(300),
					}
				case 2:
					cmd = game.AcceptTrade{}
				case 3:
					cmd = game.CancelTrade{}
				default:
					cmd = game.RejectTrade{}
				}
				h.submit(actor, cmd)
			}
		}(int64(w))
	}
	wg.Wait()

	saved := h.store.snapshots()
	for i, r := range saved {
		if r.Version != int64(i+1) {
			t.Fatalf("snapshot %d has version %d", i, r.Version)
		}
		if r.TotalMoney() != 4500 {
			t.Fatalf("version %d holds $%d in total", r.Version, r.TotalMoney())
		}
		for _, p := range r.Players {
			if p.Money < 0 {
				t.Fatalf("version %d: %s has $%d", r.Version, p.PlayerId, p.Money)
			}
		}
		if len(r.Cells) != len(cells) {
			t.Fatalf("version %d has %d cells", r.Version, len(r.Cells))
		}
	}
}

type loader struct {
	mu    sync.Mutex
	loads int
}

func (l *loader) LoadRoom(ctx context.Context, id string) (*models.Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	switch id {
	case "missing":
		return nil, errors.New("no such room")
	case "done":
		r := playingRoom("a", "b")
		r.Id = id
		r.Status = models.StatusFinished
		return r, nil
	case "stale":
		// the only rival is already bankrupt, so skipping ends in an abort
		r := playingRoom("a", "b")
		r.Id = id
		r.Players[1].Bankrupt = true
		a := r.Players[0]
		a.Position, a.HasRolled = 3, true
		a.PendingAction = &models.PendingAction{
			Type:      models.PendingBuyOrPay,
			CellId:    3,
			ExpiresAt: time.Date(2021, 4, 1, 12, 0, 30, 0, time.UTC),
			Token:     1,
		}
		return r, nil
	}
	return models.NewRoom(id, id, 2), nil
}

func TestHub(t *testing.T) {
	l := &loader{}
	engine := &game.Engine{Rules: game.DefaultRules(), Catalog: board.Default, Dice: &dice{}, Rand: rand.New(rand.NewSource(1))}
	hub := NewHub(l, Options{Engine: engine, Clock: newFakeClock()})
	defer hub.Shutdown()

	var wg sync.WaitGroup
	sessions := make([]*Session, 10)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := hub.Session(context.Background(), "r1")
			if err != nil {
				t.Error(err)
				return
			}
			sessions[i] = s
		}(i)
	}
	wg.Wait()
	for _, s := range sessions[1:] {
		if s != sessions[0] {
			t.Fatal("two sessions for one room")
		}
	}
	if l.loads != 1 {
		t.Fatalf("room loaded %d times", l.loads)
	}

	if _, err := hub.Submit(context.Background(), "missing", game.Actor{PlayerId: "a"}, game.Join{}); err == nil {
		t.Fatal("missing room should fail")
	}
	room, err := hub.Submit(context.Background(), "r2", game.Actor{PlayerId: "a"}, game.Join{})
	if err != nil || len(room.Players) != 1 {
		t.Fatalf("join r2: %v", err)
	}
	if hub.Len() != 2 {
		t.Fatalf("%d sessions", hub.Len())
	}
	hub.Release("r1")
	if hub.Len() != 1 {
		t.Fatalf("%d sessions after release", hub.Len())
	}
}

func TestHubRetiresFinishedRooms(t *testing.T) {
	clock := newFakeClock()
	engine := &game.Engine{Rules: game.DefaultRules(), Catalog: board.Default, Dice: &dice{}, Rand: rand.New(rand.NewSource(1))}
	hub := NewHub(&loader{}, Options{Engine: engine, Clock: clock})
	defer hub.Shutdown()

	for i := 0; i < 3; i++ {
		if _, err := hub.Submit(context.Background(), "done", game.Actor{PlayerId: "a"}, game.SendChat{Text: "gg"}); err != nil {
			t.Fatal(err)
		}
	}
	if hub.Len() != 1 {
		t.Fatalf("%d sessions", hub.Len())
	}
	clock.Advance(FinishedGrace - time.Second)
	if hub.Len() != 1 {
		t.Fatal("released before the grace period")
	}
	clock.Advance(time.Second)
	if hub.Len() != 0 {
		t.Fatalf("%d sessions after the grace period", hub.Len())
	}
}

type gatedLoader struct {
	loader
	started chan struct{}
	release chan struct{}
}

func (l *gatedLoader) LoadRoom(ctx context.Context, id string) (*models.Room, error) {
	if id == "slow" {
		close(l.started)
		<-l.release
	}
	return l.loader.LoadRoom(ctx, id)
}

func TestHubLoadDoesNotBlockLiveRooms(t *testing.T) {
	l := &gatedLoader{started: make(chan struct{}), release: make(chan struct{})}
	engine := &game.Engine{Rules: game.DefaultRules(), Catalog: board.Default, Dice: &dice{}, Rand: rand.New(rand.NewSource(1))}
	hub := NewHub(l, Options{Engine: engine, Clock: newFakeClock()})
	defer hub.Shutdown()
	ctx := context.Background()

	if _, err := hub.Session(ctx, "fast"); err != nil {
		t.Fatal(err)
	}
	slow := make(chan *Session, 2)
	for i := 0; i < 2; i++ {
		go func() {
			s, err := hub.Session(ctx, "slow")
			if err != nil {
				t.Error(err)
			}
			slow <- s
		}()
	}
	<-l.started

	done := make(chan error, 1)
	go func() {
		_, err := hub.Submit(ctx, "fast", game.Actor{PlayerId: "a"}, game.Join{})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("live room blocked while another room loads")
	}

	close(l.release)
	s1, s2 := <-slow, <-slow
	if s1 == nil || s1 != s2 {
		t.Fatal("two sessions for one room")
	}
	if l.loads != 2 {
		t.Fatalf("%d loads, want one per room", l.loads)
	}
}

func TestHubRetiresRoomFinishedByTimer(t *testing.T) {
	clock := newFakeClock()
	engine := &game.Engine{Rules: game.DefaultRules(), Catalog: board.Default, Dice: &dice{}, Rand: rand.New(rand.NewSource(1))}
	hub := NewHub(&loader{}, Options{Engine: engine, Clock: clock})
	defer hub.Shutdown()
	ctx := context.Background()

	s, err := hub.Session(ctx, "stale")
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(30 * time.Second)
	waitFor(t, "abort after the decision timeout", func() bool {
		r, err := s.Snapshot(ctx)
		return err == nil && r.Status == models.StatusFinished
	})
	if r, _ := s.Snapshot(ctx); !r.Flagged {
		t.Fatalf("room %+v", r)
	}

	clock.Advance(FinishedGrace - time.Second)
	if hub.Len() != 1 {
		t.Fatal("released before the grace period")
	}
	clock.Advance(time.Second)
	if hub.Len() != 0 {
		t.Fatalf("%d sessions after the grace period", hub.Len())
	}
}
