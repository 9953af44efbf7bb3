package game

import (
	"errors"
	"testing"
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
)

type scriptedDice struct {
	rolls [][2]int
}

func (d *scriptedDice) Roll() (int, int) {
	if len(d.rolls) == 0 {
		panic("scriptedDice: out of rolls")
	}
	r := d.rolls[0]
	d.rolls = d.rolls[1:]
	return r[0], r[1]
}

type fixedRand int

func (f fixedRand) Intn(n int) int { return int(f) % n }

type fixture struct {
	t    *testing.T
	e    *Engine
	dice *scriptedDice
	room *models.Room
	now  time.Time
	last Outcome
}

// newFixture seats players in order and starts the game with the first one
// on turn.
func newFixture(t *testing.T, ids ...string) *fixture {
	dice := &scriptedDice{}
	rules := DefaultRules()
	f := &fixture{
		t:    t,
		e:    &Engine{Rules: rules, Catalog: board.Default, Dice: dice, Rand: fixedRand(0)},
		dice: dice,
		room: models.NewRoom("room", "test", len(ids)),
		now:  time.Date(2021, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, id := range ids {
		f.room.Players = append(f.room.Players, &models.Participant{
			PlayerId: id, DisplayName: id, Seat: i + 1, Money: rules.StartMoney,
		})
	}
	f.room.Status = models.StatusInProgress
	f.room.CurrentTurnPlayerId = ids[0]
	return f
}

// do applies cmd the way the session does: on a clone that is only kept
// when the command succeeds.
func (f *fixture) do(id string, cmd Command) error {
	next := f.room.Clone()
	out, err := f.e.Apply(next, Actor{PlayerId: id, DisplayName: id}, cmd, f.now)
	if err != nil {
		if r, ok := AsRejection(err); ok && r.Commit {
			f.room = next
		}
		return err
	}
	f.room = next
	f.last = out
	return nil
}

func (f *fixture) ok(id string, cmd Command) {
	f.t.Helper()
	if err := f.do(id, cmd); err != nil {
		f.t.Fatalf("%s %T: %v", id, cmd, err)
	}
}

func (f *fixture) rejected(id string, cmd Command, want Reason) {
	f.t.Helper()
	err := f.do(id, cmd)
	r, ok := AsRejection(err)
	if !ok {
		f.t.Fatalf("%s %T: want rejection %s, got %v", id, cmd, want, err)
	}
	if r.Reason != want {
		f.t.Fatalf("%s %T: got reason %s, want %s (%v)", id, cmd, r.Reason, want, r)
	}
}

func (f *fixture) roll(id string, d1, d2 int) {
	f.t.Helper()
	f.dice.rolls = append(f.dice.rolls, [2]int{d1, d2})
	f.ok(id, RollDice{})
}

func (f *fixture) player(id string) *models.Participant {
	return f.room.Player(id)
}

func (f *fixture) turn(want string) {
	f.t.Helper()
	if got := f.room.CurrentTurnPlayerId; got != want {
		f.t.Fatalf("turn: got %s, want %s", got, want)
	}
}

func (f *fixture) give(owner string, ids ...int) {
	for _, id := range ids {
		tile := board.Default.Tile(id)
		f.room.Cells[id] = &models.CellState{
			Id: id, OwnerId: owner, BaseRent: tile.Rent, CurrentRent: tile.Rent,
			HousePrice: tile.HouseCost, HotelPrice: tile.HotelCost,
		}
	}
}

func TestLobby(t *testing.T) {
	dice := &scriptedDice{}
	e := &Engine{Rules: DefaultRules(), Catalog: board.Default, Dice: dice, Rand: fixedRand(0)}
	f := &fixture{t: t, e: e, dice: dice, room: models.NewRoom("r", "lobby", 2)}

	f.ok("a", Join{})
	f.ok("b", Join{})
	f.rejected("c", Join{}, RoomFull)
	if f.player("a").Seat != 1 || f.player("b").Seat != 2 || f.player("b").Money != 1500 {
		t.Fatalf("seats: %+v %+v", f.player("a"), f.player("b"))
	}

	f.ok("a", Leave{})
	if len(f.room.Players) != 1 {
		t.Fatalf("leave in lobby should remove the player")
	}
	f.ok("c", Join{})
	if f.player("c").Seat != 1 {
		t.Fatalf("c should take the free seat 1, got %d", f.player("c").Seat)
	}

	f.ok("b", ToggleReady{})
	if f.room.Status != models.StatusWaiting {
		t.Fatalf("status %s after one ready", f.room.Status)
	}
	f.ok("c", ToggleReady{})
	if f.room.Status != models.StatusStarting {
		t.Fatalf("status %s after everyone ready", f.room.Status)
	}
	f.turn("c")
	f.rejected("d", Join{}, WrongStatus)
	f.rejected("d", RollDice{}, NotInRoom)

	f.ok("b", Leave{})
	if !f.player("b").Disconnected {
		t.Fatal("leave after start should only disconnect")
	}
	f.ok("b", Join{})
	if f.player("b").Disconnected {
		t.Fatal("rejoin should reconnect")
	}

	f.dice.rolls = [][2]int{{4, 6}}
	f.ok("c", RollDice{})
	if f.room.Status != models.StatusInProgress {
		t.Fatalf("first roll should start the game, status %s", f.room.Status)
	}
}

func TestRollAndBuy(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.rejected("b", RollDice{}, NotYourTurn)

	f.roll("a", 1, 2)
	a := f.player("a")
	if a.Position != 3 || a.PendingAction == nil || a.PendingAction.Type != models.PendingBuyOrPay {
		t.Fatalf("after roll: %+v", a)
	}
	if want := f.now.Add(30 * time.Second); !a.PendingAction.ExpiresAt.Equal(want) {
		t.Fatalf("deadline %v, want %v", a.PendingAction.ExpiresAt, want)
	}
	f.rejected("a", RollDice{}, AlreadyResolved)
	f.turn("a")

	f.ok("a", Decide{Buy: true})
	if f.player("a").Money != 1440 || f.room.Cells[3].OwnerId != "a" {
		t.Fatalf("buy: money %d cell %+v", f.player("a").Money, f.room.Cells[3])
	}
	f.turn("b")
	f.rejected("a", Decide{Buy: true}, AlreadyResolved)
}

func TestPassingStartPaysBonus(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.player("a").Position = 36
	f.roll("a", 1, 3)
	if a := f.player("a"); a.Position != 0 || a.Money != 1700 {
		t.Fatalf("pos %d money %d", a.Position, a.Money)
	}
}

func TestDecisionTimeoutResolvesOnce(t *testing.T) {
	t.Run("explicit skip first", func(t *testing.T) {
		f := newFixture(t, "a", "b")
		f.roll("a", 1, 2)
		tok := f.player("a").PendingAction.Token
		f.ok("a", Decide{Buy: false})
		f.turn("b")
		f.rejected("", DecisionTimeout{PlayerId: "a", Token: tok}, AlreadyResolved)
		f.turn("b")
	})
	t.Run("timeout first", func(t *testing.T) {
		f := newFixture(t, "a", "b")
		f.roll("a", 1, 2)
		tok := f.player("a").PendingAction.Token
		f.ok("", DecisionTimeout{PlayerId: "a", Token: tok})
		f.turn("b")
		if f.room.Cells[3] != nil {
			t.Fatal("timeout should not buy")
		}
		f.rejected("a", Decide{Buy: false}, AlreadyResolved)
		f.turn("b")
	})
	t.Run("stale token", func(t *testing.T) {
		f := newFixture(t, "a", "b")
		f.roll("a", 1, 2)
		tok := f.player("a").PendingAction.Token
		f.rejected("", DecisionTimeout{PlayerId: "a", Token: tok - 1}, AlreadyResolved)
		f.turn("a")
	})
}

func TestDoublesAndTripleDoubleJail(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.roll("a", 5, 5)
	f.turn("a")
	if f.room.ComboTurn != 1 || f.player("a").Position != 10 {
		t.Fatalf("combo %d pos %d", f.room.ComboTurn, f.player("a").Position)
	}
	f.roll("a", 5, 5)
	f.turn("a")
	f.roll("a", 5, 5)

	a := f.player("a")
	if !a.Jailed || a.Position != board.JailCell || f.room.ComboTurn != 0 {
		t.Fatalf("third double: %+v combo %d", a, f.room.ComboTurn)
	}
	f.turn("b")
}

func TestDoubleDropsOpenDecision(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.roll("a", 1, 1)
	if f.player("a").PendingAction != nil {
		t.Fatal("cell 2 is chance, no decision expected")
	}
	f.ok("a", ConfirmChance{})
	f.roll("a", 2, 2)
	if f.player("a").Position != 6 || f.player("a").PendingAction == nil {
		t.Fatalf("expected a decision on cell 6: %+v", f.player("a"))
	}
	f.roll("a", 1, 2)
	if f.player("a").Position != 9 || f.player("a").PendingAction.CellId != 9 {
		t.Fatalf("stale decision kept: %+v", f.player("a").PendingAction)
	}
	f.rejected("a", RollDice{}, AlreadyResolved)
}

func TestGoToJailCell(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.player("a").Position = 25
	f.give("b", 25)
	f.roll("a", 2, 3)
	if a := f.player("a"); !a.Jailed || a.Position != board.JailCell {
		t.Fatalf("not jailed: %+v", a)
	}
	f.turn("b")

	f2 := newFixture(t, "a", "b")
	f2.player("a").Position = 24
	f2.player("a").HasJailFreeCard = true
	f2.roll("a", 2, 4)
	if a := f2.player("a"); a.Jailed || a.HasJailFreeCard {
		t.Fatalf("card should have been used: %+v", a)
	}
}

func TestJailReleaseOnThirdAttempt(t *testing.T) {
	f := newFixture(t, "b", "a")
	a := f.player("a")
	a.Jailed, a.Position = true, board.JailCell

	f.roll("b", 4, 6)
	f.turn("a")
	if pa := f.player("a").PendingAction; pa == nil || pa.Type != models.PendingJailChoice {
		t.Fatalf("jail choice not offered: %+v", pa)
	}
	f.rejected("a", RollDice{}, Blocked)

	f.dice.rolls = append(f.dice.rolls, [2]int{1, 2})
	f.ok("a", JailAction{Choice: JailRoll})
	if f.player("a").JailTurns != 1 || !f.player("a").Jailed {
		t.Fatalf("after first attempt: %+v", f.player("a"))
	}
	f.turn("b")
	f.roll("b", 4, 6)

	f.dice.rolls = append(f.dice.rolls, [2]int{1, 2})
	f.ok("a", JailAction{Choice: JailRoll})
	if f.player("a").JailTurns != 2 {
		t.Fatalf("after second attempt: %+v", f.player("a"))
	}
	f.roll("b", 3, 5)
	f.ok("b", Decide{Buy: false})

	money := f.player("a").Money
	f.dice.rolls = append(f.dice.rolls, [2]int{1, 2})
	f.ok("a", JailAction{Choice: JailRoll})
	a = f.player("a")
	if a.Jailed || a.JailTurns != 0 || a.Money != money {
		t.Fatalf("third attempt should release for free: %+v", a)
	}
	f.turn("b")
}

func TestJailPayAndTimeout(t *testing.T) {
	f := newFixture(t, "b", "a")
	f.player("a").Jailed = true
	f.player("a").Position = board.JailCell
	f.roll("b", 4, 6)

	tok := f.player("a").PendingAction.Token
	f.ok("", DecisionTimeout{PlayerId: "a", Token: tok})
	if f.player("a").JailTurns != 1 {
		t.Fatalf("timeout should count as waiting: %+v", f.player("a"))
	}
	f.turn("b")
	f.roll("b", 4, 6)

	f.ok("a", JailAction{Choice: JailPay})
	if a := f.player("a"); a.Jailed || a.Money != 1400 {
		t.Fatalf("pay: %+v", a)
	}
	f.turn("a")
	f.roll("a", 4, 6)
	if f.player("a").Position != 20 {
		t.Fatalf("released player should move, pos %d", f.player("a").Position)
	}
}

func TestChanceCard(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.roll("a", 3, 4)
	if f.room.PendingChance == nil || f.room.PendingChance.CardId != 0 {
		t.Fatalf("pending chance %+v", f.room.PendingChance)
	}
	f.turn("a")
	f.rejected("b", ConfirmChance{}, NotYourTurn)
	f.ok("a", ConfirmChance{})
	if f.player("a").Money != 1600 || f.room.PendingChance != nil {
		t.Fatalf("card not applied: money %d", f.player("a").Money)
	}
	f.turn("b")
	f.rejected("a", ConfirmChance{}, AlreadyResolved)
}

func TestTaxFreezesUntilMortgaged(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	f.player("a").Money = 30
	f.give("a", 12)
	f.roll("a", 1, 3)
	a := f.player("a")
	if !a.IsFrozen || a.Money != 30-53 {
		t.Fatalf("tax: %+v", a)
	}
	f.turn("a")
	f.rejected("a", RollDice{}, Frozen)

	f.ok("a", Mortgage{CellId: 12})
	if a := f.player("a"); a.IsFrozen || a.Money != 52 {
		t.Fatalf("after mortgage: %+v", a)
	}
	f.turn("b")
}

func TestMortgageRules(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.give("a", 1, 3)
	f.room.Cells[1].Houses = 1
	f.room.Cells[3].Houses = 2

	f.rejected("b", Mortgage{CellId: 1}, InvalidTarget)
	f.ok("a", Mortgage{CellId: 1})
	// 30 for the tile, half of three houses at 50
	if a := f.player("a"); a.Money != 1500+30+75 {
		t.Fatalf("money %d", a.Money)
	}
	if f.room.Cells[3].Houses != 0 {
		t.Fatal("group buildings should be sold")
	}
	f.rejected("a", Mortgage{CellId: 1}, AlreadyResolved)
	f.ok("a", Unmortgage{CellId: 1})
	if a := f.player("a"); a.Money != 1605-33 || f.room.Cells[1].Mortgaged {
		t.Fatalf("unmortgage: money %d", a.Money)
	}
}

func TestBuild(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.give("a", 1, 3)
	f.ok("a", Build{CellId: 1})
	f.rejected("a", Build{CellId: 1}, InvalidTarget)
	f.ok("a", Build{CellId: 3})
	if a := f.player("a"); a.Money != 1400 {
		t.Fatalf("money %d", a.Money)
	}
	if got := f.room.Cells[1].CurrentRent; got != 28 {
		t.Fatalf("rent with one house %d", got)
	}
	f.rejected("b", Build{CellId: 1}, NotYourTurn)
}

func TestFinishedRoomRejects(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.room.Status = models.StatusFinished
	f.rejected("a", RollDice{}, RoomFinished)
	f.ok("a", SendChat{Text: " gg "})
	if !f.last.Unchanged || f.last.Events[0].Payload.(Message).Text != "gg" {
		t.Fatalf("chat outcome %+v", f.last)
	}
}

func TestNoNextPlayerIsInvariant(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.player("b").Bankrupt = true
	f.dice.rolls = [][2]int{{4, 6}}
	err := f.do("a", RollDice{})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("got %v, want ErrInvariant", err)
	}

	Abort(f.room, err.Error())
	if f.room.Status != models.StatusFinished || !f.room.Flagged || f.room.WinnerId != "" {
		t.Fatalf("abort: %+v", f.room)
	}
}
