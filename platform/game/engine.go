package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
)

type AuctionPolicy string

const (
	AuctionOff       AuctionPolicy = "off"
	AuctionOnRequest AuctionPolicy = "on_request"
	AuctionAutomatic AuctionPolicy = "automatic"
)

type BankruptcyPolicy string

const (
	// BankruptcyRemove takes the tiles of a bankrupt player out of play.
	BankruptcyRemove BankruptcyPolicy = "remove"
	// BankruptcyTransfer hands them to the player owed rent.
	BankruptcyTransfer BankruptcyPolicy = "transfer"
)

func ParseAuctionPolicy(s string) (AuctionPolicy, error) {
	switch p := AuctionPolicy(strings.ToLower(s)); p {
	case AuctionOff, AuctionOnRequest, AuctionAutomatic:
		return p, nil
	}
	return "", fmt.Errorf("unknown auction policy %q", s)
}

func ParseBankruptcyPolicy(s string) (BankruptcyPolicy, error) {
	switch p := BankruptcyPolicy(strings.ToLower(s)); p {
	case BankruptcyRemove, BankruptcyTransfer:
		return p, nil
	}
	return "", fmt.Errorf("unknown bankruptcy policy %q", s)
}

type Rules struct {
	StartMoney       int
	StartBonus       int
	JailFee          int
	MaxJailTurns     int
	MaxCombo         int
	DecisionTimeout  time.Duration
	AuctionWindow    time.Duration
	AuctionFloor     int
	AuctionPolicy    AuctionPolicy
	BankruptcyPolicy BankruptcyPolicy
	EloWin           int
	EloLoss          int
	XPWin            int
	XPLose           int
	MaxChat          int
}

func DefaultRules() Rules {
	return Rules{
		StartMoney:       1500,
		StartBonus:       200,
		JailFee:          100,
		MaxJailTurns:     3,
		MaxCombo:         3,
		DecisionTimeout:  30 * time.Second,
		AuctionWindow:    20 * time.Second,
		AuctionFloor:     30,
		AuctionPolicy:    AuctionOnRequest,
		BankruptcyPolicy: BankruptcyRemove,
		EloWin:           10,
		EloLoss:          1,
		XPWin:            100,
		XPLose:           25,
		MaxChat:          500,
	}
}

type Dice interface {
	Roll() (int, int)
}

// LockedRand is a math/rand source safe to share between rooms.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// RandomDice rolls two fair six-sided dice.
type RandomDice struct {
	Rand board.Rand
}

func (d RandomDice) Roll() (int, int) {
	return d.Rand.Intn(6) + 1, d.Rand.Intn(6) + 1
}

const (
	EventMessage      = "game-message"
	EventDice         = "dice-rolled"
	EventDecision     = "pending-decision"
	EventChance       = "chance-card"
	EventAuctionStart = "auction-start"
	EventAuctionBid   = "auction-bid"
	EventAuctionEnd   = "auction-end"
	EventAuctionOffer = "auction-available"
	EventTradeOffer   = "trade-offer"
	EventTradeUpdate  = "trade-update"
	EventChat         = "room-message"
	EventGameOver     = "game-over"
)

type Event struct {
	Name    string
	Payload interface{}
}

type Message struct {
	PlayerId string    `json:"playerId,omitempty"`
	Name     string    `json:"name,omitempty"`
	Text     string    `json:"text"`
	Type     string    `json:"type"`
	Time     time.Time `json:"time"`
}

type DiceRoll struct {
	PlayerId string `json:"playerId"`
	Dice1    int    `json:"dice1"`
	Dice2    int    `json:"dice2"`
}

// Result is one participant's record once the room finishes.
type Result struct {
	PlayerId   string
	Outcome    string
	FinalMoney int
	XP         int
	Elo        int
	JoinedAt   time.Time
	// Left is set for a participant who walked out before the end.
	Left bool
}

const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
)

// Outcome is what a successfully applied command produced.
type Outcome struct {
	Events  []Event
	Results []Result
	// Unchanged is set when the room state was not touched (chat).
	Unchanged bool
}

// Engine applies commands to a room. It holds no room state and may be
// shared by every session.
type Engine struct {
	Rules   Rules
	Catalog *board.Catalog
	Dice    Dice
	Rand    board.Rand
}

func NewEngine(rules Rules) *Engine {
	r := NewLockedRand(time.Now().UnixNano())
	return &Engine{
		Rules:   rules,
		Catalog: board.Default,
		Dice:    RandomDice{Rand: r},
		Rand:    r,
	}
}

// tx is the application of one command to one room.
type tx struct {
	*Engine
	room *models.Room
	now  time.Time
	out  Outcome
}

// Apply runs cmd against room, mutating it in place. On error the caller
// must discard room unless the error is a Rejection with Commit set.
func (e *Engine) Apply(room *models.Room, actor Actor, cmd Command, now time.Time) (Outcome, error) {
	t := &tx{Engine: e, room: room, now: now}
	if room.Status == models.StatusFinished {
		if _, ok := cmd.(SendChat); !ok {
			return t.out, reject(RoomFinished, "room %s is finished", room.Id)
		}
	}
	err := t.apply(actor, cmd)
	return t.out, err
}

func (t *tx) apply(actor Actor, cmd Command) error {
	switch c := cmd.(type) {
	case Join:
		return t.join(actor)
	case Leave:
		return t.leave(actor)
	case ToggleReady:
		return t.toggleReady(actor)
	case RollDice:
		return t.roll(actor)
	case Decide:
		return t.decide(actor, c.Buy)
	case PayRent:
		return t.payRent(actor)
	case Mortgage:
		return t.mortgage(actor, c.CellId)
	case Unmortgage:
		return t.unmortgage(actor, c.CellId)
	case Build:
		return t.build(actor, c)
	case ConfirmChance:
		return t.confirmChance(actor)
	case JailAction:
		return t.jailAction(actor, c.Choice)
	case ProposeTrade:
		return t.proposeTrade(actor, c)
	case AcceptTrade:
		return t.acceptTrade(actor, c.TradeId)
	case RejectTrade:
		return t.closeTrade(actor, c.TradeId, models.TradeRejected)
	case CancelTrade:
		return t.closeTrade(actor, c.TradeId, models.TradeCancelled)
	case StartAuction:
		return t.requestAuction(actor, c.CellId)
	case PlaceBid:
		return t.placeBid(actor, c.Amount)
	case SendChat:
		return t.chat(actor, c.Text)
	case DecisionTimeout:
		return t.decisionTimeout(c)
	case AuctionTimeout:
		return t.auctionTimeout(c.AuctionId)
	}
	return reject(UnknownCommand, "%T", cmd)
}

// Abort finishes a room that reached an impossible state. Nobody wins and
// the room is flagged for inspection.
func Abort(room *models.Room, reason string) {
	clearTransient(room)
	room.Status = models.StatusFinished
	room.WinnerId = ""
	room.Flagged = true
	room.FlagReason = reason
}

func clearTransient(room *models.Room) {
	room.CurrentPayment = nil
	room.PendingChance = nil
	room.ActiveTrade = nil
	room.AuctionEligible = nil
	if room.ActiveAuction != nil {
		room.ActiveAuction.Status = models.AuctionCancelled
		room.ActiveAuction = nil
	}
	for _, p := range room.Players {
		p.PendingAction = nil
	}
}

func (t *tx) emit(name string, payload interface{}) {
	t.out.Events = append(t.out.Events, Event{Name: name, Payload: payload})
}

func (t *tx) log(playerId, format string, args ...interface{}) {
	t.emit(EventMessage, Message{
		PlayerId: playerId,
		Text:     fmt.Sprintf(format, args...),
		Type:     "EVENT",
		Time:     t.now,
	})
}

func (t *tx) token() int64 {
	t.room.Seq++
	return t.room.Seq
}

func (t *tx) member(actor Actor) (*models.Participant, error) {
	p := t.room.Player(actor.PlayerId)
	if p == nil {
		return nil, reject(NotInRoom, "player %s is not in room %s", actor.PlayerId, t.room.Id)
	}
	return p, nil
}

// alive is member for commands a bankrupt participant may not send.
func (t *tx) alive(actor Actor) (*models.Participant, error) {
	p, err := t.member(actor)
	if err != nil {
		return nil, err
	}
	if p.Bankrupt {
		return nil, reject(InvalidTarget, "player %s is bankrupt", p.PlayerId)
	}
	return p, nil
}

func (t *tx) playing() error {
	switch t.room.Status {
	case models.StatusStarting, models.StatusInProgress:
		return nil
	}
	return reject(WrongStatus, "room is %s", t.room.Status)
}

// onTurn resolves actor and checks that the turn is theirs.
func (t *tx) onTurn(actor Actor) (*models.Participant, error) {
	if err := t.playing(); err != nil {
		return nil, err
	}
	p, err := t.alive(actor)
	if err != nil {
		return nil, err
	}
	if t.room.CurrentTurnPlayerId != p.PlayerId {
		return nil, reject(NotYourTurn, "it is %s's turn", t.room.CurrentTurnPlayerId)
	}
	return p, nil
}

func name(p *models.Participant) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.PlayerId
}
