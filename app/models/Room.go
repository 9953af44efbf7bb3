package models

import "time"

type RoomStatus string

const (
	StatusWaiting    RoomStatus = "WAITING"
	StatusStarting   RoomStatus = "STARTING"
	StatusInProgress RoomStatus = "IN_PROGRESS"
	StatusFinished   RoomStatus = "FINISHED"
)

type PendingType string

const (
	PendingBuyOrPay   PendingType = "BUY_OR_PAY"
	PendingJailChoice PendingType = "JAIL_CHOICE"
)

// Room is the whole state of one game session. Only the session actor of
// the room holds a writable *Room; everybody else gets a Clone.
type Room struct {
	Id                  string             `json:"id"`
	Name                string             `json:"name"`
	Capacity            int                `json:"capacity"`
	Status              RoomStatus         `json:"status"`
	Players             []*Participant     `json:"players"`
	CurrentTurnPlayerId string             `json:"currentTurnPlayerId"`
	ComboTurn           int                `json:"comboTurn"`
	Cells               map[int]*CellState `json:"cellState"`
	CurrentPayment      *CurrentPayment    `json:"currentPayment"`
	PendingChance       *PendingChance     `json:"pendingChance"`
	ActiveAuction       *Auction           `json:"activeAuction"`
	ActiveTrade         *TradeOffer        `json:"activeTrade"`
	AuctionEligible     *DeclinedTile      `json:"auctionEligible,omitempty"`
	WinnerId            string             `json:"winnerId,omitempty"`
	Flagged             bool               `json:"flagged,omitempty"`
	FlagReason          string             `json:"flagReason,omitempty"`
	Seq                 int64              `json:"seq"`
	Version             int64              `json:"version"`
}

type Participant struct {
	PlayerId        string         `json:"playerId"`
	DisplayName     string         `json:"displayName"`
	Seat            int            `json:"position"`
	Money           int            `json:"money"`
	Position        int            `json:"positionOnBoard"`
	Jailed          bool           `json:"jailed"`
	JailTurns       int            `json:"jailTurns"`
	IsFrozen        bool           `json:"isFrozen"`
	Bankrupt        bool           `json:"bankrupt"`
	HasJailFreeCard bool           `json:"hasJailFreeCard"`
	SkipRentTurns   int            `json:"skipRentTurns"`
	PendingAction   *PendingAction `json:"pendingAction"`
	IsReady         bool           `json:"isReady"`
	Disconnected    bool           `json:"disconnected"`
	HasRolled       bool           `json:"hasRolled"`
	JoinedAt        time.Time      `json:"joinedAt"`
}

type CellState struct {
	Id          int    `json:"id"`
	OwnerId     string `json:"ownerId"`
	Mortgaged   bool   `json:"mortgaged"`
	Houses      int    `json:"houses"`
	Hotels      int    `json:"hotels"`
	BaseRent    int    `json:"baseRent"`
	CurrentRent int    `json:"currentRent"`
	HousePrice  int    `json:"housePrice"`
	HotelPrice  int    `json:"hotelPrice"`
}

type PendingAction struct {
	Type      PendingType `json:"type"`
	CellId    int         `json:"cellId"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Token     int64       `json:"token"`
}

type CurrentPayment struct {
	PayerId string `json:"payerId"`
	OwnerId string `json:"ownerId"`
	CellId  int    `json:"cellId"`
	Rent    int    `json:"rent"`
}

type PendingChance struct {
	PlayerId string `json:"playerId"`
	CardId   int    `json:"cardId"`
	Text     string `json:"text"`
}

// DeclinedTile remembers who declined which tile, so that player may open
// an auction for it until the next roll.
type DeclinedTile struct {
	PlayerId string `json:"playerId"`
	CellId   int    `json:"cellId"`
}

type AuctionStatus string

const (
	AuctionActive    AuctionStatus = "active"
	AuctionCompleted AuctionStatus = "completed"
	AuctionCancelled AuctionStatus = "cancelled"
)

type Bid struct {
	PlayerId  string    `json:"playerId"`
	Amount    int       `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type Auction struct {
	Id              string        `json:"id"`
	CellId          int           `json:"cellId"`
	CurrentBid      int           `json:"currentBid"`
	CurrentBidderId string        `json:"currentBidder"`
	Bids            []Bid         `json:"bids"`
	Status          AuctionStatus `json:"status"`
	StartedAt       time.Time     `json:"startedAt"`
	EndsAt          time.Time     `json:"endsAt"`
}

type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeAccepted  TradeStatus = "accepted"
	TradeRejected  TradeStatus = "rejected"
	TradeCancelled TradeStatus = "cancelled"
)

type TradeOffer struct {
	Id           string      `json:"id"`
	FromPlayerId string      `json:"fromPlayerId"`
	ToPlayerId   string      `json:"toPlayerId"`
	FromCells    []int       `json:"fromCells"`
	FromMoney    int         `json:"fromMoney"`
	ToCells      []int       `json:"toCells"`
	ToMoney      int         `json:"toMoney"`
	Status       TradeStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// NewRoom returns an empty room waiting for players.
func NewRoom(id, name string, capacity int) *Room {
	return &Room{
		Id:       id,
		Name:     name,
		Capacity: capacity,
		Status:   StatusWaiting,
		Cells:    make(map[int]*CellState),
	}
}

func (r *Room) Player(id string) *Participant {
	for _, p := range r.Players {
		if p.PlayerId == id {
			return p
		}
	}
	return nil
}

// Alive returns the participants that are not bankrupt, in seat order.
func (r *Room) Alive() []*Participant {
	alive := make([]*Participant, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.Bankrupt {
			alive = append(alive, p)
		}
	}
	return alive
}

func (r *Room) Cell(id int) *CellState {
	return r.Cells[id]
}

// OwnedBy lists the cells held by playerId.
func (r *Room) OwnedBy(playerId string) []*CellState {
	var owned []*CellState
	for id := 0; id < 40; id++ {
		if c, ok := r.Cells[id]; ok && c.OwnerId == playerId {
			owned = append(owned, c)
		}
	}
	return owned
}

func (r *Room) TotalMoney() int {
	total := 0
	for _, p := range r.Players {
		total += p.Money
	}
	return total
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = make([]*Participant, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		if p.PendingAction != nil {
			pa := *p.PendingAction
			cp.PendingAction = &pa
		}
		c.Players[i] = &cp
	}
	c.Cells = make(map[int]*CellState, len(r.Cells))
	for id, cell := range r.Cells {
		cc := *cell
		c.Cells[id] = &cc
	}
	if r.CurrentPayment != nil {
		cp := *r.CurrentPayment
		c.CurrentPayment = &cp
	}
	if r.PendingChance != nil {
		pc := *r.PendingChance
		c.PendingChance = &pc
	}
	if r.ActiveAuction != nil {
		a := *r.ActiveAuction
		a.Bids = append([]Bid(nil), r.ActiveAuction.Bids...)
		c.ActiveAuction = &a
	}
	if r.ActiveTrade != nil {
		t := *r.ActiveTrade
		t.FromCells = append([]int(nil), r.ActiveTrade.FromCells...)
		t.ToCells = append([]int(nil), r.ActiveTrade.ToCells...)
		c.ActiveTrade = &t
	}
	if r.AuctionEligible != nil {
		d := *r.AuctionEligible
		c.AuctionEligible = &d
	}
	return &c
}
