package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/DedS3t/monopoly-engine/platform/game"
)

// Client events.
const (
	EventJoin          = "join-game"
	EventLeave         = "leave-game"
	EventReady         = "toggle-ready"
	EventRoll          = "roll-dice"
	EventDecide        = "pending-decision"
	EventPayRent       = "pay-rent"
	EventMortgage      = "mortgage-cell"
	EventUnmortgage    = "unmortgage-cell"
	EventBuild         = "buy-house"
	EventConfirmChance = "confirm-chance"
	EventJail          = "jail-action"
	EventTradeOffer    = "trade-offer"
	EventTradeAccept   = "trade-accept"
	EventTradeReject   = "trade-reject"
	EventTradeCancel   = "trade-cancel"
	EventAuctionStart  = "auction-start"
	EventAuctionBid    = "auction-bid"
	EventChat          = "room-message"
)

var clientEvents = []string{
	EventJoin, EventLeave, EventReady, EventRoll, EventDecide, EventPayRent,
	EventMortgage, EventUnmortgage, EventBuild, EventConfirmChance, EventJail,
	EventTradeOffer, EventTradeAccept, EventTradeReject, EventTradeCancel,
	EventAuctionStart, EventAuctionBid, EventChat,
}

var ErrBadPayload = errors.New("bad payload")

type payload struct {
	GameId     string `json:"game_id"`
	Buy        bool   `json:"buy"`
	CellId     *int   `json:"cellId"`
	Hotel      bool   `json:"hotel"`
	Choice     string `json:"choice"`
	ToPlayerId string `json:"toPlayerId"`
	FromCells  []int  `json:"fromCells"`
	FromMoney  int    `json:"fromMoney"`
	ToCells    []int  `json:"toCells"`
	ToMoney    int    `json:"toMoney"`
	TradeId    string `json:"tradeId"`
	Amount     int    `json:"amount"`
	Text       string `json:"text"`
}

// ParseCommand turns a client event and its JSON body into a command. The
// returned room id is empty when the body does not name one.
func ParseCommand(event, body string) (string, game.Command, error) {
	var p payload
	if strings.TrimSpace(body) != "" {
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
	}
	cell := func() (int, error) {
		if p.CellId == nil {
			return 0, fmt.Errorf("%w: %s needs cellId", ErrBadPayload, event)
		}
		return *p.CellId, nil
	}

	var cmd game.Command
	switch event {
	case EventJoin:
		if p.GameId == "" {
			return "", nil, fmt.Errorf("%w: game_id missing", ErrBadPayload)
		}
		cmd = game.Join{}
	case EventLeave:
		cmd = game.Leave{}
	case EventReady:
		cmd = game.ToggleReady{}
	case EventRoll:
		cmd = game.RollDice{}
	case EventDecide:
		cmd = game.Decide{Buy: p.Buy}
	case EventPayRent:
		cmd = game.PayRent{}
	case EventMortgage, EventUnmortgage, EventBuild, EventAuctionStart:
		id, err := cell()
		if err != nil {
			return "", nil, err
		}
		switch event {
		case EventMortgage:
			cmd = game.Mortgage{CellId: id}
		case EventUnmortgage:
			cmd = game.Unmortgage{CellId: id}
		case EventBuild:
			cmd = game.Build{CellId: id, Hotel: p.Hotel}
		default:
			cmd = game.StartAuction{CellId: id}
		}
	case EventConfirmChance:
		cmd = game.ConfirmChance{}
	case EventJail:
		choice := game.JailChoice(strings.ToLower(p.Choice))
		switch choice {
		case game.JailPay, game.JailRoll, game.JailWait:
		default:
			return "", nil, fmt.Errorf("%w: unknown jail choice %q", ErrBadPayload, p.Choice)
		}
		cmd = game.JailAction{Choice: choice}
	case EventTradeOffer:
		cmd = game.ProposeTrade{
			ToPlayerId: p.ToPlayerId,
			FromCells:  p.FromCells,
			FromMoney:  p.FromMoney,
			ToCells:    p.ToCells,
			ToMoney:    p.ToMoney,
		}
	case EventTradeAccept:
		cmd = game.AcceptTrade{TradeId: p.TradeId}
	case EventTradeReject:
		cmd = game.RejectTrade{TradeId: p.TradeId}
	case EventTradeCancel:
		cmd = game.CancelTrade{TradeId: p.TradeId}
	case EventAuctionBid:
		cmd = game.PlaceBid{Amount: p.Amount}
	case EventChat:
		cmd = game.SendChat{Text: p.Text}
	default:
		return "", nil, fmt.Errorf("%w: unknown event %q", ErrBadPayload, event)
	}
	return p.GameId, cmd, nil
}
