package game

// Actor is the authenticated sender of a command. Timer commands carry the
// zero Actor.
type Actor struct {
	PlayerId    string
	DisplayName string
}

// Command is the closed set of things that can happen to a room.
type Command interface {
	isCommand()
}

type JailChoice string

const (
	JailPay  JailChoice = "pay"
	JailRoll JailChoice = "roll"
	JailWait JailChoice = "wait"
)

type (
	Join        struct{}
	Leave       struct{}
	ToggleReady struct{}
	RollDice    struct{}
	PayRent     struct{}

	// Decide answers a BUY_OR_PAY decision.
	Decide struct {
		Buy bool
	}

	Mortgage struct {
		CellId int
	}

	Unmortgage struct {
		CellId int
	}

	Build struct {
		CellId int
		Hotel  bool
	}

	ConfirmChance struct{}

	JailAction struct {
		Choice JailChoice
	}

	ProposeTrade struct {
		ToPlayerId string
		FromCells  []int
		FromMoney  int
		ToCells    []int
		ToMoney    int
	}

	AcceptTrade struct {
		TradeId string
	}

	RejectTrade struct {
		TradeId string
	}

	CancelTrade struct {
		TradeId string
	}

	StartAuction struct {
		CellId int
	}

	PlaceBid struct {
		Amount int
	}

	SendChat struct {
		Text string
	}

	// DecisionTimeout fires when a pending action passes its deadline.
	DecisionTimeout struct {
		PlayerId string
		Token    int64
	}

	AuctionTimeout struct {
		AuctionId string
	}
)

func (Join) isCommand() {}
func (Leave) isCommand() {}
func (ToggleReady) isCommand() {}
func (RollDice) isCommand() {}
func (PayRent) isCommand() {}
func (Decide) isCommand() {}
func (Mortgage) isCommand() {}
func (Unmortgage) isCommand() {}
func (Build) isCommand() {}
func (ConfirmChance) isCommand() {}
func (JailAction) isCommand() {}
func (ProposeTrade) isCommand() {}
func (AcceptTrade) isCommand() {}
func (RejectTrade) isCommand() {}
func (CancelTrade) isCommand() {}
func (StartAuction) isCommand() {}
func (PlaceBid) isCommand() {}
func (SendChat) isCommand() {}
func (DecisionTimeout) isCommand() {}
func (AuctionTimeout) isCommand() {}
