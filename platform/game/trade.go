package game

import (
	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/economy"
	uuid "github.com/satori/go.uuid"
)

// validateSide checks that p can give money and cells. Money owed as rent
// cannot be traded away.
func (t *tx) validateSide(p *models.Participant, money int, cells []int) error {
	if money < 0 {
		return reject(InvalidTarget, "negative amount")
	}
	if p.Money < money {
		return reject(InsufficientFunds, "%s has $%d, offer needs $%d", name(p), p.Money, money)
	}
	if owed := t.rentOwed(p); owed > 0 && p.Money-money < owed {
		return reject(InsufficientFunds, "%s still owes $%d rent", name(p), owed)
	}
	seen := make(map[int]bool, len(cells))
	for _, id := range cells {
		if seen[id] {
			return reject(InvalidTarget, "cell %d listed twice", id)
		}
		seen[id] = true
		cell := t.room.Cell(id)
		if cell == nil || cell.OwnerId != p.PlayerId {
			return reject(InvalidTarget, "%s does not own cell %d", name(p), id)
		}
		if cell.Mortgaged {
			return reject(InvalidTarget, "cell %d is mortgaged", id)
		}
	}
	return nil
}

func (t *tx) validateTrade(from, to *models.Participant, offer *models.TradeOffer) error {
	if from.Bankrupt || to.Bankrupt {
		return reject(InvalidTarget, "bankrupt players cannot trade")
	}
	if from.IsFrozen || to.IsFrozen {
		return reject(Frozen, "frozen players cannot trade")
	}
	if err := t.validateSide(from, offer.FromMoney, offer.FromCells); err != nil {
		return err
	}
	return t.validateSide(to, offer.ToMoney, offer.ToCells)
}

func (t *tx) proposeTrade(actor Actor, c ProposeTrade) error {
	if t.room.Status != models.StatusInProgress {
		return reject(WrongStatus, "room is %s", t.room.Status)
	}
	from, err := t.alive(actor)
	if err != nil {
		return err
	}
	if t.room.ActiveTrade != nil {
		return reject(Blocked, "another trade is pending")
	}
	to := t.room.Player(c.ToPlayerId)
	if to == nil || to.PlayerId == from.PlayerId {
		return reject(InvalidTarget, "cannot trade with %q", c.ToPlayerId)
	}
	if len(c.FromCells)+len(c.ToCells) == 0 && c.FromMoney == 0 && c.ToMoney == 0 {
		return reject(InvalidTarget, "empty trade")
	}
	offer := &models.TradeOffer{
		Id:           uuid.NewV4().String(),
		FromPlayerId: from.PlayerId,
		ToPlayerId:   to.PlayerId,
		FromCells:    append([]int(nil), c.FromCells...),
		FromMoney:    c.FromMoney,
		ToCells:      append([]int(nil), c.ToCells...),
		ToMoney:      c.ToMoney,
		Status:       models.TradePending,
		CreatedAt:    t.now,
	}
	if err := t.validateTrade(from, to, offer); err != nil {
		return err
	}
	t.room.ActiveTrade = offer
	t.log(from.PlayerId, "%s offers a trade to %s", name(from), name(to))
	t.emit(EventTradeOffer, offer)
	return nil
}

func (t *tx) activeTrade(id string) (*models.TradeOffer, error) {
	tr := t.room.ActiveTrade
	if tr == nil || (id != "" && tr.Id != id) {
		return nil, reject(AlreadyResolved, "trade %s is not pending", id)
	}
	return tr, nil
}

func (t *tx) acceptTrade(actor Actor, id string) error {
	tr, err := t.activeTrade(id)
	if err != nil {
		return err
	}
	if actor.PlayerId != tr.ToPlayerId {
		return reject(InvalidTarget, "only %s can accept this trade", tr.ToPlayerId)
	}
	from, to := t.room.Player(tr.FromPlayerId), t.room.Player(tr.ToPlayerId)
	if from == nil || to == nil {
		return reject(NotInRoom, "a trade party left the room")
	}
	if err := t.validateTrade(from, to, tr); err != nil {
		return err
	}

	from.Money += tr.ToMoney - tr.FromMoney
	to.Money += tr.FromMoney - tr.ToMoney
	for _, id := range tr.FromCells {
		hand(t.room.Cells[id], to.PlayerId)
	}
	for _, id := range tr.ToCells {
		hand(t.room.Cells[id], from.PlayerId)
	}
	for _, id := range economy.BrokenMonopolyCells(t.room.Cells, t.Catalog) {
		c := t.room.Cells[id]
		c.Houses, c.Hotels = 0, 0
	}
	economy.RecomputeRents(t.room.Cells, t.Catalog)

	tr.Status = models.TradeAccepted
	t.room.ActiveTrade = nil
	t.log(to.PlayerId, "%s accepted the trade from %s", name(to), name(from))
	t.emit(EventTradeUpdate, tr)

	for _, p := range []*models.Participant{from, to} {
		if err := t.settle(p); err != nil {
			return err
		}
	}
	if t.room.Status == models.StatusFinished {
		return nil
	}
	return t.maybeEndTurn()
}

// hand moves a cell to a new owner. Buildings never change hands.
func hand(cell *models.CellState, ownerId string) {
	cell.OwnerId = ownerId
	cell.Houses = 0
	cell.Hotels = 0
}

// closeTrade rejects (recipient) or cancels (proposer) the pending trade.
func (t *tx) closeTrade(actor Actor, id string, status models.TradeStatus) error {
	tr, err := t.activeTrade(id)
	if err != nil {
		return err
	}
	party := tr.ToPlayerId
	if status == models.TradeCancelled {
		party = tr.FromPlayerId
	}
	if actor.PlayerId != party {
		return reject(InvalidTarget, "only %s can do that", party)
	}
	tr.Status = status
	t.room.ActiveTrade = nil
	t.log(actor.PlayerId, "trade %s", status)
	t.emit(EventTradeUpdate, tr)
	return nil
}
