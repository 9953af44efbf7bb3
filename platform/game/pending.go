package game

import (
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/economy"
)

type decision struct {
	PlayerId  string             `json:"playerId"`
	Type      models.PendingType `json:"type"`
	CellId    int                `json:"cellId"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

func decisionPayload(p *models.Participant) decision {
	return decision{
		PlayerId:  p.PlayerId,
		Type:      p.PendingAction.Type,
		CellId:    p.PendingAction.CellId,
		ExpiresAt: p.PendingAction.ExpiresAt,
	}
}

func (t *tx) offerBuy(p *models.Participant, cellId int) {
	p.PendingAction = &models.PendingAction{
		Type:      models.PendingBuyOrPay,
		CellId:    cellId,
		ExpiresAt: t.now.Add(t.Rules.DecisionTimeout),
		Token:     t.token(),
	}
	t.emit(EventDecision, decisionPayload(p))
}

func (t *tx) decide(actor Actor, buy bool) error {
	if err := t.playing(); err != nil {
		return err
	}
	p, err := t.alive(actor)
	if err != nil {
		return err
	}
	pa := p.PendingAction
	if pa == nil || pa.Type != models.PendingBuyOrPay {
		return reject(AlreadyResolved, "no buy decision is open")
	}
	if !buy {
		t.skip(p, false)
		return t.maybeEndTurn()
	}

	tile := t.Catalog.Tile(pa.CellId)
	if cell := t.room.Cell(pa.CellId); cell != nil && cell.OwnerId != "" {
		return reject(InvalidTarget, "%s is already owned", tile.Name)
	}
	if p.IsFrozen {
		return reject(Frozen, "mortgage something to cover your debt first")
	}
	if p.Money < tile.Price {
		return reject(InsufficientFunds, "%s costs $%d, you have $%d", tile.Name, tile.Price, p.Money)
	}
	p.Money -= tile.Price
	t.room.Cells[pa.CellId] = economy.NewCellState(tile, p.PlayerId)
	economy.RecomputeRents(t.room.Cells, t.Catalog)
	p.PendingAction = nil
	t.log(p.PlayerId, "%s bought %s for $%d", name(p), tile.Name, tile.Price)
	return t.maybeEndTurn()
}

// skip declines the open buy decision of p and, depending on the auction
// policy, puts the tile up for auction.
func (t *tx) skip(p *models.Participant, timedOut bool) {
	cellId := p.PendingAction.CellId
	p.PendingAction = nil
	tile := t.Catalog.Tile(cellId)
	if timedOut {
		t.log(p.PlayerId, "%s ran out of time and skips %s", name(p), tile.Name)
	} else {
		t.log(p.PlayerId, "%s skips %s", name(p), tile.Name)
	}

	if cell := t.room.Cell(cellId); cell != nil && cell.OwnerId != "" {
		return
	}
	if t.room.ActiveAuction != nil || t.room.ActiveTrade != nil {
		return
	}
	switch t.Rules.AuctionPolicy {
	case AuctionAutomatic:
		t.startAuction(cellId)
	case AuctionOnRequest:
		t.room.AuctionEligible = &models.DeclinedTile{PlayerId: p.PlayerId, CellId: cellId}
		t.emit(EventAuctionOffer, t.room.AuctionEligible)
	}
}

// decisionTimeout force-resolves a pending action, unless it was already
// answered; Token tells the two apart.
func (t *tx) decisionTimeout(c DecisionTimeout) error {
	p := t.room.Player(c.PlayerId)
	if p == nil || p.PendingAction == nil || p.PendingAction.Token != c.Token {
		return reject(AlreadyResolved, "decision %d is no longer open", c.Token)
	}
	switch p.PendingAction.Type {
	case models.PendingBuyOrPay:
		t.skip(p, true)
		return t.maybeEndTurn()
	case models.PendingJailChoice:
		t.log(p.PlayerId, "%s ran out of time and waits in jail", name(p))
		return t.serveJailTurn(p)
	}
	return reject(InvalidTarget, "unknown pending action %q", p.PendingAction.Type)
}
