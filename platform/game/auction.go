package game

import (
	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/economy"
	uuid "github.com/satori/go.uuid"
)

func (t *tx) startAuction(cellId int) {
	a := &models.Auction{
		Id:         uuid.NewV4().String(),
		CellId:     cellId,
		CurrentBid: t.Rules.AuctionFloor,
		Status:     models.AuctionActive,
		StartedAt:  t.now,
		EndsAt:     t.now.Add(t.Rules.AuctionWindow),
	}
	t.room.ActiveAuction = a
	t.room.AuctionEligible = nil
	t.log("", "auction for %s opens at $%d", t.Catalog.Tile(cellId).Name, a.CurrentBid)
	t.emit(EventAuctionStart, a)
}

// requestAuction opens an auction for a tile the actor just declined.
func (t *tx) requestAuction(actor Actor, cellId int) error {
	if err := t.playing(); err != nil {
		return err
	}
	p, err := t.alive(actor)
	if err != nil {
		return err
	}
	if t.Rules.AuctionPolicy != AuctionOnRequest {
		return reject(InvalidTarget, "auctions are not started on request in this room")
	}
	if t.room.ActiveAuction != nil {
		return reject(Blocked, "an auction is already running")
	}
	el := t.room.AuctionEligible
	if el == nil || el.PlayerId != p.PlayerId || el.CellId != cellId {
		return reject(InvalidTarget, "cell %d cannot be auctioned by you now", cellId)
	}
	if cell := t.room.Cell(cellId); cell != nil && cell.OwnerId != "" {
		t.room.AuctionEligible = nil
		return reject(InvalidTarget, "cell %d is already owned", cellId)
	}
	t.startAuction(cellId)
	return nil
}

func (t *tx) placeBid(actor Actor, amount int) error {
	if err := t.playing(); err != nil {
		return err
	}
	p, err := t.alive(actor)
	if err != nil {
		return err
	}
	a := t.room.ActiveAuction
	if a == nil {
		return reject(AlreadyResolved, "no auction is running")
	}
	if !t.now.Before(a.EndsAt) {
		return reject(AlreadyResolved, "the auction has closed")
	}
	if cell := t.room.Cell(a.CellId); cell != nil && cell.OwnerId != "" {
		a.Status = models.AuctionCancelled
		t.room.ActiveAuction = nil
		t.log("", "auction for %s cancelled, the cell was acquired", t.Catalog.Tile(a.CellId).Name)
		t.emit(EventAuctionEnd, a)
		return &Rejection{Reason: InvalidTarget, Msg: "the cell was acquired meanwhile", Commit: true}
	}
	if p.IsFrozen {
		return reject(Frozen, "mortgage something to cover your debt first")
	}
	if amount <= a.CurrentBid {
		return reject(InvalidTarget, "bid must be above $%d", a.CurrentBid)
	}
	if p.Money < amount {
		return reject(InsufficientFunds, "you have $%d", p.Money)
	}
	a.CurrentBid = amount
	a.CurrentBidderId = p.PlayerId
	a.Bids = append(a.Bids, models.Bid{PlayerId: p.PlayerId, Amount: amount, Timestamp: t.now})
	t.log(p.PlayerId, "%s bids $%d", name(p), amount)
	t.emit(EventAuctionBid, a)
	return nil
}

func (t *tx) auctionTimeout(id string) error {
	a := t.room.ActiveAuction
	if a == nil || a.Id != id {
		return reject(AlreadyResolved, "auction %s is not running", id)
	}
	t.room.ActiveAuction = nil
	a.Status = models.AuctionCompleted
	tile := t.Catalog.Tile(a.CellId)

	winner := t.room.Player(a.CurrentBidderId)
	switch {
	case winner == nil:
		t.log("", "no bids for %s, it stays with the bank", tile.Name)
	case winner.Bankrupt || winner.Money < a.CurrentBid:
		t.log(winner.PlayerId, "%s cannot pay $%d, %s stays with the bank", name(winner), a.CurrentBid, tile.Name)
	case t.room.Cell(a.CellId) != nil && t.room.Cell(a.CellId).OwnerId != "":
		a.Status = models.AuctionCancelled
		t.log("", "auction for %s cancelled, the cell was acquired", tile.Name)
	default:
		winner.Money -= a.CurrentBid
		t.room.Cells[a.CellId] = economy.NewCellState(tile, winner.PlayerId)
		economy.RecomputeRents(t.room.Cells, t.Catalog)
		t.log(winner.PlayerId, "%s wins %s for $%d", name(winner), tile.Name, a.CurrentBid)
	}
	t.emit(EventAuctionEnd, a)
	return t.maybeEndTurn()
}
