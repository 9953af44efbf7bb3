package game

import (
	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/economy"
)

func (t *tx) ownCell(p *models.Participant, cellId int) (*models.CellState, error) {
	cell := t.room.Cell(cellId)
	if cell == nil || cell.OwnerId != p.PlayerId {
		return nil, reject(InvalidTarget, "cell %d is not yours", cellId)
	}
	return cell, nil
}

// mortgage is allowed on your turn, while you owe rent, or while frozen.
// Buildings in the group are sold back to the bank at half price first.
func (t *tx) mortgage(actor Actor, cellId int) error {
	if err := t.playing(); err != nil {
		return err
	}
	p, err := t.alive(actor)
	if err != nil {
		return err
	}
	cell, err := t.ownCell(p, cellId)
	if err != nil {
		return err
	}
	if cell.Mortgaged {
		return reject(AlreadyResolved, "cell %d is already mortgaged", cellId)
	}
	paying := t.room.CurrentPayment != nil && t.room.CurrentPayment.PayerId == p.PlayerId
	if t.room.CurrentTurnPlayerId != p.PlayerId && !paying && !p.IsFrozen {
		return reject(NotYourTurn, "you can only mortgage on your turn")
	}
	if p.Jailed && !p.IsFrozen {
		return reject(Blocked, "you are in jail")
	}

	tile := t.Catalog.Tile(cellId)
	refund := 0
	if tile.Type == models.TileProperty {
		for _, id := range t.Catalog.Group(tile.Group) {
			if c := t.room.Cell(id); c != nil && c.OwnerId == p.PlayerId {
				refund += economy.BuildingRefund(c)
				c.Houses, c.Hotels = 0, 0
			}
		}
	}
	value := economy.MortgageValue(tile.Price)
	p.Money += value + refund
	cell.Mortgaged = true
	economy.RecomputeRents(t.room.Cells, t.Catalog)
	if refund > 0 {
		t.log(p.PlayerId, "%s sold buildings for $%d", name(p), refund)
	}
	t.log(p.PlayerId, "%s mortgaged %s for $%d", name(p), tile.Name, value)

	if err := t.settle(p); err != nil {
		return err
	}
	if t.room.Status == models.StatusFinished {
		return nil
	}
	return t.maybeEndTurn()
}

func (t *tx) unmortgage(actor Actor, cellId int) error {
	p, err := t.onTurn(actor)
	if err != nil {
		return err
	}
	cell, err := t.ownCell(p, cellId)
	if err != nil {
		return err
	}
	if !cell.Mortgaged {
		return reject(AlreadyResolved, "cell %d is not mortgaged", cellId)
	}
	if p.IsFrozen {
		return reject(Frozen, "settle your debt first")
	}
	tile := t.Catalog.Tile(cellId)
	cost := economy.UnmortgageCost(tile.Price)
	if p.Money < cost {
		return reject(InsufficientFunds, "lifting the mortgage costs $%d", cost)
	}
	if owed := t.rentOwed(p); p.Money-cost < owed {
		return reject(InsufficientFunds, "pay the $%d rent first", owed)
	}
	p.Money -= cost
	cell.Mortgaged = false
	economy.RecomputeRents(t.room.Cells, t.Catalog)
	t.log(p.PlayerId, "%s lifted the mortgage on %s for $%d", name(p), tile.Name, cost)
	return nil
}

func (t *tx) build(actor Actor, c Build) error {
	p, err := t.onTurn(actor)
	if err != nil {
		return err
	}
	if p.IsFrozen {
		return reject(Frozen, "settle your debt first")
	}
	kind := economy.House
	if c.Hotel {
		kind = economy.Hotel
	}
	if err := economy.CanBuild(t.room.Cells, t.Catalog, p.PlayerId, c.CellId, kind); err != nil {
		return reject(InvalidTarget, "%v", err)
	}
	tile := t.Catalog.Tile(c.CellId)
	cost := economy.BuildCost(tile, kind)
	if p.Money < cost {
		return reject(InsufficientFunds, "a %s on %s costs $%d", kind, tile.Name, cost)
	}
	if owed := t.rentOwed(p); p.Money-cost < owed {
		return reject(InsufficientFunds, "pay the $%d rent first", owed)
	}
	p.Money -= cost
	cell := t.room.Cells[c.CellId]
	if kind == economy.Hotel {
		cell.Hotels++
	} else {
		cell.Houses++
	}
	economy.RecomputeRents(t.room.Cells, t.Catalog)
	t.log(p.PlayerId, "%s built a %s on %s", name(p), kind, tile.Name)
	return nil
}
