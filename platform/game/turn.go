package game

import (
	"fmt"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
	"github.com/DedS3t/monopoly-engine/platform/economy"
)

// advanceTurn returns the next non-bankrupt participant after from in seat
// order. ok is false when nobody else is left.
func advanceTurn(room *models.Room, from string) (string, bool) {
	n := len(room.Players)
	start := -1
	for i, p := range room.Players {
		if p.PlayerId == from {
			start = i
			break
		}
	}
	for i := 1; i <= n; i++ {
		p := room.Players[(start+i+n)%n]
		if p.PlayerId != from && !p.Bankrupt {
			return p.PlayerId, true
		}
	}
	return "", false
}

func (t *tx) roll(actor Actor) error {
	p, err := t.onTurn(actor)
	if err != nil {
		return err
	}
	r := t.room
	switch {
	case p.IsFrozen:
		return reject(Frozen, "mortgage something to cover your debt first")
	case p.Jailed:
		return reject(Blocked, "you are in jail, choose a jail action")
	case r.CurrentPayment != nil:
		return reject(Blocked, "rent on cell %d is unpaid", r.CurrentPayment.CellId)
	case r.PendingChance != nil:
		return reject(Blocked, "confirm the chance card first")
	case r.ActiveAuction != nil:
		return reject(Blocked, "an auction is running")
	case r.ActiveTrade != nil:
		return reject(Blocked, "a trade is pending")
	case p.HasRolled && r.ComboTurn == 0:
		return reject(AlreadyResolved, "you have already rolled the dice")
	}
	if p.PendingAction != nil {
		if r.ComboTurn == 0 {
			return reject(Blocked, "answer the pending decision first")
		}
		// extra roll after a double: the open decision lapses
		p.PendingAction = nil
	}

	if r.Status == models.StatusStarting {
		r.Status = models.StatusInProgress
	}
	r.AuctionEligible = nil

	d1, d2 := t.Dice.Roll()
	t.emit(EventDice, DiceRoll{PlayerId: p.PlayerId, Dice1: d1, Dice2: d2})
	t.log(p.PlayerId, "%s rolled %d and %d", name(p), d1, d2)
	p.HasRolled = true

	if d1 == d2 {
		r.ComboTurn++
		if r.ComboTurn >= t.Rules.MaxCombo {
			t.log(p.PlayerId, "%s rolled %d doubles in a row and goes to jail", name(p), r.ComboTurn)
			jail(p)
			r.ComboTurn = 0
			return t.passTurn()
		}
	} else {
		r.ComboTurn = 0
	}

	t.move(p, d1+d2)
	if err := t.land(p); err != nil {
		return err
	}
	return t.maybeEndTurn()
}

func (t *tx) move(p *models.Participant, steps int) {
	next := p.Position + steps
	if next >= board.Size {
		p.Money += t.Rules.StartBonus
		t.log(p.PlayerId, "%s passed Start and collects $%d", name(p), t.Rules.StartBonus)
	}
	p.Position = next % board.Size
}

// land resolves the tile p just moved onto.
func (t *tx) land(p *models.Participant) error {
	tile := t.Catalog.Tile(p.Position)
	switch {
	case p.Position == board.GoToJailCell:
		t.goToJail(p)
	case tile.Type == models.TileTax:
		tax := economy.TaxOwed(p.Money)
		p.Money -= tax
		t.log(p.PlayerId, "%s pays $%d tax", name(p), tax)
		return t.settle(p)
	case tile.Type == models.TileChance:
		card := board.Draw(t.Rand)
		t.room.PendingChance = &models.PendingChance{PlayerId: p.PlayerId, CardId: card.Id, Text: card.Info}
		t.emit(EventChance, t.room.PendingChance)
	case tile.Ownable():
		cell := t.room.Cell(p.Position)
		switch {
		case cell == nil || cell.OwnerId == "":
			t.offerBuy(p, p.Position)
		case cell.OwnerId == p.PlayerId || cell.Mortgaged:
		default:
			return t.chargeRent(p, cell)
		}
	}
	return nil
}

func jail(p *models.Participant) {
	p.Position = board.JailCell
	p.Jailed = true
	p.JailTurns = 0
	p.PendingAction = nil
}

func release(p *models.Participant) {
	p.Jailed = false
	p.JailTurns = 0
	p.PendingAction = nil
}

func (t *tx) goToJail(p *models.Participant) {
	t.room.ComboTurn = 0
	if p.HasJailFreeCard {
		p.HasJailFreeCard = false
		t.log(p.PlayerId, "%s uses a get out of jail free card", name(p))
		return
	}
	jail(p)
	t.log(p.PlayerId, "%s goes to jail", name(p))
}

func (t *tx) chargeRent(p *models.Participant, cell *models.CellState) error {
	owner := t.room.Player(cell.OwnerId)
	if p.SkipRentTurns > 0 {
		p.SkipRentTurns--
		t.log(p.PlayerId, "%s skips rent on %s", name(p), t.Catalog.Tile(cell.Id).Name)
		return nil
	}
	if owner == nil || owner.Bankrupt || owner.Jailed {
		return nil
	}
	rent := economy.RentFor(cell, t.room.Cells, t.Catalog)
	cell.CurrentRent = rent
	t.room.CurrentPayment = &models.CurrentPayment{
		PayerId: p.PlayerId,
		OwnerId: owner.PlayerId,
		CellId:  cell.Id,
		Rent:    rent,
	}
	t.log(p.PlayerId, "%s owes %s $%d for %s", name(p), name(owner), rent, t.Catalog.Tile(cell.Id).Name)
	return t.settle(p)
}

func (t *tx) payRent(actor Actor) error {
	if err := t.playing(); err != nil {
		return err
	}
	p, err := t.alive(actor)
	if err != nil {
		return err
	}
	cp := t.room.CurrentPayment
	if cp == nil {
		return reject(AlreadyResolved, "no rent is due")
	}
	if cp.PayerId != p.PlayerId {
		return reject(NotYourTurn, "rent is owed by %s", cp.PayerId)
	}
	if p.Money < cp.Rent {
		return reject(InsufficientFunds, "rent is $%d, you have $%d", cp.Rent, p.Money)
	}
	p.Money -= cp.Rent
	if owner := t.room.Player(cp.OwnerId); owner != nil {
		owner.Money += cp.Rent
	}
	t.room.CurrentPayment = nil
	p.IsFrozen = false
	t.log(p.PlayerId, "%s paid $%d rent", name(p), cp.Rent)
	return t.maybeEndTurn()
}

// passTurn hands the turn to the next live participant.
func (t *tx) passTurn() error {
	r := t.room
	if cur := r.Player(r.CurrentTurnPlayerId); cur != nil {
		cur.HasRolled = false
	}
	next, ok := advanceTurn(r, r.CurrentTurnPlayerId)
	if !ok {
		return fmt.Errorf("%w: no player can take the turn after %s", ErrInvariant, r.CurrentTurnPlayerId)
	}
	r.CurrentTurnPlayerId = next
	r.ComboTurn = 0
	np := r.Player(next)
	np.HasRolled = false
	t.log(np.PlayerId, "%s's turn", name(np))
	if np.Jailed {
		np.PendingAction = &models.PendingAction{
			Type:      models.PendingJailChoice,
			CellId:    board.JailCell,
			ExpiresAt: t.now.Add(t.Rules.DecisionTimeout),
			Token:     t.token(),
		}
		t.emit(EventDecision, decisionPayload(np))
	}
	return nil
}

// maybeEndTurn passes the turn once the current player has rolled and
// nothing is left to resolve.
func (t *tx) maybeEndTurn() error {
	r := t.room
	if r.Status != models.StatusInProgress {
		return nil
	}
	p := r.Player(r.CurrentTurnPlayerId)
	if p == nil {
		return fmt.Errorf("%w: turn holder %s is not seated", ErrInvariant, r.CurrentTurnPlayerId)
	}
	if !p.HasRolled || r.ComboTurn > 0 || p.PendingAction != nil || p.IsFrozen ||
		r.PendingChance != nil || r.CurrentPayment != nil {
		return nil
	}
	return t.passTurn()
}

func (t *tx) jailAction(actor Actor, choice JailChoice) error {
	p, err := t.onTurn(actor)
	if err != nil {
		return err
	}
	if !p.Jailed {
		return reject(InvalidTarget, "you are not in jail")
	}
	if p.PendingAction == nil || p.PendingAction.Type != models.PendingJailChoice {
		return reject(AlreadyResolved, "jail choice already made")
	}
	if choice == JailPay || choice == JailRoll {
		switch {
		case t.room.ActiveAuction != nil:
			return reject(Blocked, "an auction is running")
		case t.room.ActiveTrade != nil:
			return reject(Blocked, "a trade is pending")
		}
	}
	switch choice {
	case JailPay:
		if p.IsFrozen {
			return reject(Frozen, "mortgage something to cover your debt first")
		}
		if p.Money < t.Rules.JailFee {
			return reject(InsufficientFunds, "the fee is $%d", t.Rules.JailFee)
		}
		p.Money -= t.Rules.JailFee
		release(p)
		t.log(p.PlayerId, "%s paid $%d to leave jail", name(p), t.Rules.JailFee)
		return nil
	case JailRoll:
		d1, d2 := t.Dice.Roll()
		t.emit(EventDice, DiceRoll{PlayerId: p.PlayerId, Dice1: d1, Dice2: d2})
		if d1 == d2 {
			release(p)
			t.log(p.PlayerId, "%s rolled a double and leaves jail", name(p))
			return nil
		}
		t.log(p.PlayerId, "%s rolled %d and %d and stays in jail", name(p), d1, d2)
		return t.serveJailTurn(p)
	case JailWait:
		return t.serveJailTurn(p)
	}
	return reject(InvalidTarget, "unknown jail choice %q", choice)
}

// serveJailTurn spends one turn in jail and passes the turn.
func (t *tx) serveJailTurn(p *models.Participant) error {
	p.PendingAction = nil
	p.JailTurns++
	if p.JailTurns >= t.Rules.MaxJailTurns {
		release(p)
		t.log(p.PlayerId, "%s served %d turns and is released", name(p), t.Rules.MaxJailTurns)
	} else {
		t.log(p.PlayerId, "%s waits in jail (%d/%d)", name(p), p.JailTurns, t.Rules.MaxJailTurns)
	}
	return t.passTurn()
}

func (t *tx) confirmChance(actor Actor) error {
	if err := t.playing(); err != nil {
		return err
	}
	p, err := t.alive(actor)
	if err != nil {
		return err
	}
	pc := t.room.PendingChance
	if pc == nil {
		return reject(AlreadyResolved, "no chance card is waiting")
	}
	if pc.PlayerId != p.PlayerId {
		return reject(NotYourTurn, "the card belongs to %s", pc.PlayerId)
	}
	card, ok := board.CardById(pc.CardId)
	if !ok {
		return fmt.Errorf("%w: unknown chance card %d", ErrInvariant, pc.CardId)
	}
	t.room.PendingChance = nil
	wasJailed := p.Jailed
	card.Effect(&board.CardContext{
		Room:    t.room,
		Player:  p,
		Rand:    t.Rand,
		Catalog: t.Catalog,
		Buildable: func(cellId int) bool {
			return economy.CanBuildHouse(t.room.Cells, t.Catalog, p.PlayerId, cellId)
		},
	})
	t.log(p.PlayerId, "%s: %s", name(p), card.Info)
	economy.RecomputeRents(t.room.Cells, t.Catalog)
	if p.Jailed && !wasJailed {
		t.room.ComboTurn = 0
		p.PendingAction = nil
	}
	for _, other := range t.room.Alive() {
		if t.room.Status == models.StatusFinished {
			return nil
		}
		if other.Money < 0 || other.IsFrozen {
			if err := t.settle(other); err != nil {
				return err
			}
		}
	}
	if t.room.Status == models.StatusFinished {
		return nil
	}
	return t.maybeEndTurn()
}
