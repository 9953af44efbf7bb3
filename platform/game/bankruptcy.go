package game

import (
	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/economy"
)

// settle runs after p's money dropped or p liquidated something. A player
// short of money is frozen while they still hold an unmortgaged tile and
// goes bankrupt once they do not.
func (t *tx) settle(p *models.Participant) error {
	if p.Bankrupt {
		return nil
	}
	obligation := t.rentOwed(p)
	if p.Money >= obligation {
		if p.IsFrozen {
			p.IsFrozen = false
			t.log(p.PlayerId, "%s is solvent again", name(p))
		}
		return nil
	}
	for _, c := range t.room.OwnedBy(p.PlayerId) {
		if !c.Mortgaged {
			if !p.IsFrozen {
				p.IsFrozen = true
				t.log(p.PlayerId, "%s must mortgage property to cover $%d", name(p), obligation-p.Money)
			}
			return nil
		}
	}
	return t.bankrupt(p)
}

// rentOwed is the open rent p has to pay, zero when p owes nothing.
func (t *tx) rentOwed(p *models.Participant) int {
	if cp := t.room.CurrentPayment; cp != nil && cp.PayerId == p.PlayerId {
		return cp.Rent
	}
	return 0
}

func (t *tx) bankrupt(p *models.Participant) error {
	r := t.room
	creditor := ""
	if cp := r.CurrentPayment; cp != nil && cp.PayerId == p.PlayerId {
		creditor = cp.OwnerId
		r.CurrentPayment = nil
	}
	heir := r.Player(creditor)
	if t.Rules.BankruptcyPolicy != BankruptcyTransfer || heir == nil || heir.Bankrupt {
		heir = nil
	}

	for _, c := range r.OwnedBy(p.PlayerId) {
		if heir != nil {
			hand(c, heir.PlayerId)
			continue
		}
		delete(r.Cells, c.Id)
	}
	if heir != nil && p.Money > 0 {
		heir.Money += p.Money
	}
	for _, id := range economy.BrokenMonopolyCells(r.Cells, t.Catalog) {
		r.Cells[id].Houses, r.Cells[id].Hotels = 0, 0
	}
	economy.RecomputeRents(r.Cells, t.Catalog)

	p.Bankrupt = true
	p.Money = 0
	p.IsFrozen = false
	p.Jailed = false
	p.PendingAction = nil
	p.HasRolled = false
	if r.PendingChance != nil && r.PendingChance.PlayerId == p.PlayerId {
		r.PendingChance = nil
	}
	if r.AuctionEligible != nil && r.AuctionEligible.PlayerId == p.PlayerId {
		r.AuctionEligible = nil
	}
	if tr := r.ActiveTrade; tr != nil && (tr.FromPlayerId == p.PlayerId || tr.ToPlayerId == p.PlayerId) {
		tr.Status = models.TradeCancelled
		r.ActiveTrade = nil
		t.emit(EventTradeUpdate, tr)
	}
	if heir != nil {
		t.log(p.PlayerId, "%s is bankrupt, their property goes to %s", name(p), name(heir))
	} else {
		t.log(p.PlayerId, "%s is bankrupt and leaves the game", name(p))
	}

	alive := r.Alive()
	if len(alive) == 1 {
		t.finish(alive[0])
		return nil
	}
	if r.CurrentTurnPlayerId == p.PlayerId {
		return t.passTurn()
	}
	return nil
}

func (t *tx) finish(winner *models.Participant) {
	r := t.room
	clearTransient(r)
	r.Status = models.StatusFinished
	r.WinnerId = winner.PlayerId
	r.ComboTurn = 0
	for _, p := range r.Players {
		res := Result{
			PlayerId:   p.PlayerId,
			Outcome:    OutcomeLose,
			FinalMoney: p.Money,
			XP:         t.Rules.XPLose,
			Elo:        -t.Rules.EloLoss,
			JoinedAt:   p.JoinedAt,
			Left:       p.Disconnected,
		}
		if p.PlayerId == winner.PlayerId {
			res.Outcome = OutcomeWin
			res.XP = t.Rules.XPWin
			res.Elo = t.Rules.EloWin
		}
		t.out.Results = append(t.out.Results, res)
	}
	t.log(winner.PlayerId, "%s wins the game", name(winner))
	t.emit(EventGameOver, map[string]string{"winnerId": winner.PlayerId})
}
