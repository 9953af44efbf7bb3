package board

import "github.com/DedS3t/monopoly-engine/app/models"

// Rand is the slice of math/rand the deck needs.
type Rand interface {
	Intn(n int) int
}

// CardContext is what a chance effect may touch.
type CardContext struct {
	Room    *models.Room
	Player  *models.Participant
	Rand    Rand
	Catalog *Catalog
	// Buildable reports whether a free house may go on the cell.
	Buildable func(cellId int) bool
}

type Card struct {
	models.Special
	Effect func(ctx *CardContext)
}

const (
	repairPerCell  = 25
	bonusPerCell   = 50
	skipRentTurns  = 3
	moveStep       = 3
	everybodyPays  = 20
	collectEach    = 50
	holidayEach    = 10
	startCardBonus = 200
)

var Deck = []Card{
	{models.Special{Id: 0, Info: "Receive $100 from the bank", Kind: models.ChanceMoney}, func(ctx *CardContext) {
		ctx.Player.Money += 100
	}},
	{models.Special{Id: 1, Info: "Bank error in your favour, collect $200", Kind: models.ChanceMoney}, func(ctx *CardContext) {
		ctx.Player.Money += 200
	}},
	{models.Special{Id: 2, Info: "Pay an insurance fee of $50", Kind: models.ChanceMoney}, func(ctx *CardContext) {
		ctx.Player.Money -= 50
	}},
	{models.Special{Id: 3, Info: "Property repairs: pay $25 for every cell you own", Kind: models.ChanceMoney}, func(ctx *CardContext) {
		ctx.Player.Money -= repairPerCell * len(ctx.Room.OwnedBy(ctx.Player.PlayerId))
	}},
	{models.Special{Id: 4, Info: "Advance to Start and collect $200", Kind: models.ChanceMove}, func(ctx *CardContext) {
		ctx.Player.Position = StartCell
		ctx.Player.Money += startCardBonus
	}},
	{models.Special{Id: 5, Info: "Move forward 3 cells", Kind: models.ChanceMove}, func(ctx *CardContext) {
		ctx.Player.Position = (ctx.Player.Position + moveStep) % Size
	}},
	{models.Special{Id: 6, Info: "Go back 3 cells", Kind: models.ChanceMove}, func(ctx *CardContext) {
		ctx.Player.Position = (ctx.Player.Position - moveStep + Size) % Size
		if ctx.Player.Position == GoToJailCell {
			ctx.Player.Position = JailCell
		}
	}},
	{models.Special{Id: 7, Info: "Go directly to jail, do not pass Start", Kind: models.ChanceJail}, func(ctx *CardContext) {
		SendToJail(ctx.Player)
	}},
	{models.Special{Id: 8, Info: "Get out of jail free, keep this card until needed", Kind: models.ChanceMisc}, func(ctx *CardContext) {
		ctx.Player.HasJailFreeCard = true
	}},
	{models.Special{Id: 9, Info: "Collect $50 from every player", Kind: models.ChanceMoney}, func(ctx *CardContext) {
		collectFromOthers(ctx, collectEach)
	}},
	{models.Special{Id: 10, Info: "Receive $50 for every cell you own", Kind: models.ChanceMoney}, func(ctx *CardContext) {
		ctx.Player.Money += bonusPerCell * len(ctx.Room.OwnedBy(ctx.Player.PlayerId))
	}},
	{models.Special{Id: 11, Info: "Every player pays $20 to the bank", Kind: models.ChanceMoney}, func(ctx *CardContext) {
		for _, p := range ctx.Room.Alive() {
			p.Money -= everybodyPays
		}
	}},
	{models.Special{Id: 12, Info: "Advance to the nearest railroad", Kind: models.ChanceMove}, func(ctx *CardContext) {
		ctx.Player.Position = nextForward(ctx.Catalog.Railroads(), ctx.Player.Position)
	}},
	{models.Special{Id: 13, Info: "Go back to the nearest tax cell", Kind: models.ChanceMove}, func(ctx *CardContext) {
		ctx.Player.Position = nearest(ctx.Catalog.OfType(models.TileTax), ctx.Player.Position)
	}},
	{models.Special{Id: 14, Info: "Swap places with another player", Kind: models.ChanceMove}, func(ctx *CardContext) {
		var others []*models.Participant
		for _, p := range ctx.Room.Alive() {
			if p.PlayerId != ctx.Player.PlayerId && !p.Jailed {
				others = append(others, p)
			}
		}
		if len(others) == 0 {
			return
		}
		target := others[ctx.Rand.Intn(len(others))]
		ctx.Player.Position, target.Position = target.Position, ctx.Player.Position
	}},
	{models.Special{Id: 15, Info: "Lucky break: skip paying rent for 3 turns", Kind: models.ChanceMisc}, func(ctx *CardContext) {
		ctx.Player.SkipRentTurns = skipRentTurns
	}},
	{models.Special{Id: 16, Info: "Receive a free house on one of your cells", Kind: models.ChanceMisc}, func(ctx *CardContext) {
		var candidates []*models.CellState
		for _, c := range ctx.Room.OwnedBy(ctx.Player.PlayerId) {
			if ctx.Buildable != nil && ctx.Buildable(c.Id) {
				candidates = append(candidates, c)
			}
		}
		if len(candidates) == 0 {
			return
		}
		candidates[ctx.Rand.Intn(len(candidates))].Houses++
	}},
	{models.Special{Id: 18, Info: "Holiday: collect $10 from every player", Kind: models.ChanceMoney}, func(ctx *CardContext) {
		collectFromOthers(ctx, holidayEach)
	}},
}

func CardById(id int) (Card, bool) {
	for _, c := range Deck {
		if c.Id == id {
			return c, true
		}
	}
	return Card{}, false
}

func Draw(r Rand) Card {
	return Deck[r.Intn(len(Deck))]
}

// SendToJail moves p to jail unless a jail-free card absorbs it.
func SendToJail(p *models.Participant) {
	if p.HasJailFreeCard {
		p.HasJailFreeCard = false
		return
	}
	p.Position = JailCell
	p.Jailed = true
	p.JailTurns = 0
}

func collectFromOthers(ctx *CardContext, each int) {
	for _, p := range ctx.Room.Alive() {
		if p.PlayerId == ctx.Player.PlayerId {
			continue
		}
		p.Money -= each
		ctx.Player.Money += each
	}
}

func nextForward(cells []int, from int) int {
	for _, c := range cells {
		if c > from {
			return c
		}
	}
	return cells[0]
}

func nearest(cells []int, from int) int {
	best, bestDist := cells[0], Size
	for _, c := range cells {
		forward := (c - from + Size) % Size
		backward := (from - c + Size) % Size
		d := forward
		if backward < d {
			d = backward
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
