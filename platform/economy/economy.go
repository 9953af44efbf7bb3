package economy

import (
	"errors"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
)

const (
	MaxHouses = 4
	MaxHotels = 3

	TaxFlat    = 50
	TaxPercent = 10

	houseBonusPercent = 40
	hotelBonusPercent = 50
)

type BuildKind string

const (
	House BuildKind = "house"
	Hotel BuildKind = "hotel"
)

var (
	ErrNotBuildable = errors.New("cell cannot carry buildings")
	ErrNotOwner     = errors.New("cell is not yours")
	ErrNoMonopoly   = errors.New("the whole colour group is needed")
	ErrMortgaged    = errors.New("cell or group is mortgaged")
	ErrUneven       = errors.New("build evenly across the group")
	ErrMaxBuildings = errors.New("no more buildings fit on this cell")
	ErrNeedHouses   = errors.New("a hotel needs four houses first")
)

// NewCellState is the state a tile gets when it is first acquired.
func NewCellState(tile models.Property, ownerId string) *models.CellState {
	return &models.CellState{
		Id:          tile.Posistion,
		OwnerId:     ownerId,
		BaseRent:    tile.Rent,
		CurrentRent: tile.Rent,
		HousePrice:  tile.HouseCost,
		HotelPrice:  tile.HotelCost,
	}
}

// HasMonopoly reports whether ownerId holds every tile of the group.
func HasMonopoly(cells map[int]*models.CellState, cat *board.Catalog, ownerId, group string) bool {
	ids := cat.Group(group)
	if ownerId == "" || len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		c, ok := cells[id]
		if !ok || c.OwnerId != ownerId {
			return false
		}
	}
	return true
}

// Monopolies lists the colour groups fully held by ownerId.
func Monopolies(cells map[int]*models.CellState, cat *board.Catalog, ownerId string) []string {
	var out []string
	for _, g := range cat.ColorGroups() {
		if HasMonopoly(cells, cat, ownerId, g) {
			out = append(out, g)
		}
	}
	return out
}

func ownedCount(cells map[int]*models.CellState, ownerId string, ids []int) int {
	n := 0
	for _, id := range ids {
		if c, ok := cells[id]; ok && c.OwnerId == ownerId {
			n++
		}
	}
	return n
}

// RentFor computes what a visitor owes on cell.
func RentFor(cell *models.CellState, cells map[int]*models.CellState, cat *board.Catalog) int {
	if cell == nil || cell.OwnerId == "" {
		return 0
	}
	tile := cat.Tile(cell.Id)
	base := cell.BaseRent
	switch tile.Type {
	case models.TileRailroad:
		return base * ownedCount(cells, cell.OwnerId, cat.Railroads())
	case models.TileUtility:
		return base
	case models.TileProperty:
		if cell.Houses == 0 && cell.Hotels == 0 {
			if HasMonopoly(cells, cat, cell.OwnerId, tile.Group) {
				return base * 3 / 2
			}
			return base
		}
		hotels := cell.Hotels
		if hotels > MaxHotels {
			hotels = MaxHotels
		}
		return base + base*houseBonusPercent*cell.Houses/100 + base*hotelBonusPercent*hotels/100
	}
	return base
}

// RecomputeRents refreshes CurrentRent on every cell. Call it after any
// change of ownership or buildings.
func RecomputeRents(cells map[int]*models.CellState, cat *board.Catalog) {
	for _, c := range cells {
		if c.OwnerId == "" {
			c.CurrentRent = c.BaseRent
			continue
		}
		c.CurrentRent = RentFor(c, cells, cat)
	}
}

// CanBuild checks whether playerId may add one building of kind on cellId.
func CanBuild(cells map[int]*models.CellState, cat *board.Catalog, playerId string, cellId int, kind BuildKind) error {
	tile := cat.Tile(cellId)
	if tile.Type != models.TileProperty {
		return ErrNotBuildable
	}
	cell, ok := cells[cellId]
	if !ok || cell.OwnerId != playerId {
		return ErrNotOwner
	}
	if !HasMonopoly(cells, cat, playerId, tile.Group) {
		return ErrNoMonopoly
	}
	group := cat.Group(tile.Group)
	minHouses := MaxHouses
	for _, id := range group {
		c := cells[id]
		if c.Mortgaged {
			return ErrMortgaged
		}
		if c.Houses < minHouses {
			minHouses = c.Houses
		}
	}
	switch kind {
	case Hotel:
		if cell.Houses < MaxHouses {
			return ErrNeedHouses
		}
		if cell.Hotels >= MaxHotels {
			return ErrMaxBuildings
		}
	default:
		if cell.Houses >= MaxHouses {
			return ErrMaxBuildings
		}
		if cell.Houses > minHouses {
			return ErrUneven
		}
	}
	return nil
}

// CanBuildHouse is CanBuild for a single house.
func CanBuildHouse(cells map[int]*models.CellState, cat *board.Catalog, playerId string, cellId int) bool {
	return CanBuild(cells, cat, playerId, cellId, House) == nil
}

func BuildCost(tile models.Property, kind BuildKind) int {
	if kind == Hotel {
		return tile.HotelCost
	}
	return tile.HouseCost
}

// TaxOwed is the flat tax plus a share of positive money.
func TaxOwed(money int) int {
	if money <= 0 {
		return TaxFlat
	}
	return money*TaxPercent/100 + TaxFlat
}

func MortgageValue(price int) int {
	return price / 2
}

func UnmortgageCost(price int) int {
	return MortgageValue(price) * 11 / 10
}

// BuildingRefund is what the bank pays back when the buildings on a cell are
// sold, half of their cost.
func BuildingRefund(cell *models.CellState) int {
	return (cell.Houses*cell.HousePrice + cell.Hotels*cell.HotelPrice) / 2
}

// BrokenMonopolyCells returns cells that carry buildings although their
// owner no longer holds the whole group.
func BrokenMonopolyCells(cells map[int]*models.CellState, cat *board.Catalog) []int {
	var out []int
	for id := 0; id < board.Size; id++ {
		c, ok := cells[id]
		if !ok || (c.Houses == 0 && c.Hotels == 0) {
			continue
		}
		if !HasMonopoly(cells, cat, c.OwnerId, cat.Tile(id).Group) {
			out = append(out, id)
		}
	}
	return out
}
