package models

type TileType string

const (
	TileCorner   TileType = "CORNER"
	TileProperty TileType = "PROPERTY"
	TileRailroad TileType = "RAILROAD"
	TileUtility  TileType = "UTILITY"
	TileChance   TileType = "CHANCE"
	TileTax      TileType = "TAX"
)

type Property struct {
	Name        string   `json:"name"`
	Type        TileType `json:"type"`
	Group       string   `json:"group"`
	Posistion   int      `json:"posistion"`
	Price       int      `json:"price"`
	Rent        int      `json:"rent"`
	HouseCost   int      `json:"housecost"`
	HotelCost   int      `json:"hotelcost"`
	Purchasable bool     `json:"purchasable"`
}

// Ownable reports whether the tile can carry a CellState.
func (p Property) Ownable() bool {
	return p.Purchasable && p.Price > 0
}

type ChanceKind string

const (
	ChanceMoney ChanceKind = "money"
	ChanceMove  ChanceKind = "move"
	ChanceJail  ChanceKind = "jail"
	ChanceMisc  ChanceKind = "misc"
)

type Special struct {
	Id   int        `json:"id"`
	Info string     `json:"info"`
	Kind ChanceKind `json:"kind"`
}
