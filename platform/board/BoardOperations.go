package board

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/DedS3t/monopoly-engine/app/models"
)

const (
	Size         = 40
	StartCell    = 0
	JailCell     = 10
	ParkingCell  = 20
	GoToJailCell = 30

	RailroadGroup = "railroad"
	UtilityGroup  = "utility"
)

//go:embed properties.json
var propertiesJSON []byte

// Catalog is the immutable board layout. It is safe for concurrent use.
type Catalog struct {
	tiles  [Size]models.Property
	groups map[string][]int
}

// Default is the board every room plays on.
var Default = mustLoad()

func mustLoad() *Catalog {
	properties, err := LoadProperties()
	if err != nil {
		panic(err)
	}
	c, err := NewCatalog(properties)
	if err != nil {
		panic(err)
	}
	return c
}

func LoadProperties() ([]models.Property, error) {
	var properties []models.Property
	if err := json.Unmarshal(propertiesJSON, &properties); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	return properties, nil
}

// NewCatalog indexes a full 40-tile layout by position and colour group.
func NewCatalog(properties []models.Property) (*Catalog, error) {
	if len(properties) != Size {
		return nil, fmt.Errorf("board needs %d tiles, got %d", Size, len(properties))
	}
	c := &Catalog{groups: make(map[string][]int)}
	seen := make(map[int]bool, Size)
	for _, p := range properties {
		if p.Posistion < 0 || p.Posistion >= Size || seen[p.Posistion] {
			return nil, fmt.Errorf("bad tile position %d", p.Posistion)
		}
		seen[p.Posistion] = true
		c.tiles[p.Posistion] = p
	}
	for pos := 0; pos < Size; pos++ {
		if g := c.tiles[pos].Group; g != "" {
			c.groups[g] = append(c.groups[g], pos)
		}
	}
	return c, nil
}

func (c *Catalog) Tile(pos int) models.Property {
	return c.tiles[((pos%Size)+Size)%Size]
}

// Group returns the tile ids of a colour group in board order.
func (c *Catalog) Group(name string) []int {
	return c.groups[name]
}

// ColorGroups lists the buildable colour groups.
func (c *Catalog) ColorGroups() []string {
	var names []string
	seen := map[string]bool{}
	for pos := 0; pos < Size; pos++ {
		t := c.tiles[pos]
		if t.Type == models.TileProperty && !seen[t.Group] {
			seen[t.Group] = true
			names = append(names, t.Group)
		}
	}
	return names
}

func (c *Catalog) Railroads() []int {
	return c.groups[RailroadGroup]
}

// OfType returns every position holding a tile of the given type.
func (c *Catalog) OfType(t models.TileType) []int {
	var out []int
	for pos := 0; pos < Size; pos++ {
		if c.tiles[pos].Type == t {
			out = append(out, pos)
		}
	}
	return out
}
