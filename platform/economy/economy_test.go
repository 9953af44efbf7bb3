package economy

import (
	"testing"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/board"
)

func own(cells map[int]*models.CellState, owner string, ids ...int) {
	for _, id := range ids {
		cells[id] = NewCellState(board.Default.Tile(id), owner)
	}
}

func TestMonopolyRent(t *testing.T) {
	cells := map[int]*models.CellState{}
	own(cells, "a", 1)
	cells[1].BaseRent = 20
	if got := RentFor(cells[1], cells, board.Default); got != 20 {
		t.Fatalf("single tile rent: got %d, want 20", got)
	}

	own(cells, "a", 3)
	cells[1].BaseRent = 20
	if got := RentFor(cells[1], cells, board.Default); got != 30 {
		t.Fatalf("monopoly rent: got %d, want 30", got)
	}

	cells[1].Houses = 1
	if got := RentFor(cells[1], cells, board.Default); got != 28 {
		t.Fatalf("one house: got %d, want 28", got)
	}
	cells[1].Houses = 4
	cells[1].Hotels = 2
	// 20 + floor(20*0.4*4) + floor(20*0.5*2)
	if got := RentFor(cells[1], cells, board.Default); got != 72 {
		t.Fatalf("houses and hotels: got %d, want 72", got)
	}
}

func TestRailroadRent(t *testing.T) {
	cells := map[int]*models.CellState{}
	for i, id := range board.Default.Railroads() {
		own(cells, "a", id)
		base := cells[id].BaseRent
		if got := RentFor(cells[id], cells, board.Default); got != base*(i+1) {
			t.Fatalf("%d railroads: got %d, want %d", i+1, got, base*(i+1))
		}
	}
}

func TestUtilityRentIsFlat(t *testing.T) {
	cells := map[int]*models.CellState{}
	own(cells, "a", 12, 28)
	if got, want := RentFor(cells[12], cells, board.Default), cells[12].BaseRent; got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestRecomputeRents(t *testing.T) {
	cells := map[int]*models.CellState{}
	own(cells, "a", 5, 15)
	own(cells, "b", 25)
	RecomputeRents(cells, board.Default)
	if cells[5].CurrentRent != 2*cells[5].BaseRent {
		t.Fatalf("railroad 5 rent %d", cells[5].CurrentRent)
	}
	if cells[25].CurrentRent != cells[25].BaseRent {
		t.Fatalf("railroad 25 rent %d", cells[25].CurrentRent)
	}
}

func TestCanBuild(t *testing.T) {
	cells := map[int]*models.CellState{}
	own(cells, "a", 6, 8)
	own(cells, "b", 9)

	tests := []struct {
		name  string
		setup func()
		cell  int
		kind  BuildKind
		want  error
	}{
		{"railroad", func() { own(cells, "a", 5) }, 5, House, ErrNotBuildable},
		{"not owner", func() {}, 9, House, ErrNotOwner},
		{"no monopoly", func() {}, 6, House, ErrNoMonopoly},
		{"first house", func() { own(cells, "a", 9) }, 6, House, nil},
		{"uneven", func() { cells[6].Houses = 1 }, 6, House, ErrUneven},
		{"even again", func() {}, 8, House, nil},
		{"hotel too early", func() {}, 6, Hotel, ErrNeedHouses},
		{"mortgaged group", func() { cells[9].Mortgaged = true }, 8, House, ErrMortgaged},
		{"hotel", func() {
			cells[9].Mortgaged = false
			for _, id := range []int{6, 8, 9} {
				cells[id].Houses = 4
			}
		}, 6, Hotel, nil},
		{"max houses", func() {}, 6, House, ErrMaxBuildings},
		{"max hotels", func() { cells[6].Hotels = MaxHotels }, 6, Hotel, ErrMaxBuildings},
	}
	for _, tt := range tests {
		tt.setup()
		if got := CanBuild(cells, board.Default, "a", tt.cell, tt.kind); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTaxAndMortgage(t *testing.T) {
	if got := TaxOwed(1500); got != 200 {
		t.Errorf("tax on 1500: got %d", got)
	}
	if got := TaxOwed(99); got != 59 {
		t.Errorf("tax on 99: got %d", got)
	}
	if got := TaxOwed(-40); got != TaxFlat {
		t.Errorf("tax on debt: got %d", got)
	}
	if got := MortgageValue(61); got != 30 {
		t.Errorf("mortgage 61: got %d", got)
	}
	if got := UnmortgageCost(61); got != 33 {
		t.Errorf("unmortgage 61: got %d", got)
	}
	if got := UnmortgageCost(200); got != 110 {
		t.Errorf("unmortgage 200: got %d", got)
	}
}

func TestBrokenMonopolyCells(t *testing.T) {
	cells := map[int]*models.CellState{}
	own(cells, "a", 1, 3)
	cells[1].Houses = 2
	if got := BrokenMonopolyCells(cells, board.Default); len(got) != 0 {
		t.Fatalf("intact monopoly reported broken: %v", got)
	}
	cells[3].OwnerId = "b"
	got := BrokenMonopolyCells(cells, board.Default)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1]", got)
	}
}
