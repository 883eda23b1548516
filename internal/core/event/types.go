package event

import "github.com/townsim/server/internal/core/ecs"

// DayPassed fires once per elapsed simulated day, before rebalancing.
type DayPassed struct {
	Day        int
	Population int
	Souls      int64
}

type ResidentBorn struct {
	Resident ecs.EntityID
	Home     ecs.EntityID
}

type ResidentDied struct {
	Resident ecs.EntityID
	Age      float64
}

// SoulsChanged reports every treasury movement with the balance after it.
type SoulsChanged struct {
	Delta   int64
	Balance int64
	Reason  string
}

type SoulHarvested struct {
	Resident ecs.EntityID
	Yield    int64
	X, Y     float64
}

// MapUpdated fires when a building is placed on or cleared from the grid.
type MapUpdated struct {
	Building ecs.EntityID
	X, Y     int
	Width    int
	Height   int
	Removed  bool
}

type DisasterOccurred struct {
	Hazard ecs.EntityID
	X, Y   float64
	Radius float64
}
