package system

import (
	"sort"
	"time"

	"go.uber.org/zap"

	coresys "github.com/townsim/server/internal/core/system"
	"github.com/townsim/server/internal/data"
	"github.com/townsim/server/internal/world"
)

// MinHousehold is the smallest household the rebalancer will create.
const MinHousehold = 2

// RebalanceResult summarises one rebalancing pass.
type RebalanceResult struct {
	Households int
	Residents  int
	Relocated  int
}

type household struct {
	house   *world.Building
	count   int
	movable []*world.Resident
	target  int
}

// Rebalance spreads living residents across residential buildings toward an
// even occupancy, never creating a household smaller than MinHousehold when
// it can be avoided and never touching residents already relocating.
// Homeless residents are always moved.
func Rebalance(ctx *world.Context) RebalanceResult {
	var homes []*household
	byHouse := make(map[*world.Building]*household)
	ctx.EachBuilding(data.CategoryResidential, func(b *world.Building) {
		h := &household{house: b}
		homes = append(homes, h)
		byHouse[b] = h
	})
	if len(homes) == 0 {
		return RebalanceResult{}
	}

	var movers []*world.Resident
	total := 0
	ctx.EachResident(func(r *world.Resident) {
		if !r.Alive() {
			return
		}
		if r.Relocation != nil {
			if h, ok := byHouse[r.Relocation]; ok {
				h.count++
				total++
			}
			return
		}
		h, ok := byHouse[r.Home]
		if !ok {
			movers = append(movers, r)
			total++
			return
		}
		h.count++
		h.movable = append(h.movable, r)
		total++
	})

	res := RebalanceResult{Households: len(homes), Residents: total}
	if total == 0 {
		for _, h := range homes {
			h.house.Population = 0
		}
		return res
	}

	sort.SliceStable(homes, func(i, j int) bool { return homes[i].count > homes[j].count })
	assignTargets(homes, total)

	for _, h := range homes {
		for h.count > h.target && len(h.movable) > 0 {
			last := len(h.movable) - 1
			movers = append(movers, h.movable[last])
			h.movable = h.movable[:last]
			h.count--
		}
	}
	for _, h := range homes {
		for h.count < h.target && len(movers) > 0 {
			r := movers[0]
			movers = movers[1:]
			r.AssignRelocation(h.house)
			h.count++
			res.Relocated++
		}
	}

	for _, h := range homes {
		h.house.Population = h.count
	}
	return res
}

// assignTargets fills in each household's target occupancy. homes must
// already be sorted largest first.
func assignTargets(homes []*household, total int) {
	n := len(homes)
	if total >= MinHousehold*n {
		base, extra := total/n, total%n
		for i, h := range homes {
			h.target = base
			if i < extra {
				h.target++
			}
		}
		return
	}
	viable := total / MinHousehold
	for i, h := range homes {
		h.target = 0
		if i < viable {
			h.target = MinHousehold
		}
	}
	// Leftovers join the first household rather than start a new one.
	homes[0].target += total % MinHousehold
}

// RebalanceSystem runs Rebalance on ticks where a day boundary was crossed.
// Phase 1 (Daily).
type RebalanceSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewRebalanceSystem(ws *world.State, log *zap.Logger) *RebalanceSystem {
	return &RebalanceSystem{world: ws, log: log}
}

func (s *RebalanceSystem) Phase() coresys.Phase { return coresys.PhaseDaily }

func (s *RebalanceSystem) Update(_ time.Duration) {
	ctx := s.world.Context()
	if ctx.DaysElapsed() == 0 {
		return
	}
	res := Rebalance(ctx)
	s.log.Debug("population rebalanced",
		zap.Int("households", res.Households),
		zap.Int("residents", res.Residents),
		zap.Int("relocated", res.Relocated))
}
