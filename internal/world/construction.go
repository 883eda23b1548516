package world

import (
	"math"

	"go.uber.org/zap"

	"github.com/townsim/server/internal/core/event"
	"github.com/townsim/server/internal/pathfind"
)

// construct validates, debits and places a building. The caller holds the
// write lock and registers the returned building.
func (s *State) construct(x, y int, typeID string) (*Building, bool) {
	bt, err := s.catalog.Buildings.Get(typeID)
	if err != nil {
		s.log.Debug("construct rejected", zap.String("type", typeID), zap.Error(err))
		return nil, false
	}
	if !s.treasury.CanAfford(bt.Cost) {
		s.log.Debug("construct rejected: insufficient souls",
			zap.String("type", typeID), zap.Int64("cost", bt.Cost), zap.Int64("souls", s.treasury.Balance()))
		return nil, false
	}
	if err := s.grid.CheckPlacement(bt, x, y); err != nil {
		s.log.Debug("construct rejected", zap.String("type", typeID), zap.Error(err))
		return nil, false
	}
	s.treasury.Spend(bt.Cost)
	if s.afterDebit != nil {
		s.afterDebit()
	}
	b := NewBuilding(bt, x, y)
	if err := s.grid.Place(b); err != nil {
		s.treasury.Add(bt.Cost)
		s.log.Warn("construct placement failed after debit, refunded",
			zap.String("type", typeID), zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		return nil, false
	}
	s.reportSouls(-bt.Cost, "construct:"+bt.ID)
	return b, true
}

// harvest finds the nearest unharvested soul within radius of p and credits
// its yield. The caller removes the returned resident.
func (s *State) harvest(p pathfind.Point, radius float64, reason string) (*Resident, int64) {
	var best *Resident
	bestDist := math.Inf(1)
	s.entities.residents.Each(func(r *Resident) {
		if r.Alive() || r.doomed {
			return
		}
		if d := r.Pos.Dist(p); d <= radius && d < bestDist {
			best, bestDist = r, d
		}
	})
	if best == nil {
		return nil, 0
	}
	yield := s.formulas.SoulYield(best.Faith, best.Age)
	if yield < 0 {
		yield = 0
	}
	s.treasury.Add(yield)
	s.reportSouls(yield, reason)
	event.Publish(s.bus, event.SoulHarvested{
		Resident: best.id, Yield: yield, X: best.Pos.X, Y: best.Pos.Y,
	})
	return best, yield
}

// reportSouls publishes a treasury movement that has already been applied.
func (s *State) reportSouls(delta int64, reason string) {
	event.Publish(s.bus, event.SoulsChanged{
		Delta: delta, Balance: s.treasury.Balance(), Reason: reason,
	})
}

func (s *State) publishMap(b *Building, removed bool) {
	event.Publish(s.bus, event.MapUpdated{
		Building: b.id,
		X:        b.X,
		Y:        b.Y,
		Width:    b.Type.Width,
		Height:   b.Type.Height,
		Removed:  removed,
	})
}
