package world

import (
	"go.uber.org/zap"

	"github.com/townsim/server/internal/data"
	"github.com/townsim/server/internal/pathfind"
)

// FoundTown constructs each building type in plan at the free site nearest
// the map centre, paying for it as Construct would, and moves up to perHouse
// residents of the default type into every residential building. Types that
// are unknown, unaffordable or have no site are logged and skipped. It must
// not be called while a tick is running.
func (s *State) FoundTown(plan []string, perHouse int) []*Building {
	s.mu.Lock()
	defer s.mu.Unlock()

	centre := pathfind.Cell{X: s.grid.Width() / 2, Y: s.grid.Height() / 2}
	placed := make([]*Building, 0, len(plan))
	for _, id := range plan {
		bt, err := s.catalog.Buildings.Get(id)
		if err != nil {
			s.log.Warn("town plan: unknown building", zap.String("type", id))
			continue
		}
		x, y, ok := s.grid.FindSite(bt, centre)
		if !ok {
			s.log.Warn("town plan: no site", zap.String("type", id))
			continue
		}
		b, ok := s.construct(x, y, id)
		if !ok {
			s.log.Warn("town plan: cannot build", zap.String("type", id),
				zap.Int64("souls", s.treasury.Balance()))
			continue
		}
		s.entities.add(b)
		placed = append(placed, b)

		if bt.Category != data.CategoryResidential {
			continue
		}
		for i := 0; i < perHouse && i < bt.Capacity; i++ {
			s.entities.add(NewResident(s.catalog.Residents.Default(), b))
		}
	}
	return placed
}
