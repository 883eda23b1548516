package world

// ResidentView is a read-only copy of one resident.
type ResidentView struct {
	ID    uint64  `json:"id"`
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	State string  `json:"state"`
	Age   float64 `json:"age"`
	Faith float64 `json:"faith"`
	Home  uint64  `json:"home,omitempty"`
	Frame int     `json:"frame"`
}

type BuildingView struct {
	ID         uint64  `json:"id"`
	Type       string  `json:"type"`
	Category   string  `json:"category"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"w"`
	Height     int     `json:"h"`
	Population int     `json:"population"`
	Durability float64 `json:"durability"`
}

type HazardView struct {
	ID        uint64  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Remaining float64 `json:"remaining"`
}

// Snapshot is a consistent copy of the world taken under the read lock.
type Snapshot struct {
	Day        int            `json:"day"`
	TimeOfDay  float64        `json:"time_of_day"`
	Normalized float64        `json:"normalized"`
	Souls      int64          `json:"souls"`
	Population int            `json:"population"`
	Dead       int            `json:"dead"`
	Residents  []ResidentView `json:"residents"`
	Buildings  []BuildingView `json:"buildings"`
	Hazards    []HazardView   `json:"hazards"`
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.entities
	snap := Snapshot{
		Day:        s.clock.Day(),
		TimeOfDay:  s.clock.TimeOfDay(),
		Normalized: s.clock.Normalized(),
		Souls:      s.treasury.Balance(),
		Residents:  make([]ResidentView, 0, l.residents.Len()),
		Buildings:  make([]BuildingView, 0, l.buildings.Len()),
		Hazards:    make([]HazardView, 0, l.hazards.Len()),
	}
	l.residents.Each(func(r *Resident) {
		if r.Alive() {
			snap.Population++
		} else {
			snap.Dead++
		}
		v := ResidentView{
			ID:    uint64(r.id),
			Type:  r.Type.ID,
			X:     r.Pos.X,
			Y:     r.Pos.Y,
			State: r.State.String(),
			Age:   r.Age,
			Faith: r.Faith,
			Frame: r.frame,
		}
		if r.Home != nil {
			v.Home = uint64(r.Home.id)
		}
		snap.Residents = append(snap.Residents, v)
	})
	l.buildings.Each(func(b *Building) {
		snap.Buildings = append(snap.Buildings, BuildingView{
			ID:         uint64(b.id),
			Type:       b.Type.ID,
			Category:   b.Category().String(),
			X:          b.X,
			Y:          b.Y,
			Width:      b.Type.Width,
			Height:     b.Type.Height,
			Population: b.Population,
			Durability: b.Durability,
		})
	})
	l.hazards.Each(func(h *Hazard) {
		snap.Hazards = append(snap.Hazards, HazardView{
			ID:        uint64(h.id),
			X:         h.Pos.X,
			Y:         h.Pos.Y,
			Radius:    h.Radius,
			Remaining: h.Remaining,
		})
	})
	return snap
}
