package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/townsim/server/internal/config"
)

// clearingRadius is the fraction of the map's half-diagonal around the
// centre that is flattened toward open grass so the town has room to start.
const clearingRadius = 0.35

// GenerateTerrain builds a grid from layered simplex noise: low ground is
// water, high ground is forest, the rest is buildable grass.
func GenerateTerrain(cfg config.MapConfig, seed int64) *Grid {
	g := NewGrid(cfg.Width, cfg.Height, TerrainGrass)
	noise := opensimplex.NewNormalized(seed)

	cx, cy := float64(cfg.Width)/2, float64(cfg.Height)/2
	halfDiag := math.Hypot(cx, cy)
	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			v := octaveNoise(noise, float64(x), float64(y), 4, 0.07, 0.5)

			dist := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / halfDiag
			if blend := 1 - dist/clearingRadius; blend > 0 {
				v = v*(1-blend) + 0.5*blend
			}

			switch {
			case v < cfg.WaterLevel:
				g.SetTerrain(x, y, TerrainWater)
			case v > cfg.ForestLevel:
				g.SetTerrain(x, y, TerrainForest)
			}
		}
	}
	return g
}

// octaveNoise layers several frequencies of noise into one value in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
