package world

import (
	"fmt"
	"sort"

	"tileplanet/internal/registry"
	"tileplanet/internal/sim/world/logic/mathx"
)

// BiomeRegion is a half-open interval [StartX, StartX+Width) of wrapped
// world-x assigned one biome.
type BiomeRegion struct {
	Biome  registry.BiomeID
	StartX int
	Width  int
}

// BiomeMap partitions the wrapped world width into contiguous,
// non-overlapping biome regions. Built once from world configuration and
// replaced wholesale on hot-reload.
type BiomeMap struct {
	Regions    []BiomeRegion
	WorldWidth int
}

// BiomeMapParams are the generation inputs. Identical params produce a
// bit-identical map; save/reload consistency depends on that.
type BiomeMapParams struct {
	Primary      string
	Secondaries  []string
	Seed         uint64
	WorldWidth   int
	RegionMin    int
	RegionMax    int
	PrimaryRatio float64
}

// GenerateBiomeMap lays out biome regions across the world width.
//
// Slots are labeled primary/secondary by ratio, shuffled, repaired so no
// two cylindrically-adjacent slots share a biome, then given widths that
// sum exactly to the world width.
func GenerateBiomeMap(p BiomeMapParams, biomes *registry.BiomeRegistry) (*BiomeMap, error) {
	if p.RegionMin <= 0 || p.RegionMax < p.RegionMin {
		return nil, fmt.Errorf("biome map: bad region widths [%d, %d]", p.RegionMin, p.RegionMax)
	}
	if len(p.Secondaries) == 0 {
		return nil, fmt.Errorf("biome map: need at least one secondary biome")
	}

	rng := mathx.NewSplitMix64(p.Seed)

	palette := make([]string, 0, 1+len(p.Secondaries))
	palette = append(palette, p.Primary)
	palette = append(palette, p.Secondaries...)

	avgWidth := (p.RegionMin + p.RegionMax) / 2
	regionCount := mathx.MaxInt(2, p.WorldWidth/avgWidth)

	primarySlots := mathx.MaxInt(1, int(float64(regionCount)*p.PrimaryRatio+0.5))
	if primarySlots > regionCount {
		primarySlots = regionCount
	}

	names := make([]string, 0, regionCount)
	for i := 0; i < primarySlots; i++ {
		names = append(names, p.Primary)
	}
	for i := 0; i < regionCount-primarySlots; i++ {
		names = append(names, p.Secondaries[i%len(p.Secondaries)])
	}

	// Fisher-Yates over the deterministic stream.
	for i := len(names) - 1; i >= 1; i-- {
		j := rng.Range(0, i)
		names[i], names[j] = names[j], names[i]
	}

	fixAdjacentDuplicates(names, palette, rng)
	fixWrapDuplicate(names, palette, rng)

	widths := make([]int, regionCount)
	total := 0
	for i := range widths {
		widths[i] = rng.Range(p.RegionMin, p.RegionMax)
		total += widths[i]
	}
	if total <= p.WorldWidth {
		widths[len(widths)-1] += p.WorldWidth - total
	} else {
		// Shrink from the end, never below width 1. With sane inputs the
		// excess always fits; if it doesn't, the imperfect layout is kept
		// rather than crashing a running game.
		excess := total - p.WorldWidth
		for i := len(widths) - 1; i >= 0 && excess > 0; i-- {
			shrink := mathx.MinInt(widths[i]-1, excess)
			widths[i] -= shrink
			excess -= shrink
		}
	}

	regions := make([]BiomeRegion, 0, regionCount)
	startX := 0
	for i, name := range names {
		id, err := biomes.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("biome map: %w", err)
		}
		regions = append(regions, BiomeRegion{Biome: id, StartX: startX, Width: widths[i]})
		startX += widths[i]
	}

	return &BiomeMap{Regions: regions, WorldWidth: p.WorldWidth}, nil
}

// fixAdjacentDuplicates repairs left-to-right neighbor duplicates. A swap
// with a later slot is preferred when it introduces no new duplicate;
// otherwise the slot is replaced with a biome absent from both neighbors.
// With a very small palette the replacement pool can be empty; the
// duplicate is then left in place.
func fixAdjacentDuplicates(names, palette []string, rng *mathx.SplitMix64) {
	n := len(names)
	if n < 2 {
		return
	}
	for i := 1; i < n; i++ {
		if names[i] != names[i-1] {
			continue
		}
		swapped := false
		for offset := 1; offset < n; offset++ {
			j := (i + offset) % n
			if j == 0 {
				// Swapping into slot 0 could undo earlier fixes.
				continue
			}
			nextOfJ := (j + 1) % n
			prevOfJ := j - 1

			if names[j] != names[i-1] &&
				(i+1 >= n || names[j] != names[i+1]) &&
				names[i] != names[prevOfJ] &&
				(nextOfJ == i || names[i] != names[nextOfJ]) {
				names[i], names[j] = names[j], names[i]
				swapped = true
				break
			}
		}
		if !swapped {
			prev := names[i-1]
			next := prev
			if i+1 < n {
				next = names[i+1]
			}
			var candidates []string
			for _, b := range palette {
				if b != prev && b != next {
					candidates = append(candidates, b)
				}
			}
			if len(candidates) > 0 {
				names[i] = candidates[rng.Next()%uint64(len(candidates))]
			}
		}
	}
}

// fixWrapDuplicate repairs first == last (the cylindrical seam) with the
// same swap-then-replace strategy.
func fixWrapDuplicate(names, palette []string, rng *mathx.SplitMix64) {
	n := len(names)
	if n < 3 || names[0] != names[n-1] {
		return
	}
	for j := 1; j < n-1; j++ {
		if names[j] != names[n-2] &&
			names[j] != names[0] &&
			names[n-1] != names[j-1] &&
			(j+1 >= n-1 || names[n-1] != names[j+1]) {
			names[j], names[n-1] = names[n-1], names[j]
			return
		}
	}
	first := names[0]
	secondToLast := names[n-2]
	var candidates []string
	for _, b := range palette {
		if b != first && b != secondToLast {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) > 0 {
		names[n-1] = candidates[rng.Next()%uint64(len(candidates))]
	}
}

// BiomeAt returns the biome at tile x. X wraps modulo the world width.
func (m *BiomeMap) BiomeAt(x int) registry.BiomeID {
	return m.Regions[m.RegionIndexAt(x)].Biome
}

// RegionIndexAt returns the index of the region covering tile x.
// O(log n) over the region boundaries.
func (m *BiomeMap) RegionIndexAt(x int) int {
	wrapped := mathx.Mod(x, m.WorldWidth)
	// First region with StartX > wrapped, minus one.
	idx := sort.Search(len(m.Regions), func(i int) bool {
		return m.Regions[i].StartX > wrapped
	})
	if idx == 0 {
		return 0
	}
	return idx - 1
}
