package framingham

import "math"

// ceilBand covers values strictly below upTo that did not fall into an earlier band.
type ceilBand struct {
	upTo   float64
	points int
}

// floorBand covers values at or above atLeast, evaluated first-match in list order.
type floorBand struct {
	atLeast float64
	points  int
}

type ageBand struct {
	from, to int
	points   int
}

type keyed[T any] struct {
	points int
	value  T
}

type tableSet struct {
	ages              [MaxAge - MinAge + 1]int
	cholesterol       []ceilBand
	hdl               []floorBand
	systolicUntreated []ceilBand
	systolicTreated   []ceilBand
	smoker            int

	// Totals below lowCutoff or above highCutoff are reported as "<1" / "≥30".
	lowCutoff, highCutoff int
	riskPercent           []keyed[float64]
	vascularAge           []keyed[int]
}

var inf = math.Inf(1)

// Bands follow the clinic's printed Framingham sheets: cholesterol 160/200/240/280,
// HDL 60/50/40, systolic 120/130/140/160.
var (
	menTables = newTableSet(
		[]ageBand{
			{20, 34, -9}, {35, 39, -4}, {40, 44, 0}, {45, 49, 3}, {50, 54, 6},
			{55, 59, 8}, {60, 64, 10}, {65, 69, 11}, {70, 74, 12}, {75, 79, 13},
		},
		tableSet{
			cholesterol:       []ceilBand{{160, 0}, {200, 4}, {240, 7}, {280, 9}, {inf, 11}},
			hdl:               []floorBand{{60, -1}, {50, 0}, {40, 1}, {math.Inf(-1), 2}},
			systolicUntreated: []ceilBand{{120, 0}, {130, 0}, {140, 1}, {160, 1}, {inf, 2}},
			systolicTreated:   []ceilBand{{120, 0}, {130, 1}, {140, 2}, {160, 2}, {inf, 3}},
			smoker:            4,
			lowCutoff:         -4,
			highCutoff:        29,
			riskPercent: []keyed[float64]{
				{-4, 1}, {-1, 1.5}, {2, 2.3}, {5, 3.9}, {8, 6.7}, {10, 9.4}, {12, 13.2},
				{14, 17}, {16, 20}, {17, 21.6}, {19, 25}, {22, 27.5}, {26, 29}, {29, 29.9},
			},
			vascularAge: []keyed[int]{
				{-9, 20}, {-4, 30}, {0, 35}, {3, 40}, {6, 45}, {8, 50},
				{10, 55}, {12, 60}, {14, 65}, {16, 70}, {19, 75}, {23, 80},
			},
		},
	)

	womenTables = newTableSet(
		[]ageBand{
			{20, 34, -7}, {35, 39, -3}, {40, 44, 0}, {45, 49, 3}, {50, 54, 6},
			{55, 59, 8}, {60, 64, 10}, {65, 69, 12}, {70, 74, 14}, {75, 79, 16},
		},
		tableSet{
			cholesterol:       []ceilBand{{160, 0}, {200, 4}, {240, 8}, {280, 11}, {inf, 13}},
			hdl:               []floorBand{{60, 0}, {50, 1}, {40, 2}, {math.Inf(-1), 3}},
			systolicUntreated: []ceilBand{{120, 0}, {130, 1}, {140, 2}, {160, 3}, {inf, 4}},
			systolicTreated:   []ceilBand{{120, 0}, {130, 3}, {140, 4}, {160, 5}, {inf, 6}},
			smoker:            3,
			lowCutoff:         -3,
			highCutoff:        24,
			riskPercent: []keyed[float64]{
				{-3, 1}, {0, 1.5}, {3, 2.4}, {6, 3.8}, {9, 5.5}, {11, 7.1}, {13, 9.5},
				{15, 12}, {17, 15}, {19, 18.6}, {21, 22.5}, {23, 27}, {24, 29},
			},
			vascularAge: []keyed[int]{
				{-7, 20}, {-3, 30}, {0, 35}, {3, 40}, {6, 45}, {8, 50},
				{10, 55}, {12, 60}, {14, 65}, {17, 70}, {20, 75}, {24, 80},
			},
		},
	)
)

func newTableSet(ages []ageBand, ts tableSet) *tableSet {
	for _, b := range ages {
		for a := b.from; a <= b.to; a++ {
			ts.ages[a-MinAge] = b.points
		}
	}
	return &ts
}

func tablesFor(s Sex) (*tableSet, bool) {
	switch s {
	case Male:
		return menTables, true
	case Female:
		return womenTables, true
	}
	return nil, false
}

func (b ceilBand) contains(v float64) bool { return v < b.upTo }

func classifyCeil(bands []ceilBand, v float64) int {
	for _, b := range bands {
		if b.contains(v) {
			return b.points
		}
	}
	return bands[len(bands)-1].points
}

func classifyFloor(bands []floorBand, v float64) int {
	for _, b := range bands {
		if v >= b.atLeast {
			return b.points
		}
	}
	return bands[len(bands)-1].points
}

// nearest scans entries in ascending key order and returns the value of the key
// closest to p. Equidistant keys resolve to the smaller one.
func nearest[T any](entries []keyed[T], p int) T {
	best := entries[0]
	bestDist := absInt(p - best.points)
	for _, e := range entries[1:] {
		if d := absInt(p - e.points); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best.value
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
