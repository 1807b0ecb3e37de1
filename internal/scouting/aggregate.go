package scouting

// Category buckets cycles for aggregation.
type Category string

const (
	CategoryMovement Category = "movement"
	CategoryCoral    Category = "coral"
	CategoryAlgae    Category = "algae"
	CategorySnowball Category = "snowball"
	CategoryHang     Category = "hang"
	CategoryDefense  Category = "defense"
	CategoryContact  Category = "contact"
)

// CategoryTotals maps a field name to its value. An absent field means
// "no data", which callers must treat as distinct from zero.
type CategoryTotals map[string]float64

// PhaseTotals is the per-category breakdown for one phase.
type PhaseTotals map[Category]CategoryTotals

// ReportTotals is the full per-phase summary of one report's cycles.
type ReportTotals map[Phase]PhaseTotals

// AveragePair holds both divisors for one averaged field: the expected
// value per match (reports missing the field count as zero) and the
// average over only the reports where the field is present. They answer
// different questions and are never collapsed into one number.
type AveragePair struct {
	PerMatch    float64 `json:"perMatch"`
	WhenPresent float64 `json:"whenPresent"`
}

// AverageTotals is the cross-report average of every field that appears in
// at least one report.
type AverageTotals map[Phase]map[Category]map[string]AveragePair

type scoreBucket struct {
	attained  int
	scored    int
	durations []float64
}

type contactBucket struct {
	seen     bool
	duration float64
	pins     int
	fouls    int
}

type hangBucket struct {
	seen      bool
	startTime float64
	duration  *float64
	level     int
}

// ComputeReportTotals reduces a live cycle sequence into per-phase,
// per-category totals. It is pure: fresh output per call, input untouched.
func ComputeReportTotals(cycles []Cycle) ReportTotals {
	type key struct {
		phase Phase
		cat   Category
	}

	scores := map[key]*scoreBucket{}
	contacts := map[key]*contactBucket{}
	hangs := map[key]*hangBucket{}
	movements := map[Phase]*hangBucket{} // startTime unused; duration + seen

	scoreAt := func(k key) *scoreBucket {
		if scores[k] == nil {
			scores[k] = &scoreBucket{}
		}
		return scores[k]
	}
	contactAt := func(k key) *contactBucket {
		if contacts[k] == nil {
			contacts[k] = &contactBucket{}
		}
		return contacts[k]
	}

	for _, c := range cycles {
		switch c.Type {
		case CycleMovement:
			if c.Phase != PhaseAuto {
				continue
			}
			m := movements[c.Phase]
			if m == nil {
				m = &hangBucket{}
				movements[c.Phase] = m
			}
			m.seen = true
			if d := c.Duration(); d != nil {
				f := float64(*d)
				m.duration = &f
			}

		case CycleCoral, CycleAlgae, CycleSnowball:
			b := scoreAt(key{c.Phase, scoreCategory(c.Type)})
			if c.Location != "" {
				b.attained++
			}
			if c.DepositType == DepositScore && c.EndTime != nil {
				b.scored++
				b.durations = append(b.durations, float64(*c.Duration()))
			}

		case CycleHang:
			// Last write wins: one hang attempt is expected per match.
			h := hangs[key{c.Phase, CategoryHang}]
			if h == nil {
				h = &hangBucket{}
				hangs[key{c.Phase, CategoryHang}] = h
			}
			h.seen = true
			h.startTime = float64(c.StartTime)
			h.level = c.HangLevel
			if d := c.Duration(); d != nil {
				f := float64(*d)
				h.duration = &f
			}

		case CycleDefense:
			b := contactAt(key{c.Phase, CategoryDefense})
			b.seen = true
			if d := c.Duration(); d != nil {
				b.duration += float64(*d)
			}

		case CycleContact:
			b := contactAt(key{c.Phase, CategoryContact})
			b.seen = true
			if d := c.Duration(); d != nil {
				b.duration += float64(*d)
			}
			b.pins += c.PinCount
			b.fouls += c.FoulCount
		}
	}

	totals := ReportTotals{}
	put := func(phase Phase, cat Category, fields CategoryTotals) {
		if totals[phase] == nil {
			totals[phase] = PhaseTotals{}
		}
		totals[phase][cat] = fields
	}

	for phase, m := range movements {
		fields := CategoryTotals{"happened": 1}
		if m.duration != nil {
			fields["duration"] = *m.duration
		}
		put(phase, CategoryMovement, fields)
	}

	for k, b := range scores {
		fields := CategoryTotals{
			"attainedCount": float64(b.attained),
			"scoredCount":   float64(b.scored),
			"droppedCount":  float64(b.attained - b.scored),
		}
		if b.scored > 0 {
			// Preserves the source's literal attained/scored formula; flagged
			// for product review rather than silently inverted.
			fields["scoringRate"] = float64(b.attained) / float64(b.scored)
		}
		if len(b.durations) > 0 {
			fields["avgScoringCycleTime"] = mean(b.durations)
		}
		put(k.phase, k.cat, fields)
	}

	for k, h := range hangs {
		fields := CategoryTotals{
			"startTime": h.startTime,
			"level":     float64(h.level),
		}
		if h.duration != nil {
			fields["duration"] = *h.duration
		}
		put(k.phase, k.cat, fields)
	}

	for k, b := range contacts {
		fields := CategoryTotals{"totalDuration": b.duration}
		if k.cat == CategoryContact {
			fields["pinCount"] = float64(b.pins)
			fields["foulCount"] = float64(b.fouls)
		}
		put(k.phase, k.cat, fields)
	}

	return totals
}

func scoreCategory(t CycleType) Category {
	switch t {
	case CycleCoral:
		return CategoryCoral
	case CycleAlgae:
		return CategoryAlgae
	default:
		return CategorySnowball
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// ComputeAverageMetrics averages every field present in at least one
// report's totals, keeping both the per-match and when-present divisors.
func ComputeAverageMetrics(reports []ReportTotals) AverageTotals {
	out := AverageTotals{}
	if len(reports) == 0 {
		return out
	}

	type acc struct {
		sum     float64
		present int
	}
	sums := map[Phase]map[Category]map[string]*acc{}

	for _, rt := range reports {
		for phase, cats := range rt {
			if sums[phase] == nil {
				sums[phase] = map[Category]map[string]*acc{}
			}
			for cat, fields := range cats {
				if sums[phase][cat] == nil {
					sums[phase][cat] = map[string]*acc{}
				}
				for name, v := range fields {
					a := sums[phase][cat][name]
					if a == nil {
						a = &acc{}
						sums[phase][cat][name] = a
					}
					a.sum += v
					a.present++
				}
			}
		}
	}

	n := float64(len(reports))
	for phase, cats := range sums {
		out[phase] = map[Category]map[string]AveragePair{}
		for cat, fields := range cats {
			out[phase][cat] = map[string]AveragePair{}
			for name, a := range fields {
				out[phase][cat][name] = AveragePair{
					PerMatch:    a.sum / n,
					WhenPresent: a.sum / float64(a.present),
				}
			}
		}
	}
	return out
}
