package ordering

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// DayViolation reports order-contract breakage within one trip-day
type DayViolation struct {
	TripID     uuid.UUID `json:"trip_id"`
	DayNumber  int       `json:"day_number"`
	Duplicates []int     `json:"duplicates,omitempty"`
	Gaps       []int     `json:"gaps,omitempty"`
}

// AuditTrip scans every day of a trip for duplicate or gapped order
// indices. The contract is operational, not a database constraint, so the
// audit is the detection side: violations are reported, never repaired.
// Items with order index 0 are unplaced (move-to-day default) and are
// excluded from gap arithmetic.
func (e *Engine) AuditTrip(ctx context.Context, tripID uuid.UUID) ([]DayViolation, error) {
	items, err := e.repo.FindByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[int][]int)
	for _, item := range items {
		byDay[item.DayNumber] = append(byDay[item.DayNumber], item.OrderIndex)
	}

	var violations []DayViolation
	for day, indices := range byDay {
		v := DayViolation{TripID: tripID, DayNumber: day}

		seen := make(map[int]int)
		max := 0
		placed := 0
		for _, idx := range indices {
			if idx == 0 {
				continue
			}
			placed++
			seen[idx]++
			if idx > max {
				max = idx
			}
		}

		for idx, count := range seen {
			if count > 1 {
				v.Duplicates = append(v.Duplicates, idx)
			}
		}

		if placed > 0 {
			for idx := 1; idx <= max; idx++ {
				if seen[idx] == 0 {
					v.Gaps = append(v.Gaps, idx)
				}
			}
		}

		if len(v.Duplicates) > 0 || len(v.Gaps) > 0 {
			sort.Ints(v.Duplicates)
			sort.Ints(v.Gaps)
			violations = append(violations, v)
		}
	}

	sort.Slice(violations, func(i, j int) bool {
		return violations[i].DayNumber < violations[j].DayNumber
	})

	return violations, nil
}
