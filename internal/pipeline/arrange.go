package pipeline

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"ftaggregate/internal/rlookup"
)

// Sorter implements SORTBY (+ its fused LIMIT, see aggregate.latestArrangeStep):
// it buffers every upstream row, sorts by Step.SortKeys using Step.AscBitmap
// (bit i set means ascending for sort key i), then pages the sorted slice
// by Step.Offset/Step.Limit (-1 meaning unset).
type Sorter struct {
	Upstream Processor
	Step     *rlookup.ArrangeStep

	built bool
	rows  []Row
	pos   int
}

func NewSorter(upstream Processor, step *rlookup.ArrangeStep) *Sorter {
	return &Sorter{Upstream: upstream, Step: step}
}

func (s *Sorter) build(ctx context.Context) error {
	for {
		row, outcome, err := s.Upstream.Next(ctx)
		if err != nil {
			return err
		}
		if outcome == OutcomeEOF {
			break
		}
		if outcome == OutcomePaused {
			continue
		}
		s.rows = append(s.rows, row)
	}

	if len(s.Step.SortKeys) > 0 {
		keys := make([]string, len(s.Step.SortKeys))
		for i, k := range s.Step.SortKeys {
			keys[i] = strings.TrimPrefix(k, "@")
		}
		bitmap := s.Step.AscBitmap
		sort.SliceStable(s.rows, func(i, j int) bool {
			a, b := s.rows[i], s.rows[j]
			for idx, field := range keys {
				asc := bitmap&(1<<uint(idx)) != 0
				cmp := compareFieldValues(a.Fields[field], b.Fields[field])
				if cmp == 0 {
					continue
				}
				if !asc {
					cmp = -cmp
				}
				return cmp < 0
			}
			return false
		})
	}

	start := 0
	if s.Step.Offset > 0 {
		start = s.Step.Offset
	}
	end := len(s.rows)
	if s.Step.Limit >= 0 && start+s.Step.Limit < end {
		end = start + s.Step.Limit
	}
	if start > len(s.rows) {
		start = len(s.rows)
	}
	if end < start {
		end = start
	}
	s.rows = s.rows[start:end]
	s.built = true
	return nil
}

func compareFieldValues(a, b string) int {
	an, aerr := strconv.ParseFloat(a, 64)
	bn, berr := strconv.ParseFloat(b, 64)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

func (s *Sorter) Next(ctx context.Context) (Row, Outcome, error) {
	if !s.built {
		if err := s.build(ctx); err != nil {
			return Row{}, OutcomeEOF, err
		}
	}
	if s.pos >= len(s.rows) {
		return Row{}, OutcomeEOF, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, OutcomeRow, nil
}
