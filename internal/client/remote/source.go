package remote

import (
	"context"
	"fmt"
)

type Mode int

const (
	ModeBatched Mode = iota
	ModeConcurrent
	ModeRegional
)

func (m Mode) String() string {
	switch m {
	case ModeBatched:
		return "batched"
	case ModeConcurrent:
		return "concurrent"
	case ModeRegional:
		return "regional"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Source binds an endpoint to the fetch mode it is read with. Targets are
// plant codes, or regional codes for ModeRegional.
type Source struct {
	Fetcher  *Fetcher
	Endpoint Endpoint
	Mode     Mode
}

func (s Source) Fetch(ctx context.Context, targets []string, dr DateRange) ([]Record, FetchReport, error) {
	if s.Fetcher == nil {
		return nil, FetchReport{}, fmt.Errorf("%s: fetcher is nil", s.Endpoint.Name)
	}
	switch s.Mode {
	case ModeConcurrent:
		return s.Fetcher.FetchConcurrent(ctx, s.Endpoint, targets, dr)
	case ModeRegional:
		return s.Fetcher.FetchRegional(ctx, s.Endpoint, targets, dr)
	default:
		return s.Fetcher.FetchBatched(ctx, s.Endpoint, targets, dr)
	}
}

func (s Source) ByRegion() bool {
	return s.Mode == ModeRegional
}
