package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrAllRequestsFailed = errors.New("all fetch requests failed")

// Endpoint describes one remote resource: where it lives and how its records
// are identified for de-duplication.
type Endpoint struct {
	Name string
	Path string
	Key  func(Record) string
}

// DateRange bounds a fetch. Zero values are omitted from the query.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) apply(q url.Values) {
	if !r.Start.IsZero() {
		q.Set("start_date", r.Start.Format("2006-01-02"))
	}
	if !r.End.IsZero() {
		q.Set("end_date", r.End.Format("2006-01-02"))
	}
}

type SubRequestError struct {
	Target string
	Err    error
}

// FetchReport summarises the sub-requests behind one fetch.
type FetchReport struct {
	Requests   int
	Failed     []SubRequestError
	Duplicates int
}

func (r FetchReport) Succeeded() int {
	return r.Requests - len(r.Failed)
}

type RecordGetter interface {
	GetRecords(ctx context.Context, path string, query url.Values) ([]Record, error)
}

type Fetcher struct {
	Client      RecordGetter
	BatchSize   int
	Concurrency int
	Logger      *zap.Logger
}

type subRequest struct {
	target string
	query  url.Values
}

type subResult struct {
	records []Record
	err     error
}

// FetchBatched issues one request per group of BatchSize plant codes, joined
// with commas in plant_codes. Batches run one after another; a failed batch is
// skipped.
func (f *Fetcher) FetchBatched(ctx context.Context, ep Endpoint, codes []string, dr DateRange) ([]Record, FetchReport, error) {
	batches := chunkStrings(codes, f.batchSize())
	reqs := make([]subRequest, 0, len(batches))
	for _, batch := range batches {
		q := url.Values{}
		q.Set("plant_codes", strings.Join(batch, ","))
		dr.apply(q)
		reqs = append(reqs, subRequest{target: strings.Join(batch, ","), query: q})
	}

	var (
		records []Record
		report  FetchReport
	)
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		report.Requests++
		items, err := f.Client.GetRecords(ctx, ep.Path, req.query)
		if err != nil {
			f.logFailure(ep, req.target, err)
			report.Failed = append(report.Failed, SubRequestError{Target: req.target, Err: err})
			continue
		}
		records = append(records, items...)
	}
	return f.finish(ctx, ep, records, report)
}

// FetchConcurrent issues one request per plant code (plant_code=X) in
// parallel, bounded by Concurrency. Records are appended in completion order.
func (f *Fetcher) FetchConcurrent(ctx context.Context, ep Endpoint, codes []string, dr DateRange) ([]Record, FetchReport, error) {
	reqs := make([]subRequest, 0, len(codes))
	for _, code := range codes {
		q := url.Values{}
		q.Set("plant_code", code)
		dr.apply(q)
		reqs = append(reqs, subRequest{target: code, query: q})
	}
	return f.fanOut(ctx, ep, reqs)
}

// FetchRegional issues one request per regional code (regional=REG1) in
// parallel.
func (f *Fetcher) FetchRegional(ctx context.Context, ep Endpoint, regions []string, dr DateRange) ([]Record, FetchReport, error) {
	reqs := make([]subRequest, 0, len(regions))
	for _, region := range regions {
		q := url.Values{}
		q.Set("regional", region)
		dr.apply(q)
		reqs = append(reqs, subRequest{target: region, query: q})
	}
	return f.fanOut(ctx, ep, reqs)
}

func (f *Fetcher) fanOut(ctx context.Context, ep Endpoint, reqs []subRequest) ([]Record, FetchReport, error) {
	var (
		mu      sync.Mutex
		records []Record
		report  = FetchReport{Requests: len(reqs)}
	)

	// Errors are captured per request and never returned to the group, so one
	// failing plant does not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(f.concurrency())
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			items, err := f.Client.GetRecords(ctx, ep.Path, req.query)
			res := subResult{records: items, err: err}

			mu.Lock()
			defer mu.Unlock()
			if res.err != nil {
				f.logFailure(ep, req.target, res.err)
				report.Failed = append(report.Failed, SubRequestError{Target: req.target, Err: res.err})
				return nil
			}
			records = append(records, res.records...)
			return nil
		})
	}
	_ = g.Wait()
	return f.finish(ctx, ep, records, report)
}

func (f *Fetcher) finish(ctx context.Context, ep Endpoint, records []Record, report FetchReport) ([]Record, FetchReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	if report.Requests > 0 && len(report.Failed) == report.Requests {
		return nil, report, fmt.Errorf("%s: %w: %w", ep.Name, ErrAllRequestsFailed, report.Failed[0].Err)
	}
	out, dupes := dedupe(records, ep.Key)
	report.Duplicates = dupes
	if f.Logger != nil {
		f.Logger.Debug("fetch completed",
			zap.String("endpoint", ep.Name),
			zap.Int("requests", report.Requests),
			zap.Int("failed", len(report.Failed)),
			zap.Int("records", len(out)),
			zap.Int("duplicates", dupes),
		)
	}
	return out, report, nil
}

func (f *Fetcher) logFailure(ep Endpoint, target string, err error) {
	if f.Logger == nil {
		return
	}
	f.Logger.Warn("fetch sub-request failed",
		zap.String("endpoint", ep.Name),
		zap.String("target", target),
		zap.Error(err),
	)
}

func (f *Fetcher) batchSize() int {
	if f.BatchSize <= 0 {
		return 5
	}
	return f.BatchSize
}

func (f *Fetcher) concurrency() int {
	if f.Concurrency <= 0 {
		return 10
	}
	return f.Concurrency
}

// dedupe keeps the first record for each natural key. Records without a key
// pass through untouched so validation can reject them.
func dedupe(records []Record, key func(Record) string) ([]Record, int) {
	if key == nil {
		return records, 0
	}
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	dupes := 0
	for _, rec := range records {
		k := key(rec)
		if k == "" {
			out = append(out, rec)
			continue
		}
		if _, ok := seen[k]; ok {
			dupes++
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rec)
	}
	return out, dupes
}

func chunkStrings(in []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var out [][]string
	for i := 0; i < len(in); i += size {
		end := i + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[i:end])
	}
	return out
}

// String returns the value of field as trimmed text. Numbers are rendered
// without exponent.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
