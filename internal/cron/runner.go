package cronrunner

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
	names   map[cron.EntryID]string
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	clog := cronLogger{logger: logger}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		logger:  logger,
		baseCtx: baseCtx,
		names:   map[cron.EntryID]string{},
	}
}

// Add registers job under name. An empty spec leaves the job unscheduled and
// returns a zero id.
func (r *Runner) Add(name string, spec string, job func(context.Context)) (cron.EntryID, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		r.logger.Info("cron entry disabled", zap.String("job", name))
		return 0, nil
	}
	id, err := r.cron.AddFunc(spec, func() {
		start := time.Now()
		job(r.baseCtx)
		r.logger.Debug("cron entry finished",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
	if err != nil {
		return 0, err
	}
	r.names[id] = name
	r.logger.Info("cron entry scheduled", zap.String("job", name), zap.String("spec", spec))
	return id, nil
}

// Next reports the next activation time of every registered entry by name.
func (r *Runner) Next() map[string]time.Time {
	out := make(map[string]time.Time, len(r.names))
	for _, entry := range r.cron.Entries() {
		if name, ok := r.names[entry.ID]; ok {
			out[name] = entry.Next
		}
	}
	return out
}

func (r *Runner) Start() {
	r.logger.Info("cron started", zap.Int("entries", len(r.names)))
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}

// cronLogger adapts zap to cron.Logger for the Recover and SkipIfStillRunning
// wrappers.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
