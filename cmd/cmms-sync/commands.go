package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/app"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/jobs"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/service"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/validation"
)

func usage(w io.Writer) {
	fmt.Fprint(w, `cmms-sync [global flags] <command> [flags]

Global Flags:
  --log-level   override log.level
  --attempts    max attempts per job (default jobs.max_attempts)

Commands:
  sync:equipments       [--plants P1,P2] [--once]
  sync:running-time     [--plants P1,P2] [--date YYYY-MM-DD] [--once]
  sync:work-orders      [--plants P1,P2] [--start-date YYYY-MM-DD] [--end-date YYYY-MM-DD] [--once]
  sync:materials        [--plants P1,P2] [--start-date YYYY-MM-DD] [--end-date YYYY-MM-DD] [--once]
  sync:daily-plant-data [--plants P1,P2] [--date YYYY-MM-DD | --start-date .. --end-date ..] [--once]
  sync:all              [--plants P1,P2] [--date YYYY-MM-DD] [--start-date ..] [--end-date ..] [--once]
  sync:health           mark sync runs stuck for longer than sync.stuck_after as failed
  sync:prune-logs       delete sync logs older than sync.log_retention

Config is read from CMMS_CONFIG (default config/config.yaml).
`)
}

var syncCommands = map[string]models.SyncType{
	"sync:equipments":       models.SyncTypeEquipment,
	"sync:running-time":     models.SyncTypeRunningTime,
	"sync:work-orders":      models.SyncTypeWorkOrders,
	"sync:materials":        models.SyncTypeMaterials,
	"sync:daily-plant-data": models.SyncTypeDailyPlantData,
	"sync:all":              models.SyncTypeAll,
}

func dispatch(ctx context.Context, a *app.App, args []string) error {
	name := args[0]
	if syncType, ok := syncCommands[name]; ok {
		return syncCmd(ctx, a, name, syncType, args[1:])
	}
	switch name {
	case "sync:health":
		stuck, err := a.Health.DetectStuck(ctx)
		if err != nil {
			return err
		}
		ids := make([]uint64, 0, len(stuck))
		for _, item := range stuck {
			ids = append(ids, item.ID)
		}
		return write(map[string]any{"stuck": len(stuck), "sync_log_ids": ids})
	case "sync:prune-logs":
		n, err := a.Health.PruneLogs(ctx)
		if err != nil {
			return err
		}
		return write(map[string]any{"deleted": n})
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown command: %s", name)
	}
}

// dateFlags lists the date flags each sync type honors. Anything else is
// rejected rather than silently ignored.
var dateFlags = map[models.SyncType][]string{
	models.SyncTypeEquipment:      nil,
	models.SyncTypeRunningTime:    {"date"},
	models.SyncTypeWorkOrders:     {"start-date", "end-date"},
	models.SyncTypeMaterials:      {"start-date", "end-date"},
	models.SyncTypeDailyPlantData: {"date", "start-date", "end-date"},
	models.SyncTypeAll:            {"date", "start-date", "end-date"},
}

func syncCmd(ctx context.Context, a *app.App, name string, syncType models.SyncType, args []string) error {
	params, once, err := parseSyncFlags(name, syncType, args)
	if err != nil {
		return err
	}
	if once {
		return runOnce(ctx, a, syncType, params)
	}

	def, err := a.Factory.New(syncType, params)
	if err != nil {
		return err
	}
	return runNow(ctx, a, def)
}

// parseSyncFlags reads the flags of one sync command.
func parseSyncFlags(name string, syncType models.SyncType, args []string) (service.Params, bool, error) {
	fs := flag.NewFlagSet("cmms-sync "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	plants := fs.String("plants", "", "comma separated plant codes (default all active plants)")
	date := fs.String("date", "", "target date YYYY-MM-DD")
	startDate := fs.String("start-date", "", "range start YYYY-MM-DD")
	endDate := fs.String("end-date", "", "range end YYYY-MM-DD")
	once := fs.Bool("once", false, "single attempt without retries or job notifications")
	if err := fs.Parse(args); err != nil {
		return service.Params{}, false, err
	}

	allowed := map[string]bool{}
	for _, f := range dateFlags[syncType] {
		allowed[f] = true
	}
	var rejected []string
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "date", "start-date", "end-date":
			if !allowed[f.Name] {
				rejected = append(rejected, "--"+f.Name)
			}
		}
	})
	if len(rejected) > 0 {
		return service.Params{}, false, fmt.Errorf("%s does not accept %s", name, strings.Join(rejected, ", "))
	}

	params := service.Params{}
	for _, code := range strings.Split(*plants, ",") {
		if code = strings.TrimSpace(code); code != "" {
			params.PlantCodes = append(params.PlantCodes, code)
		}
	}
	for _, f := range []struct {
		flag  string
		value string
		dst   **time.Time
	}{
		{"--date", *date, &params.Date},
		{"--start-date", *startDate, &params.StartDate},
		{"--end-date", *endDate, &params.EndDate},
	} {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		day, ok := validation.ParseDate(f.value)
		if !ok {
			return params, false, fmt.Errorf("%s must be YYYY-MM-DD", f.flag)
		}
		*f.dst = &day
	}
	if params.StartDate != nil && params.EndDate != nil && params.EndDate.Before(*params.StartDate) {
		return params, false, errors.New("--end-date is before --start-date")
	}
	return params, *once, nil
}

func runNow(ctx context.Context, a *app.App, def jobs.Definition) error {
	queue := jobs.NewQueue(a.Executor, a.Locks, jobs.QueueOptions{}, a.Logger)
	out, err := queue.RunNow(ctx, def)
	if err != nil {
		return err
	}
	if werr := write(map[string]any{
		"job_id":   out.JobID,
		"job":      def.Name,
		"state":    out.State,
		"attempts": out.Attempts,
		"duration": out.Duration.String(),
		"results":  out.Results,
	}); werr != nil {
		return werr
	}
	if out.State != jobs.StateSucceeded {
		if out.Err != nil {
			return fmt.Errorf("%s %s: %w", def.Name, out.State, out.Err)
		}
		return fmt.Errorf("%s %s", def.Name, out.State)
	}
	return nil
}

func runOnce(ctx context.Context, a *app.App, syncType models.SyncType, params service.Params) error {
	if syncType == models.SyncTypeAll {
		res, err := a.Sync.SyncAllSequentially(ctx, params)
		if werr := write(res); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}
	res, err := a.Sync.Sync(ctx, syncType, params)
	if werr := write(res); werr != nil {
		return errors.Join(err, werr)
	}
	return err
}

func write(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
