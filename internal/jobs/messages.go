package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/notification"
)

// successMessages builds the detailed and the summary notification of a
// finished job.
func successMessages(def Definition, out Outcome) []notification.Message {
	var b strings.Builder
	created, updated, errs := 0, 0, 0
	for _, res := range out.Results {
		fmt.Fprintf(&b, "%s: processed %d, created %d, updated %d, errors %d (%s)\n",
			res.Type.Label(), res.Processed, res.Created, res.Updated, res.Errors, res.Duration.Round(time.Second))
		created += res.Created
		updated += res.Updated
		errs += res.Errors
	}
	fmt.Fprintf(&b, "Attempts: %d\nTotal duration: %s", out.Attempts, out.Duration.Round(time.Second))

	var logID *uint64
	if len(out.Results) == 1 && out.Results[0].SyncLogID != 0 {
		id := out.Results[0].SyncLogID
		logID = &id
	}
	data := map[string]any{
		"job_id":   def.ID,
		"attempts": out.Attempts,
		"created":  created,
		"updated":  updated,
		"errors":   errs,
		"duration": out.Duration.Seconds(),
		"results":  out.Results,
	}
	return []notification.Message{
		{
			Level:     models.NotificationLevelInfo,
			Title:     fmt.Sprintf("%s sync completed", def.SyncType.Label()),
			Body:      b.String(),
			SyncType:  def.SyncType,
			SyncLogID: logID,
			Data:      data,
		},
		{
			Level:     models.NotificationLevelInfo,
			Title:     fmt.Sprintf("%s sync OK", def.SyncType.Label()),
			Body:      fmt.Sprintf("%d created, %d updated, %d errors in %s", created, updated, errs, out.Duration.Round(time.Second)),
			SyncType:  def.SyncType,
			SyncLogID: logID,
		},
	}
}

// failureMessages builds the two critical notifications of a permanently
// failed job.
func failureMessages(def Definition, out Outcome, logID *uint64) []notification.Message {
	reason := "unknown error"
	if out.Err != nil {
		reason = out.Err.Error()
	}
	body := fmt.Sprintf("Job %s (%s) failed after %d attempts.\nLast error: %s\nManual intervention is required.",
		def.Name, def.ID, out.Attempts, reason)
	if def.Params.Date != nil {
		body += "\nTarget date: " + def.Params.Date.Format("2006-01-02")
	}
	if len(def.Params.PlantCodes) > 0 {
		body += "\nPlants: " + strings.Join(def.Params.PlantCodes, ", ")
	}
	return []notification.Message{
		{
			Level:     models.NotificationLevelCritical,
			Title:     fmt.Sprintf("%s sync permanently failed", def.SyncType.Label()),
			Body:      body,
			SyncType:  def.SyncType,
			SyncLogID: logID,
			Data: map[string]any{
				"job_id":   def.ID,
				"attempts": out.Attempts,
				"error":    reason,
			},
		},
		{
			Level:     models.NotificationLevelCritical,
			Title:     fmt.Sprintf("%s sync failed", def.SyncType.Label()),
			Body:      fmt.Sprintf("Gave up after %d attempts: %s", out.Attempts, reason),
			SyncType:  def.SyncType,
			SyncLogID: logID,
		},
	}
}
