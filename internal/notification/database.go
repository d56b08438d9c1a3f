package notification

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

// DatabaseChannel persists messages as operator_notifications rows.
type DatabaseChannel struct {
	Repo repository.NotificationRepository
}

func (DatabaseChannel) Name() string { return "database" }

func (c DatabaseChannel) Send(ctx context.Context, msg Message) error {
	if c.Repo == nil {
		return nil
	}
	row := &models.OperatorNotification{
		Level:     msg.Level,
		Title:     msg.Title,
		Body:      msg.Body,
		SyncLogID: msg.SyncLogID,
	}
	if msg.SyncType != "" {
		st := msg.SyncType
		row.SyncType = &st
	}
	if len(msg.Data) > 0 {
		b, err := json.Marshal(msg.Data)
		if err != nil {
			return err
		}
		row.Data = datatypes.JSON(b)
	}
	return c.Repo.InsertNotification(ctx, row)
}
