package service

import (
	"github.com/fhrrrzy/neo-cmms-sub001/internal/client/remote"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/config"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/validation"
)

// naturalKeys identify remote records for de-duplication and failure
// reporting. They read the same field aliases as the record decoders.
var naturalKeys = map[models.SyncType]func(remote.Record) string{
	models.SyncTypeEquipment:      validation.NaturalKey(models.SyncTypeEquipment),
	models.SyncTypeRunningTime:    validation.NaturalKey(models.SyncTypeRunningTime),
	models.SyncTypeWorkOrders:     validation.NaturalKey(models.SyncTypeWorkOrders),
	models.SyncTypeMaterials:      validation.NaturalKey(models.SyncTypeMaterials),
	models.SyncTypeDailyPlantData: validation.NaturalKey(models.SyncTypeDailyPlantData),
}

var fetchModes = map[models.SyncType]remote.Mode{
	models.SyncTypeEquipment:      remote.ModeBatched,
	models.SyncTypeRunningTime:    remote.ModeConcurrent,
	models.SyncTypeWorkOrders:     remote.ModeBatched,
	models.SyncTypeMaterials:      remote.ModeConcurrent,
	models.SyncTypeDailyPlantData: remote.ModeRegional,
}

// NewSources binds every entity type to its endpoint path and fetch mode.
func NewSources(f *remote.Fetcher, paths config.EndpointPaths) map[models.SyncType]RecordSource {
	byType := map[models.SyncType]string{
		models.SyncTypeEquipment:      paths.Equipment,
		models.SyncTypeRunningTime:    paths.RunningTime,
		models.SyncTypeWorkOrders:     paths.WorkOrders,
		models.SyncTypeMaterials:      paths.Materials,
		models.SyncTypeDailyPlantData: paths.DailyPlantData,
	}
	out := make(map[models.SyncType]RecordSource, len(byType))
	for t, path := range byType {
		out[t] = remote.Source{
			Fetcher:  f,
			Endpoint: remote.Endpoint{Name: string(t), Path: path, Key: naturalKeys[t]},
			Mode:     fetchModes[t],
		}
	}
	return out
}
