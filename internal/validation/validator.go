// Package validation checks remote records before they may touch local
// state: mandatory fields, field formats and plant references.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/client/remote"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("caldate", func(fl validator.FieldLevel) bool {
			_, ok := ParseDate(fl.Field().String())
			return ok
		})
		_ = validate.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
			_, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
			return err == nil
		})
		_ = validate.RegisterValidation("flag", func(fl validator.FieldLevel) bool {
			return isFlag(fl.Field().String())
		})
	})
	return validate
}

type PlantLookup interface {
	FindPlantsByCodes(ctx context.Context, codes []string) ([]models.Plant, error)
}

// Result is the outcome for one record. Payload holds the decoded payload
// struct for the entity type when Valid is true.
type Result struct {
	Valid   bool
	Reason  string
	Plant   *models.Plant
	Payload any
}

func invalid(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Validator resolves plants through a per-run cache. Create one per sync run
// so plant changes made between runs are seen.
type Validator struct {
	plants PlantLookup

	mu    sync.Mutex
	cache map[string]*models.Plant
}

func New(plants PlantLookup) *Validator {
	return &Validator{plants: plants, cache: map[string]*models.Plant{}}
}

// Prime seeds the plant cache with rows the caller already loaded.
func (v *Validator) Prime(plants []models.Plant) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range plants {
		p := plants[i]
		v.cache[p.PlantCode] = &p
	}
}

// Validate reports whether rec may be written for the given entity type. A
// lookup error is returned as an error; every other problem is a soft failure
// in Result.Reason.
func (v *Validator) Validate(ctx context.Context, syncType models.SyncType, rec remote.Record) (Result, error) {
	var payload any
	var plantCode string
	switch syncType {
	case models.SyncTypeEquipment:
		p := decodeEquipment(rec)
		payload, plantCode = p, p.PlantCode
	case models.SyncTypeRunningTime:
		p := decodeRunningTime(rec)
		payload, plantCode = p, p.PlantCode
	case models.SyncTypeWorkOrders:
		p := decodeWorkOrder(rec)
		payload, plantCode = p, p.PlantCode
	case models.SyncTypeMaterials:
		p := decodeMaterial(rec)
		payload, plantCode = p, p.PlantCode
	case models.SyncTypeDailyPlantData:
		p := decodeDailyPlantData(rec)
		payload, plantCode = p, p.PlantCode
	default:
		return Result{}, fmt.Errorf("validate: %w %q", models.ErrUnknownSyncType, syncType)
	}

	if err := getValidator().Struct(payload); err != nil {
		return Result{Reason: describe(err)}, nil
	}

	plant, err := v.plant(ctx, plantCode)
	if err != nil {
		return Result{}, err
	}
	if plant == nil {
		return invalid("plant %s not found", plantCode), nil
	}
	return Result{Valid: true, Plant: plant, Payload: payload}, nil
}

func (v *Validator) plant(ctx context.Context, code string) (*models.Plant, error) {
	v.mu.Lock()
	p, ok := v.cache[code]
	v.mu.Unlock()
	if ok {
		return p, nil
	}
	if v.plants == nil {
		return nil, nil
	}
	rows, err := v.plants.FindPlantsByCodes(ctx, []string{code})
	if err != nil {
		return nil, fmt.Errorf("lookup plant %s: %w", code, err)
	}
	var found *models.Plant
	for i := range rows {
		if rows[i].PlantCode == code {
			found = &rows[i]
			break
		}
	}
	// Misses are cached too so an unknown plant costs one query per run.
	v.mu.Lock()
	v.cache[code] = found
	v.mu.Unlock()
	return found, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "caldate":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a valid date", field, fe.Value()))
		case "decimal":
			msgs = append(msgs, fmt.Sprintf("%s %q is not numeric", field, fe.Value()))
		case "flag":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a boolean", field, fe.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s exceeds %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
