package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	catalogservice "sitestock-backend/internal/domains/catalog/service"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/domains/movement/repository"
	"sitestock-backend/internal/shared/apperrors"
)

// Submitter identifies who is applying a batch.
type Submitter struct {
	UserID  int64
	Name    string
	IsAdmin bool
}

// Executor applies a single approved movement to the catalogue and records
// the audit row. Store failures are CRITICAL so the batch processor can
// decide to roll back; business rejections are plain errors.
type Executor struct {
	catalog   catalogservice.ServiceInterface
	movements repository.RepositoryInterface
}

// NewExecutor creates the movement executor.
func NewExecutor(catalog catalogservice.ServiceInterface, movements repository.RepositoryInterface) *Executor {
	return &Executor{catalog: catalog, movements: movements}
}

// Execute applies one movement. On success the movement is Posted, its
// category filled from the item, and the updated item returned.
func (e *Executor) Execute(ctx context.Context, mv *model.StockMovement, by Submitter) (*catalogmodel.Item, *apperrors.BatchError) {
	var item *catalogmodel.Item
	var err error

	switch mv.Type {
	case model.MovementIn:
		var created bool
		item, created, err = e.catalog.GetOrCreate(ctx, mv.ItemName)
		if err != nil {
			return nil, storeError(err)
		}
		if created {
			log.Info().Str("item", item.Name).Str("batch_id", mv.BatchID).
				Msg("inflow created new catalogue item")
		}

	case model.MovementOut, model.MovementAdjust:
		item, err = e.catalog.GetByName(ctx, mv.ItemName)
		if err != nil {
			if catalogmodel.IsNotFoundError(err) {
				return nil, apperrors.New(apperrors.CategoryValidation, apperrors.SeverityError,
					fmt.Sprintf("item %q does not exist, record an inflow first", mv.ItemName))
			}
			return nil, storeError(err)
		}

	default:
		return nil, apperrors.New(apperrors.CategoryValidation, apperrors.SeverityError,
			fmt.Sprintf("unknown movement type %q", mv.Type))
	}

	if mv.Type == model.MovementOut && mv.Quantity > item.OnHand && !by.IsAdmin {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, apperrors.SeverityError,
			model.NewInsufficientStockError(mv.ItemName, mv.Quantity, item.OnHand))
	}

	// Unit conversion is a stub: the entered quantity is applied as-is and a
	// mismatch against the item's base unit only logs a warning.
	if mv.Unit != "" && item.UnitType != "" && mv.Unit != item.UnitType {
		log.Warn().Str("item", item.Name).
			Str("entered_unit", mv.Unit).Str("base_unit", item.UnitType).
			Msg("unit mismatch, applying entered quantity without conversion")
	}

	item.OnHand += mv.SignedBaseQuantity
	if mv.Project != "" && mv.Project != model.NotDescribed {
		item.AppendProject(mv.Project)
	}
	if err := e.catalog.Save(ctx, item); err != nil {
		return nil, storeError(err)
	}

	mv.Category = item.Category
	mv.UserID = by.UserID
	mv.UserName = by.Name
	mv.Status = model.StatusPosted
	if err := e.movements.CreateMovement(ctx, mv); err != nil {
		// The stock level moved but the audit row is missing. Compensate so
		// the catalogue and the journal stay consistent.
		item.OnHand -= mv.SignedBaseQuantity
		if compErr := e.catalog.Save(ctx, item); compErr != nil {
			return nil, apperrors.Wrap(apperrors.CategoryRollback, apperrors.SeverityCritical,
				fmt.Errorf("movement row failed and stock revert failed: %v (revert: %v)", err, compErr))
		}
		return nil, storeError(err)
	}

	return item, nil
}

// Compensate undoes one previously applied movement and voids its row.
func (e *Executor) Compensate(ctx context.Context, mv *model.StockMovement) error {
	item, err := e.catalog.GetByName(ctx, mv.ItemName)
	if err != nil {
		return fmt.Errorf("rollback %q: %w", mv.ItemName, err)
	}

	item.OnHand -= mv.SignedBaseQuantity
	if err := e.catalog.Save(ctx, item); err != nil {
		return fmt.Errorf("rollback %q: %w", mv.ItemName, err)
	}

	if mv.ID != "" {
		if err := e.movements.UpdateStatus(ctx, mv.ID, model.StatusVoided); err != nil {
			return fmt.Errorf("rollback %q: void movement row: %w", mv.ItemName, err)
		}
	}
	mv.Status = model.StatusVoided
	return nil
}

// storeError classifies store failures as CRITICAL database errors.
func storeError(err error) *apperrors.BatchError {
	if errors.Is(err, catalogmodel.ErrStoreUnavailable) {
		return apperrors.Wrap(apperrors.CategoryDatabase, apperrors.SeverityCritical, err)
	}
	return apperrors.Wrap(apperrors.CategoryDatabase, apperrors.SeverityError, err)
}
