package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	catalogservice "sitestock-backend/internal/domains/catalog/service"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/domains/movement/repository"
	"sitestock-backend/internal/shared/apperrors"
)

// StocktakeResult reports one applied stocktake batch.
type StocktakeResult struct {
	BatchID string
	Date    string
	Applied []model.InventoryStocktake
	Failed  []*apperrors.BatchError
	Summary string
}

// StocktakeService applies counted quantities cumulatively onto the
// catalogue and journals every line.
type StocktakeService struct {
	catalog   catalogservice.ServiceInterface
	movements repository.RepositoryInterface
}

// NewStocktakeService creates the stocktake service.
func NewStocktakeService(catalog catalogservice.ServiceInterface, movements repository.RepositoryInterface) *StocktakeService {
	return &StocktakeService{catalog: catalog, movements: movements}
}

// Apply adds every counted quantity to the item's on-hand. Counts are
// cumulative: new_on_hand = previous_on_hand + counted_qty. Unknown items
// are created on first count.
func (s *StocktakeService) Apply(ctx context.Context, parsed *model.ParsedStocktake) *StocktakeResult {
	result := &StocktakeResult{
		BatchID: uuid.NewString(),
		Date:    parsed.Date,
	}
	appliedBy := strings.Join(parsed.LoggedBy, ", ")
	now := time.Now()

	for _, entry := range parsed.Entries {
		item, created, err := s.catalog.GetOrCreate(ctx, entry.ItemName)
		if err != nil {
			result.Failed = append(result.Failed,
				storeError(err).WithEntry(entry.LineNumber, entry.ItemName))
			continue
		}
		if created {
			log.Info().Str("item", item.Name).Str("batch_id", result.BatchID).
				Msg("stocktake created new catalogue item")
		}

		st := model.InventoryStocktake{
			BatchID:        result.BatchID,
			Date:           parsed.Date,
			ItemName:       item.Name,
			CountedQty:     entry.CountedQty,
			PreviousOnHand: item.OnHand,
			NewOnHand:      item.OnHand + entry.CountedQty,
			Discrepancy:    entry.CountedQty - item.OnHand,
			AppliedAt:      now,
			AppliedBy:      appliedBy,
		}

		item.OnHand = st.NewOnHand
		stocktakeDate, dateErr := time.Parse("2006-01-02", parsed.Date)
		if dateErr == nil {
			item.LastStocktakeDate = &stocktakeDate
		}
		item.LastStocktakeBy = appliedBy
		if parsed.Category != "" && item.Category == "" {
			item.Category = parsed.Category
		}

		if err := s.catalog.Save(ctx, item); err != nil {
			result.Failed = append(result.Failed,
				storeError(err).WithEntry(entry.LineNumber, entry.ItemName))
			continue
		}
		if err := s.movements.CreateStocktake(ctx, &st); err != nil {
			// On-hand is already updated; keep going but surface the gap.
			result.Failed = append(result.Failed,
				storeError(err).WithEntry(entry.LineNumber, entry.ItemName))
		}

		result.Applied = append(result.Applied, st)
	}

	result.Summary = fmt.Sprintf("%d/%d counts applied on %s by %s",
		len(result.Applied), len(parsed.Entries), result.Date, appliedBy)
	return result
}
