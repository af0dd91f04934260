package service

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/catalog/repository"
	"sitestock-backend/internal/shared/similarity"
)

type CatalogService struct {
	repo     repository.RepositoryInterface
	snapshot *SnapshotCache
}

// NewService creates a new catalogue service.
func NewService(repo repository.RepositoryInterface, snapshot *SnapshotCache) ServiceInterface {
	return &CatalogService{
		repo:     repo,
		snapshot: snapshot,
	}
}

// Snapshot implements ServiceInterface.Snapshot
func (s *CatalogService) Snapshot(ctx context.Context) ([]model.Item, error) {
	return s.snapshot.Items(ctx)
}

// InvalidateSnapshot implements ServiceInterface.InvalidateSnapshot
func (s *CatalogService) InvalidateSnapshot() {
	s.snapshot.Invalidate()
}

// GetByName implements ServiceInterface.GetByName
func (s *CatalogService) GetByName(ctx context.Context, name string) (*model.Item, error) {
	return s.repo.GetByName(ctx, strings.TrimSpace(name))
}

// GetOrCreate implements ServiceInterface.GetOrCreate
func (s *CatalogService) GetOrCreate(ctx context.Context, name string) (*model.Item, bool, error) {
	name = strings.TrimSpace(name)

	item, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return item, false, nil
	}
	if !model.IsNotFoundError(err) {
		return nil, false, err
	}

	created := model.NewItemFromName(name)
	if err := s.repo.Create(ctx, created); err != nil {
		// Lost a create race: another handler inserted the same name first.
		if err == model.ErrItemAlreadyExists {
			existing, getErr := s.repo.GetByName(ctx, name)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	log.Info().
		Str("item", created.Name).
		Str("category", created.Category).
		Float64("unit_size", created.UnitSize).
		Str("unit_type", created.UnitType).
		Msg("auto-created catalogue item")

	s.snapshot.Invalidate()
	return created, true, nil
}

// Save implements ServiceInterface.Save
func (s *CatalogService) Save(ctx context.Context, item *model.Item) error {
	if err := s.repo.Update(ctx, item); err != nil {
		return err
	}
	s.snapshot.Invalidate()
	return nil
}

// Search implements ServiceInterface.Search
func (s *CatalogService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	items, err := s.snapshot.Items(ctx)
	if err != nil {
		return nil, err
	}

	normQuery := similarity.Normalize(query)
	var results []SearchResult
	for _, item := range items {
		score := similarity.Score(normQuery, item.Name)
		// Substring hits rank even when the keyword metric finds nothing,
		// so "cem" still surfaces "Cement 50kg".
		if score < similarity.FuzzyThreshold &&
			strings.Contains(similarity.Normalize(item.Name), normQuery) {
			score = similarity.FuzzyThreshold
		}
		if score >= similarity.FuzzyThreshold {
			results = append(results, SearchResult{Item: item, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
