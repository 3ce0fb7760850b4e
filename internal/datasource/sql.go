package datasource

import (
	"context"
	"fmt"

	"pesticide-analytics/internal/models"
	"pesticide-analytics/internal/repository"
)

// SQLSource reads the dataset table through the repository.
type SQLSource struct {
	Repo     repository.PesticideRepository
	OnReject RejectFunc
}

func (s *SQLSource) Load(ctx context.Context) ([]models.Observation, error) {
	stored, err := s.Repo.ListObservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read observations table: %w", err)
	}

	sink := &rowSink{onReject: s.OnReject}
	for i := range stored {
		if err := sink.add(i+1, &stored[i], nil); err != nil {
			return nil, err
		}
	}
	return sink.rows, nil
}
