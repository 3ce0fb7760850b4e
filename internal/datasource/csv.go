package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"pesticide-analytics/internal/models"
)

// CSVSource reads the dataset from a local CSV file with a header row.
type CSVSource struct {
	Path     string
	OnReject RejectFunc
}

func (s *CSVSource) Load(ctx context.Context) ([]models.Observation, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	return DecodeCSV(ctx, f, s.OnReject)
}

// DecodeCSV parses a headed CSV stream into observations.
func DecodeCSV(ctx context.Context, r io.Reader, onReject RejectFunc) ([]models.Observation, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	sink := &rowSink{onReject: onReject}
	for row := 1; ; row++ {
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", row, err)
		}

		raw := models.RawObservationRecord{
			Country:       record[idx["Country"]],
			Year:          record[idx["Year"]],
			PesticideType: record[idx["Pesticide_Type"]],
			Tonnes:        record[idx["Tonnes"]],
			KgPerHa:       record[idx["Kg_per_ha"]],
		}
		obs, convErr := raw.ToObservation()
		if err := sink.add(row, obs, convErr); err != nil {
			return nil, err
		}
	}

	return sink.rows, nil
}
