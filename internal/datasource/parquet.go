package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"pesticide-analytics/internal/models"
)

// ParquetSource reads the dataset from a Parquet file whose columns carry the
// canonical names.
type ParquetSource struct {
	Path     string
	OnReject RejectFunc
}

func (s *ParquetSource) Load(ctx context.Context) ([]models.Observation, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	defer f.Close()

	return DecodeParquet(ctx, f, s.OnReject)
}

// DecodeParquet reads every row group of r into observations.
func DecodeParquet(ctx context.Context, r parquet.ReaderAtSeeker, onReject RejectFunc) ([]models.Observation, error) {
	mem := memory.NewGoAllocator()

	table, err := pqarrow.ReadTable(ctx, r, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("reading parquet table: %w", err)
	}
	defer table.Release()

	if table.NumRows() == 0 {
		return nil, ErrEmptyDataset
	}

	header := make([]string, table.Schema().NumFields())
	for i, f := range table.Schema().Fields() {
		header[i] = f.Name
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	cols := columnReaders{}
	for _, name := range models.Columns {
		col, err := newColumnReader(table.Column(idx[name]))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		cols[name] = col
	}

	sink := &rowSink{onReject: onReject}
	for i := 0; i < int(table.NumRows()); i++ {
		obs, convErr := cols.observation(i)
		if err := sink.add(i+1, obs, convErr); err != nil {
			return nil, err
		}
	}
	return sink.rows, nil
}

type columnReaders map[string]*columnReader

func (c columnReaders) observation(row int) (*models.Observation, error) {
	country, err := c["Country"].str(row)
	if err != nil {
		return nil, &models.ValidationError{Field: "Country", Message: err.Error()}
	}
	year, err := c["Year"].integer(row)
	if err != nil {
		return nil, &models.ValidationError{Field: "Year", Message: err.Error()}
	}
	pesticideType, err := c["Pesticide_Type"].str(row)
	if err != nil {
		return nil, &models.ValidationError{Field: "Pesticide_Type", Message: err.Error()}
	}
	tonnes, err := c["Tonnes"].float(row)
	if err != nil {
		return nil, &models.ValidationError{Field: "Tonnes", Message: err.Error()}
	}
	kgPerHa, err := c["Kg_per_ha"].float(row)
	if err != nil {
		return nil, &models.ValidationError{Field: "Kg_per_ha", Message: err.Error()}
	}

	return &models.Observation{
		Country:       country,
		Year:          int(year),
		PesticideType: pesticideType,
		Tonnes:        tonnes,
		KgPerHa:       kgPerHa,
	}, nil
}

// columnReader gives row-indexed access across the chunks of a column.
type columnReader struct {
	typ    arrow.DataType
	chunks []arrow.Array
	starts []int
}

func newColumnReader(col *arrow.Column) (*columnReader, error) {
	switch col.DataType().ID() {
	case arrow.STRING, arrow.LARGE_STRING,
		arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.FLOAT32, arrow.FLOAT64:
	default:
		return nil, fmt.Errorf("unsupported Arrow type: %s", col.DataType())
	}

	r := &columnReader{typ: col.DataType()}
	offset := 0
	for _, chunk := range col.Data().Chunks() {
		r.chunks = append(r.chunks, chunk)
		r.starts = append(r.starts, offset)
		offset += chunk.Len()
	}
	return r, nil
}

func (r *columnReader) locate(row int) (arrow.Array, int, error) {
	for i := len(r.chunks) - 1; i >= 0; i-- {
		if row >= r.starts[i] {
			arr, pos := r.chunks[i], row-r.starts[i]
			if arr.IsNull(pos) {
				return nil, 0, errors.New("null value")
			}
			return arr, pos, nil
		}
	}
	return nil, 0, fmt.Errorf("row %d out of range", row)
}

func (r *columnReader) str(row int) (string, error) {
	arr, pos, err := r.locate(row)
	if err != nil {
		return "", err
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(pos), nil
	case *array.LargeString:
		return a.Value(pos), nil
	default:
		return "", fmt.Errorf("expected string, got %s", r.typ)
	}
}

func (r *columnReader) integer(row int) (int64, error) {
	arr, pos, err := r.locate(row)
	if err != nil {
		return 0, err
	}
	switch a := arr.(type) {
	case *array.Int16:
		return int64(a.Value(pos)), nil
	case *array.Int32:
		return int64(a.Value(pos)), nil
	case *array.Int64:
		return a.Value(pos), nil
	default:
		return 0, fmt.Errorf("expected integer, got %s", r.typ)
	}
}

func (r *columnReader) float(row int) (float64, error) {
	arr, pos, err := r.locate(row)
	if err != nil {
		return 0, err
	}
	switch a := arr.(type) {
	case *array.Float32:
		return float64(a.Value(pos)), nil
	case *array.Float64:
		return a.Value(pos), nil
	case *array.Int32:
		return float64(a.Value(pos)), nil
	case *array.Int64:
		return float64(a.Value(pos)), nil
	default:
		return 0, fmt.Errorf("expected number, got %s", r.typ)
	}
}
