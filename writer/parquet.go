// Package writer exports normalized price batches to S3 as Parquet files,
// partitioned by settlement date. The export is optional and sits beside the
// store; PostgreSQL stays the source of truth.
package writer

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	parquetwriter "github.com/xitongsys/parquet-go/writer"

	"github.com/tder311/nemflow/models"
)

// PriceParquetRecord is the flat Parquet row layout for one price
// observation.
type PriceParquetRecord struct {
	SettlementDate int64   `parquet:"name=settlementdate, type=INT64"`
	Region         string  `parquet:"name=region, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price          float64 `parquet:"name=price, type=DOUBLE"`
	TotalDemand    float64 `parquet:"name=totaldemand, type=DOUBLE"`
	Source         string  `parquet:"name=price_type, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// encodePrices renders a price batch as a snappy-compressed Parquet file,
// assembled in memory so no scratch files touch disk before upload.
func encodePrices(rows []models.PriceRecord) ([]byte, error) {
	fw := buffer.NewBufferFile()

	pw, err := parquetwriter.NewParquetWriter(fw, new(PriceParquetRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		rec := PriceParquetRecord{
			SettlementDate: r.SettlementDate.UnixMilli(),
			Region:         r.Region,
			Price:          r.Price,
			TotalDemand:    r.TotalDemand,
			Source:         string(r.Source),
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("writing parquet record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalizing parquet file: %w", err)
	}
	return fw.Bytes(), nil
}
