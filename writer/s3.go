package writer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/tder311/nemflow/config"
	"github.com/tder311/nemflow/logger"
	"github.com/tder311/nemflow/models"
)

// Exporter uploads price batches to S3 as Parquet files under
// date-partitioned keys. A nil Exporter (export disabled) accepts writes and
// drops them, so callers need no conditional.
type Exporter struct {
	client  *s3.Client
	bucket  string
	version string
	log     *logger.Log
}

// NewExporter builds an Exporter from the storage configuration. Returns
// (nil, nil) when S3 export is disabled.
func NewExporter(cfg *appconfig.Config) (*Exporter, error) {
	if !cfg.Storage.S3.Enabled {
		return nil, nil
	}

	log := logger.GetLogger()
	ctx := context.Background()

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Storage.S3.Region),
	}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws configuration: %w", err)
	}
	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.S3.PathStyle
	})

	log.WithComponent("s3_exporter").WithFields(logger.Fields{
		"bucket":     cfg.Storage.S3.Bucket,
		"region":     cfg.Storage.S3.Region,
		"endpoint":   cfg.Storage.S3.Endpoint,
		"path_style": cfg.Storage.S3.PathStyle,
	}).Info("s3 exporter initialized")

	return &Exporter{
		client:  client,
		bucket:  cfg.Storage.S3.Bucket,
		version: cfg.Nemflow.Version,
		log:     log,
	}, nil
}

// priceKey builds the date-partitioned object key for one batch. The batch
// timestamp drives the partition; the upload instant makes the name unique.
func priceKey(batchDate time.Time, uploaded time.Time) string {
	return fmt.Sprintf("prices/year=%04d/month=%02d/day=%02d/prices_%s.parquet",
		batchDate.Year(), int(batchDate.Month()), batchDate.Day(),
		uploaded.UTC().Format("20060102150405"))
}

// ExportPrices encodes the batch as Parquet and puts it to S3. Empty batches
// and a nil Exporter are no-ops. Export failures are reported but callers
// treat them as non-fatal; the store write has already succeeded.
func (e *Exporter) ExportPrices(ctx context.Context, rows []models.PriceRecord) error {
	if e == nil || len(rows) == 0 {
		return nil
	}

	data, err := encodePrices(rows)
	if err != nil {
		return err
	}

	key := priceKey(rows[0].SettlementDate, time.Now())
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type":    "parquet",
			"nemflow-version": e.version,
		},
	})
	if err != nil {
		return fmt.Errorf("uploading to s3 bucket %s: %w", e.bucket, err)
	}

	e.log.WithComponent("s3_exporter").WithFields(logger.Fields{
		"s3_key":    key,
		"records":   len(rows),
		"file_size": len(data),
	}).Info("price batch exported")
	return nil
}
