// Command cloudcheck verifies the AWS resources the bin service depends on:
// it reads the trash log table, publishes a test alert and uploads a test
// report. Run it once after provisioning.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/cloud"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/config"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	config.SetupLogging()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	failed := 0
	for _, c := range []struct {
		name string
		run  func(context.Context) error
	}{
		{"dynamodb", checkDynamo},
		{"sns", checkSNS},
		{"s3", checkS3},
	} {
		if err := c.run(ctx); err != nil {
			log.Error().Err(err).Str("check", c.name).Msg("failed")
			failed++
			continue
		}
		log.Info().Str("check", c.name).Msg("ok")
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func checkDynamo(ctx context.Context) error {
	if config.DynamoDBTable() == "" {
		return fmt.Errorf("AWS_DYNAMODB_TABLE is not set")
	}
	db, err := cloud.NewDynamoDBClient(ctx, config.AWSRegion(), config.DynamoDBTable(), config.BinID())
	if err != nil {
		return err
	}
	docs, err := db.Recent(ctx, 1)
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		log.Info().Str("event", docs[0].Event).Time("ts", docs[0].TS).Msg("latest log entry")
	}
	return nil
}

func checkSNS(ctx context.Context) error {
	if config.SNSTopicArn() == "" {
		return fmt.Errorf("AWS_SNS_TOPIC_ARN is not set")
	}
	sns, err := cloud.NewSNSClient(ctx, config.AWSRegion(), config.SNSTopicArn())
	if err != nil {
		return err
	}
	return sns.SendAlert(ctx, "EcoBin test alert",
		"This is a test alert to verify SNS configuration.\n\nTimestamp: "+time.Now().Format(time.RFC3339))
}

func checkS3(ctx context.Context) error {
	if config.S3Bucket() == "" {
		return fmt.Errorf("AWS_S3_BUCKET is not set")
	}
	s3, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket())
	if err != nil {
		return err
	}
	url, err := s3.UploadReport(ctx, "reports/test/cloudcheck.txt",
		[]byte("Test report generated at "+time.Now().Format(time.RFC3339)), "text/plain")
	if err != nil {
		return err
	}
	log.Info().Str("url", url).Msg("presigned test report")
	return nil
}
