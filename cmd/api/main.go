package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/assistant"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/cache"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/cloud"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/config"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/database"
	httpHandlers "github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/http"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/repository"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/service"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/telemetry"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	config.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	binID := config.BinID()

	store, closeStore := openStore(ctx, binID)
	defer closeStore()

	opts := service.Options{
		BinID:    binID,
		Location: config.Location(),
		Store:    store,
		Cache:    cache.Nop{},
		Notifier: service.NopNotifier{},
		Maintenance: service.MaintenanceConfig{
			InstalledAt:        config.BinInstalledAt(),
			LastService:        config.LidLastService(),
			FailureRatePerYear: config.LidFailureRate(),
			ServiceInterval:    config.LidServiceInterval(),
		},
	}

	if addr := config.RedisAddr(); addr != "" {
		rdb, closeRedis, err := cache.NewRedis(ctx, addr)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot cache disabled")
		} else {
			defer closeRedis()
			opts.Cache = rdb
		}
	}

	if config.UseCloudServices() {
		if arn := config.SNSTopicArn(); arn != "" {
			sns, err := cloud.NewSNSClient(ctx, config.AWSRegion(), arn)
			if err != nil {
				log.Fatal().Err(err).Msg("sns init failed")
			}
			opts.Notifier = sns
		}
		s3, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket())
		if err != nil {
			log.Fatal().Err(err).Msg("s3 init failed")
		}
		opts.Archive = s3
		log.Info().Str("region", config.AWSRegion()).Msg("cloud services enabled")
	}

	svcs := service.New(opts)

	var model assistant.Model
	gemini, err := assistant.NewGemini(ctx, config.GeminiAPIKey(), config.GeminiModel())
	if err != nil {
		log.Warn().Err(err).Msg("assistant runs on fallback replies")
	} else {
		defer gemini.Close()
		model = gemini
	}
	asst := assistant.New(model, config.AssistantLanguage())

	bridge := telemetry.NewBridge(telemetry.Config{
		Broker:      config.MQTTBroker(),
		ClientID:    config.MQTTClientID(),
		TopicPrefix: config.MQTTTopicPrefix(),
		BinID:       binID,
	}, svcs.Bin.Handler(ctx))
	svcs.Bin.SetLidCommander(bridge)

	if err := svcs.Bin.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("snapshot restore failed")
	}
	if err := svcs.Bin.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial refresh failed")
	}
	go svcs.Bin.Watch(ctx, config.WatchInterval())
	go svcs.Bin.PersistSnapshots(ctx)
	go connectBroker(ctx, bridge)

	app := httpHandlers.NewApp(svcs, asst)
	go func() {
		addr := config.APIAddr()
		log.Info().Str("addr", addr).Str("bin", binID).Msg("api listening")
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("server exit")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	bridge.Close()
}

// openStore picks the event store from STORE_BACKEND.
func openStore(ctx context.Context, binID string) (service.EventStore, func()) {
	switch backend := config.StoreBackend(); backend {
	case "dynamodb":
		ddb, err := cloud.NewDynamoDBClient(ctx, config.AWSRegion(), config.DynamoDBTable(), binID)
		if err != nil {
			log.Fatal().Err(err).Msg("dynamodb init failed")
		}
		log.Info().Str("table", config.DynamoDBTable()).Msg("using dynamodb event store")
		return ddb, func() {}
	case "postgres":
		db, err := database.Connect(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("db connect failed")
		}
		repo := repository.New(db, binID)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("schema setup failed")
		}
		log.Info().Msg("using postgres event store")
		return repo, func() { _ = db.Close() }
	default:
		log.Fatal().Str("backend", backend).Msg("unknown STORE_BACKEND")
		return nil, nil
	}
}

// connectBroker retries the first connection; paho reconnects by itself after that.
func connectBroker(ctx context.Context, b *telemetry.Bridge) {
	for {
		err := b.Connect()
		if err == nil {
			log.Info().Str("broker", config.MQTTBroker()).Msg("mqtt connected")
			return
		}
		log.Warn().Err(err).Msg("mqtt connect failed, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}
