// Package main runs the background worker: outbox mail dispatch and label sheet exports.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kinderbasar/backend/config"
	"github.com/kinderbasar/backend/internal/labels"
	"github.com/kinderbasar/backend/internal/mailer"
	"github.com/kinderbasar/backend/internal/outbox"
	"github.com/kinderbasar/backend/internal/worker"
	"github.com/kinderbasar/backend/pkg/database"
	"github.com/kinderbasar/backend/pkg/queue"
	"github.com/kinderbasar/backend/pkg/redis"
	"github.com/kinderbasar/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPass,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	}, logger)
	dispatcher := worker.NewDispatcher(outbox.NewRepository(pool), sender, rdb.Locker(), cfg.Email.PollInterval, cfg.Email.BatchSize, logger)
	go dispatcher.Run(workerCtx)
	logger.Info("outbox dispatcher started", zap.Duration("interval", cfg.Email.PollInterval))

	if cfg.AWS.Enabled() {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Endpoint:             cfg.AWS.Endpoint,
			LabelsBucket:         cfg.AWS.LabelsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		labelRepo := labels.NewRepository(pool, cfg.Bazaar.Location())
		processor := worker.NewLabelExportProcessor(labelRepo, s3Client, queue.NewQueue(rdb.Client, logger), logger)
		go processor.Run(workerCtx)
		logger.Info("label export worker started", zap.String("bucket", cfg.AWS.LabelsBucket))
	} else {
		logger.Warn("label export worker disabled (AWS_REGION/AWS_S3_LABELS_BUCKET not set)")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
