package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"disable-help/cmd"
	"disable-help/internal/data/repository"
	"disable-help/internal/wire"
	"disable-help/pkg/database"
	"disable-help/pkg/mailer"
	"disable-help/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using zap production logger.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("db_driver", config.Database.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, config.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	app := wire.Wiring(repos, newMailer(config, logger), config, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}

// openStore connects the configured driver and returns its repositories.
func openStore(ctx context.Context, config utils.DatabaseConfig, logger *zap.Logger) (*repository.Repository, func(), error) {
	switch config.Driver {
	case utils.DriverMongo:
		m, err := database.InitMongo(ctx, config)
		if err != nil {
			return nil, nil, err
		}
		repos, err := repository.NewMongoRepository(ctx, m.DB, logger)
		if err != nil {
			_ = m.Close(context.Background())
			return nil, nil, err
		}
		logger.Info("MongoDB connected", zap.String("database", config.MongoDB))
		return repos, func() { _ = m.Close(context.Background()) }, nil

	case utils.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemoryRepository(logger), func() {}, nil

	default:
		db, err := database.InitDB(ctx, config)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Database connected successfully")
		return repository.NewRepository(db, logger), db.Close, nil
	}
}

func newMailer(config *utils.Config, logger *zap.Logger) mailer.Sender {
	if !config.Email.Enabled() {
		logger.Warn("SMTP not configured, emails will be logged instead of sent")
		return mailer.NewLogMailer(logger, config.App.Debug)
	}

	return mailer.NewSMTPMailer(mailer.Config{
		Host:     config.Email.Host,
		Port:     config.Email.Port,
		User:     config.Email.User,
		Password: config.Email.Password,
		From:     config.Email.From,
	}, logger)
}
