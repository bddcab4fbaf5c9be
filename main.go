package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"HouseBot/bot"
	"HouseBot/bot/workflow"
	"HouseBot/bot/workflows/booking"
	"HouseBot/internal/cache"
	"HouseBot/internal/config"
	"HouseBot/internal/database"
	"HouseBot/internal/http-server/api"
	"HouseBot/internal/http-server/handlers/telegram"
	"HouseBot/internal/lib/logger"
	"HouseBot/internal/lib/sl"
	service "HouseBot/internal/service/booking"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	// Errors are mirrored to the admin chat
	if conf.Telegram.AdminId != 0 && conf.Telegram.ApiKey != "" {
		tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize admin reporter", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
		}
	}

	lg.Info("starting housebot", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	db, err := repository.Connect(conf.SQL.DSN, lg)
	if err != nil {
		lg.Error("database connect", sl.Err(err))
		return
	}
	location := conf.TimeLocation()
	store := repository.NewStore(db, location, lg)
	if conf.SQL.AutoMigrate {
		if err = store.Migrate(); err != nil {
			lg.Error("database migrate", sl.Err(err))
			return
		}
	}
	lg.With(
		slog.String("location", location.String()),
	).Info("database initialized")

	bookingService := service.NewService(store, location, lg)

	var updates telegram.UpdateHandler
	if conf.Telegram.Enabled {
		userBot, err := setupUserBot(conf, lg, bookingService)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else if conf.Telegram.Mode == "polling" {
			go func() {
				if err := userBot.Start(); err != nil {
					lg.Error("telegram bot error", sl.Err(err))
				}
			}()
		} else {
			if err = userBot.SetWebhook(conf.Telegram.WebhookURL, conf.Telegram.WebhookSecret); err != nil {
				lg.Error("telegram webhook", sl.Err(err))
			}
			updates = userBot
		}
	}

	// *** blocking start with http server ***
	err = api.New(conf, lg, bookingService, updates)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}

func setupUserBot(conf *config.Config, lg *slog.Logger, svc *service.Service) (*bot.UserBot, error) {
	backend, err := sessionBackend(conf, lg)
	if err != nil {
		return nil, err
	}
	sessions := workflow.NewStore(backend, conf.Session.TTL, conf.Session.Prefix)

	flow := booking.NewWorkflow(svc, sessions, conf.Booking.PageSize, lg)
	engine := workflow.NewEngine(flow, sessions, lg)

	userBot, err := bot.NewUserBot(conf.Telegram.BotName, conf.Telegram.ApiKey, lg)
	if err != nil {
		return nil, err
	}
	userBot.SetEngine(engine)

	lg.With(
		slog.String("bot_name", conf.Telegram.BotName),
		slog.String("mode", conf.Telegram.Mode),
		slog.String("sessions", conf.Session.Driver),
	).Info("telegram bot initialized")
	return userBot, nil
}

func sessionBackend(conf *config.Config, lg *slog.Logger) (workflow.Backend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch conf.Session.Driver {
	case "redis":
		client, err := cache.NewRedisClient(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, err
		}
		lg.With(slog.String("addr", conf.Redis.Addr)).Info("redis session store")
		return cache.NewRedisBackend(client), nil
	case "mongo":
		mongo, err := repository.NewMongoClient(conf, lg)
		if err != nil {
			return nil, err
		}
		if err = mongo.EnsureSessionIndex(ctx); err != nil {
			return nil, err
		}
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo session store")
		return mongo, nil
	case "memory":
		lg.Warn("in-memory session store; sessions are lost on restart")
		return cache.NewMemoryBackend(conf.Session.MemorySize)
	default:
		return nil, fmt.Errorf("unknown session driver %q", conf.Session.Driver)
	}
}
