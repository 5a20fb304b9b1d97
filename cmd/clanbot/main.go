package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"clanbot/internal/bot"
	"clanbot/internal/config"
	"clanbot/internal/registry"
	"clanbot/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}

	// a missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("configuration invalid")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("database open failed")
	}
	defer st.Close()

	reg := registry.New(cfg.PromptCooldown)
	defer reg.Shutdown()

	b, err := bot.New(cfg, st, reg, logger)
	if err != nil {
		logger.WithError(err).Fatal("bot setup failed")
	}

	if err := b.Open(); err != nil {
		logger.WithError(err).Fatal("gateway connect failed")
	}
	logger.Info("bot is running, press Ctrl+C to exit")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if err := b.Close(); err != nil {
		logger.WithError(err).Warn("gateway close failed")
	}
}
