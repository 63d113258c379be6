package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pay2me/storefront/internal/config"
	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/notify"
)

func main() {
	config.LoadDotEnv(".env")
	cfg := config.Load()

	config.MustNonEmptyList(cfg.KafkaBrokers, "KAFKA_BROKERS")
	config.MustNonEmpty(cfg.SMTP.Host, "SMTP_HOST")

	l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName+"-mailer")

	reader := notify.NewReader(cfg.KafkaBrokers, cfg.ServiceName+"-mailer")
	w := &notify.Worker{
		Reader: reader,
		Sender: &notify.SMTPMailer{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		},
		Log: l,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l.Info("mailer_started", "topic", notify.TopicTasks)
	err := w.Run(ctx)
	if cerr := reader.Close(); cerr != nil {
		l.Error("kafka_reader_close_error", "error", cerr)
	}
	if err != nil {
		l.Error("mailer_stopped", "error", err)
		os.Exit(1)
	}
	l.Info("mailer_stopped")
}
