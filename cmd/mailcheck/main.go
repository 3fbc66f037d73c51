// cmd/mailcheck/main.go sends one message through the configured email
// provider so SMTP credentials can be checked before going live.
package main

import (
	"context"
	"os"
	"time"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/pkg/email"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: go run ./cmd/mailcheck <recipient>")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mailer := email.NewEmailService(cfg, log)
	err = mailer.SendEmail(ctx, &email.Email{
		To:          []string{os.Args[1]},
		Subject:     cfg.App.Name + " mail check",
		HTMLContent: "<h1>It works</h1><p>" + cfg.App.CompanyName + " can send email.</p>",
		Type:        "mail_check",
	})
	if err != nil {
		log.WithError(err).WithField("provider", cfg.Email.Provider).Fatal("Mail check failed")
	}

	log.WithFields(logrus.Fields{
		"provider":  cfg.Email.Provider,
		"recipient": os.Args[1],
	}).Info("Mail check sent")
}
