package main

import (
	"net/http"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/trms/treasury-mock/internal/api"
	"github.com/trms/treasury-mock/internal/config"
	"github.com/trms/treasury-mock/internal/eod"
	"github.com/trms/treasury-mock/internal/messaging"
	"github.com/trms/treasury-mock/internal/repository"
	"github.com/trms/treasury-mock/internal/seed"
	"github.com/trms/treasury-mock/internal/treasury"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	log.SetHeader("${time_rfc3339} ${level}")

	log.Infof("Initializing database at %s", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	repos := seed.Repos{
		Accounts:     repository.NewAccountRepo(db),
		Transactions: repository.NewTransactionRepo(db),
		Messages:     repository.NewMessageRepo(db),
		Settlements:  repository.NewSettlementRepo(db),
		MarketData:   repository.NewMarketDataRepo(db),
		RateResets:   repository.NewRateResetRepo(db),
	}
	reportRepo := repository.NewReportRepo(db)

	// Seed the demo book if the DB is empty.
	if cfg.SeedOnEmpty {
		if _, err := seed.LoadIfEmpty(repos, cfg.OurBIC, time.Now()); err != nil {
			log.Warnf("Failed to seed database: %v", err)
		}
	}

	// Create services.
	messagingSvc := messaging.NewService(repos.Messages, repos.Settlements, repos.Transactions, reportRepo, messaging.Options{
		OurBIC:               cfg.OurBIC,
		DefaultReceiverBIC:   cfg.DefaultReceiverBIC,
		RedemptionReportsDir: cfg.RedemptionReportsDir,
		EODReportsDir:        cfg.EODReportsDir,
	})
	treasurySvc := treasury.NewService(repos.Accounts, repos.Transactions)
	eodSvc := eod.NewService(repos.MarketData, repos.Transactions, repos.RateResets, messagingSvc, cfg.MarketDataMaxAge)

	// The demo feeds are never redelivered, so restamp them on every start.
	if cfg.SeedOnEmpty {
		if _, err := eodSvc.RefreshMarketData(); err != nil {
			log.Warnf("Failed to refresh market data: %v", err)
		}
	}

	router := api.NewRouter(messagingSvc, treasurySvc, eodSvc)

	log.Infof("Treasury mock (SWIFT %s)", cfg.OurBIC)
	log.Infof("Listening on http://localhost:%s", cfg.Port)
	log.Infof("API base: http://localhost:%s/api/v1", cfg.Port)
	log.Infof("")
	log.Infof("Endpoints:")
	log.Infof("  POST   /api/v1/swift/messages")
	log.Infof("  POST   /api/v1/swift/messages/reconcile")
	log.Infof("  POST   /api/v1/swift/reports/redemptions/process")
	log.Infof("  GET    /api/v1/swift/reports/eod/verify")
	log.Infof("  GET    /api/v1/accounts")
	log.Infof("  GET    /api/v1/transactions")
	log.Infof("  GET    /api/v1/eod/readiness")
	log.Infof("  POST   /api/v1/eod/market-data")
	log.Infof("  POST   /api/v1/eod/market-data/refresh")
	log.Infof("  POST   /api/v1/eod/propose-fixings")
	log.Infof("  POST   /api/v1/eod/run")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
