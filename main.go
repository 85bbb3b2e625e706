package main

import (
	"database/sql"
	"fmt"

	"wealthtrack/internal/analytics"
	"wealthtrack/internal/api"
	"wealthtrack/internal/migrations"
	"wealthtrack/internal/parser"
	"wealthtrack/internal/portfolio"
	"wealthtrack/internal/provider"
	"wealthtrack/internal/utils"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

func main() {
	// Initialize logger
	logger := utils.NewAppLogger()

	// Load configuration
	config, err := utils.LoadConfig("configs")
	if err != nil {
		fmt.Println("Error loading config:", err)
	}

	// Initialize database connection
	db, err := sql.Open("postgres", config.Database.DSN)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
	}
	defer db.Close()

	err = db.Ping()
	if err != nil {
		fmt.Println("Error pinging database:", err)
	}

	logger.Info("Connected to database successfully")

	if err := migrations.RunMigrations(db, logger); err != nil {
		fmt.Println("Error running migrations:", err)
	}

	// Wire the analysis pipeline
	navClient := provider.NewNAVClient(config.Provider, logger)
	resolver := provider.NewAMFIResolver(config.Provider, logger)
	engine := analytics.NewEngine(config.Analytics.RiskFreeRate)
	statementParser := parser.NewParser(resolver, logger)
	analyzer := portfolio.NewAnalyzer(navClient, resolver, engine, logger)

	// Refresh cached NAV data and the AMFI scheme master once a day
	scheduler := cron.New()
	scheduler.AddFunc("@daily", func() {
		logger.Info("Running daily provider refresh")
		navClient.ClearCache()
		resolver.Refresh()
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Create and start the server
	server := api.NewServer(logger, config, db, statementParser, analyzer)
	if err := server.Start(); err != nil {
		fmt.Println("Error starting server:", err)
	}
}
