package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"billingx/internal/config"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	configPath := os.Getenv("BILLINGX_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath
	}
	configFlag := flag.String("config", configPath, "Path to the YAML config file")
	addrFlag := flag.String("addr", "", "HTTP network address (overrides config and PORT)")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		errorLog.Fatal(err)
	}
	if *addrFlag != "" {
		cfg.Server.Address = *addrFlag
	}

	app, err := initializeApp(cfg, errorLog, infoLog)
	if err != nil {
		errorLog.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startExecutorDrainer(ctx, app.queue, infoLog, errorLog)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		ErrorLog:     errorLog,
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	infoLog.Printf("Starting debug billing server on %s (package %s, executor %s)", cfg.Server.Address, cfg.Billing.PackageName, cfg.Billing.Executor)
	if err := srv.ListenAndServe(); err != nil {
		errorLog.Fatal(err)
	}
}
