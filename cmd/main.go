package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/text/language"

	"restro-pos/internal/config"
	"restro-pos/internal/database"
	"restro-pos/internal/httpapi"
	"restro-pos/internal/invoice"
	"restro-pos/internal/logger"
	"restro-pos/internal/messaging"
	"restro-pos/internal/pos/backend"
	"restro-pos/internal/pos/checkout"
	"restro-pos/internal/pos/gateway"
	"restro-pos/internal/pos/outbox"
	"restro-pos/internal/pos/terminal"
	"restro-pos/internal/services/menu"
	"restro-pos/internal/services/notification"
	"restro-pos/internal/services/order"
	"restro-pos/internal/services/payment"
	"restro-pos/internal/services/table"
	"restro-pos/migrations"
)

func main() {
	var (
		mode       = flag.String("mode", "", "Service mode (api-server, pos-terminal, table-reconciler, notification-subscriber)")
		configPath = flag.String("config", "config.yaml", "Path to the YAML config file")
		port       = flag.Int("port", 0, "HTTP port for api-server (overrides config)")
		backendURL = flag.String("backend", "", "Backend base URL for pos-terminal (overrides config)")
		symbol     = flag.String("currency-symbol", "₹", "Currency symbol shown by the terminal")
		locale     = flag.String("locale", "en-IN", "Locale used to group invoice amounts")
		prefetch   = flag.Int("prefetch", 10, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *backendURL != "" {
		cfg.Backend.BaseURL = *backendURL
	}

	// the terminal owns stdout, so its logs go to stderr
	log := logger.New(*mode)
	if *mode == "pos-terminal" {
		log = logger.NewWithWriter(*mode, os.Stderr)
	}
	requestID := logger.GenerateRequestID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode":   *mode,
		"config": *configPath,
	})

	switch *mode {
	case "api-server":
		err = runAPIServer(ctx, cfg, log)
	case "pos-terminal":
		tag, parseErr := language.Parse(*locale)
		if parseErr != nil {
			log.Error("validation_failed", fmt.Sprintf("Unknown locale: %s", *locale), requestID, parseErr, nil)
			os.Exit(1)
		}
		err = runTerminal(ctx, cfg, log, *symbol, tag)
	case "table-reconciler":
		err = runReconciler(ctx, cfg, log)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}
	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runAPIServer serves the REST backend the terminals talk to
func runAPIServer(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()
	publisher := messaging.NewPublisher(conn, log)

	menuStore := menu.NewPostgresStore(db)
	router := httpapi.NewRouter(log, db.Ping,
		order.NewHandler(order.NewService(order.NewPostgresStore(db), publisher, log), log),
		table.NewHandler(table.NewService(table.NewPostgresStore(db), publisher, log), log),
		menu.NewHandler(menuStore, log),
		menu.NewCategoryHandler(menuStore, log),
		payment.NewHandler(payment.NewService(payment.NewPostgresStore(db), cfg.Gateway, log), log),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("service_started", fmt.Sprintf("API server started on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port": cfg.Server.Port,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("graceful_shutdown", "Shutting down HTTP server", requestID, nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runTerminal runs the interactive point-of-sale on stdin/stdout
func runTerminal(ctx context.Context, cfg *config.Config, log *logger.Logger, symbol string, tag language.Tag) error {
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)

	pending, err := outbox.Open(cfg.Outbox.Path)
	if err != nil {
		return fmt.Errorf("failed to open outbox: %w", err)
	}
	defer pending.Close()

	store := checkout.NewStore()
	term := terminal.New(os.Stdin, os.Stdout, terminal.Deps{
		Store:     store,
		Backend:   client,
		Formatter: invoice.NewFormatter(tag),
		Logger:    log,
		Symbol:    symbol,
	})
	term.Submitter = checkout.NewSubmitter(store, client,
		checkout.NewTableSync(client, pending, log, cfg.Backend.Timeout), log,
		checkout.Options{
			Authorizer:      gateway.New(client, term.Widget(), log),
			Timeout:         cfg.Backend.Timeout,
			IdempotencyKeys: cfg.Checkout.IdempotencyKeys,
		})

	// retry table syncs left behind by earlier sessions while the terminal runs;
	// the deferred stop runs before the outbox is closed
	stopReconciler := outbox.NewReconciler(pending, client, log, reconcilerOptions(cfg)).Start(ctx)
	defer stopReconciler()

	return term.Run(ctx)
}

// runReconciler drains the outbox on its own, for terminals that are switched off
func runReconciler(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	pending, err := outbox.Open(cfg.Outbox.Path)
	if err != nil {
		return fmt.Errorf("failed to open outbox: %w", err)
	}
	defer pending.Close()

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)
	return outbox.NewReconciler(pending, client, log, reconcilerOptions(cfg)).Run(ctx)
}

func reconcilerOptions(cfg *config.Config) outbox.Options {
	return outbox.Options{
		Interval:    cfg.Outbox.Interval,
		BatchSize:   cfg.Outbox.BatchSize,
		Timeout:     cfg.Backend.Timeout,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	}
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	return notification.NewSubscriber(consumer, os.Stdout, log).Start(ctx)
}
