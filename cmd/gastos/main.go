package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/backend"
	"gastos/internal/config"
	applog "gastos/internal/log"
	"gastos/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "gastos"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, cleanup, err := backend.Open(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to open backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			events = nil
		} else {
			defer events.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	engine := services.New(services.Options{
		Tables:          tables,
		ExpensesSheet:   cfg.ExpensesSheet,
		CategoriesSheet: cfg.CategoriesSheet,
		MethodsSheet:    cfg.MethodsSheet,
		SettingsSheet:   cfg.SettingsSheet,
		UserID:          cfg.UserID,
		Events:          events,
	})
	if err := engine.Bootstrap(ctx); err != nil {
		logger.Error("Bootstrap failed", "error", err)
		os.Exit(1)
	}

	logger.Info("gastos started",
		"backend", cfg.DataBackend,
		"user_id", cfg.UserID,
		"summary_hour", cfg.SummaryHour)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consoleLoop(ctx, engine) })
	g.Go(func() error { return summaryLoop(ctx, engine, events, cfg) })

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Shutdown with error", "error", err)
		os.Exit(1)
	}
	logger.Info("gastos stopped gracefully")
}

// consoleLoop reads lines from stdin and feeds them to the engine; it is
// the local stand-in for a chat transport.
func consoleLoop(ctx context.Context, engine *services.Engine) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			fmt.Println(dispatch(ctx, engine, line))
		}
	}
}

// dispatch routes slash commands; everything else is free text.
func dispatch(ctx context.Context, engine *services.Engine, line string) string {
	if !strings.HasPrefix(line, "/") {
		return engine.HandleText(ctx, line)
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/menu":
		return engine.StartGuidedEntry(ctx)
	case "/cancelar":
		return engine.Cancel()
	case "/categorias":
		return engine.ListCategories(ctx)
	case "/addcategoria":
		return engine.AddCategory(ctx, arg)
	case "/rmcategoria":
		return removeByArg(ctx, arg, engine.RemoveCategory)
	case "/formas":
		return engine.ListPaymentMethods(ctx)
	case "/addforma":
		return engine.AddPaymentMethod(ctx, arg)
	case "/rmforma":
		return removeByArg(ctx, arg, engine.RemovePaymentMethod)
	case "/configurar":
		day, err := strconv.Atoi(arg)
		if err != nil {
			return "❌ Informe o dia do ciclo: /configurar 10"
		}
		return engine.SetCycleDay(ctx, day)
	case "/relatorio":
		return engine.Report(ctx)
	case "/resumo":
		return engine.DailySummary(ctx, time.Now())
	case "/ajuda":
		return engine.Help()
	default:
		return "🤔 Comando desconhecido. Veja /ajuda."
	}
}

func removeByArg(ctx context.Context, arg string, remove func(context.Context, int) string) string {
	pos, err := strconv.Atoi(arg)
	if err != nil {
		return "❌ Informe o número mostrado na listagem."
	}
	return remove(ctx, pos)
}

// summaryLoop fires the daily summary once per day at the configured
// local hour, printing the body and publishing it when AMQP is wired.
func summaryLoop(ctx context.Context, engine *services.Engine, events *amqp.Client, cfg *config.Config) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	var lastFired string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			day := now.Format("2006-01-02")
			if now.Hour() != cfg.SummaryHour || day == lastFired {
				continue
			}
			lastFired = day

			body := engine.DailySummary(ctx, now)
			fmt.Println(body)
			if events != nil {
				if err := events.Publish(ctx, amqp.NewDailySummary(cfg.UserID, body)); err != nil {
					slog.WarnContext(ctx, "daily summary publish failed", "error", err)
				}
			}
		}
	}
}
