package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-briefing/internal/api/http"
	"github.com/i474232898/weather-briefing/internal/briefing"
	"github.com/i474232898/weather-briefing/internal/config"
	"github.com/i474232898/weather-briefing/internal/events"
	"github.com/i474232898/weather-briefing/internal/ledger"
	"github.com/i474232898/weather-briefing/internal/narrative"
	"github.com/i474232898/weather-briefing/internal/observability"
	"github.com/i474232898/weather-briefing/internal/publish"
	"github.com/i474232898/weather-briefing/internal/scheduler"
	"github.com/i474232898/weather-briefing/internal/transport"
	"github.com/i474232898/weather-briefing/internal/weather"
	"github.com/i474232898/weather-briefing/internal/weather/providers"
)

// runTimeout bounds one scheduled invocation end to end.
const runTimeout = 5 * time.Minute

func main() {
	once := flag.Bool("once", false, "run a single invocation and exit with its status code")
	flag.Parse()

	os.Exit(run(*once))
}

func run(once bool) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return briefing.StatusAborted.Code()
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	loc, err := cfg.WeatherLocation()
	if err != nil {
		log.Error("invalid location", "error", err)
		return briefing.StatusAborted.Code()
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	store := newStore(cfg, log)

	emitter := newEmitter(cfg, log)
	defer func() {
		if err := emitter.Close(); err != nil {
			log.Warn("closing event emitter", "error", err)
		}
	}()

	pipeline := briefing.New(briefing.Options{
		Location:         loc,
		Periods:          cfg.PeriodSchedule(),
		NarrativePeriods: cfg.NarrativePeriods(),
		Analysis:         cfg.AnalysisThresholds(),
		Severity:         cfg.SeverityThresholds(),
		Language:         cfg.Narrative.Language,
		Hashtag:          cfg.Report.Hashtag,
		Banner:           cfg.Report.Banner,
		HistorySize:      cfg.Ledger.History,
	}, briefing.Deps{
		Gateway:   newGateway(cfg, log, metrics),
		Narrator:  newNarrator(cfg, log, metrics),
		Publisher: newPublisher(cfg, log, metrics),
		Store:     store,
		Emitter:   emitter,
		Logger:    log,
		Metrics:   metrics,
		Clock:     clock,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		return pipeline.RunOnce(ctx, clock.Now()).Code()
	}

	sched := scheduler.New(cfg.Schedule.Cron, pipeline, runTimeout, clock, log)
	if err := sched.Start(ctx); err != nil {
		log.Error("failed to start scheduler", "error", err)
		return briefing.StatusAborted.Code()
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-briefing",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Store:    store,
		Location: loc,
		Periods:  cfg.PeriodSchedule(),
		Clock:    clock,
		Metrics:  promhttp.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("weather briefing started", "location", loc.Name, "addr", cfg.HTTPAddr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	return 0
}

func newStore(cfg *config.Config, log *slog.Logger) ledger.Store {
	if cfg.Ledger.Path == "" {
		log.Warn("LEDGER_PATH is empty; deduplication only lasts for this process")
		return ledger.NewMemoryStore(ledger.RunRecord{})
	}
	store := ledger.NewFileStore(cfg.Ledger.Path)
	log.Info("using file ledger", "path", store.Path())
	return store
}

func newEmitter(cfg *config.Config, log *slog.Logger) events.Emitter {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.Nop{}
	}
	return events.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
}

// newGateway builds the provider chains. Every upstream gets its own
// client so one failing host cannot trip another's breaker.
func newGateway(cfg *config.Config, log *slog.Logger, metrics *observability.Metrics) *weather.Gateway {
	client := func(name string) *transport.Client {
		return transport.New(name, &http.Client{Timeout: cfg.Providers.Timeout}, cfg.Providers.UserAgent)
	}

	openMeteo := client("openmeteo")
	forecasts := make([]weather.Provider[weather.Forecast], 0, len(cfg.Providers.OpenMeteoModels))
	for _, model := range cfg.Providers.OpenMeteoModels {
		forecasts = append(forecasts, providers.NewOpenMeteoProvider(openMeteo, model, "", providers.DefaultWindow))
	}

	swpc := client("swpc")
	geomagnetic := []weather.Provider[weather.Geomagnetic]{
		providers.NewSWPCScalesProvider(swpc, ""),
		providers.NewSWPCKpProvider(swpc, ""),
	}

	airQuality := []weather.Provider[weather.AirQuality]{
		providers.NewOpenMeteoAirQualityProvider(client("openmeteo-air"), ""),
		providers.NewOpenWeatherProvider(client("openweather"), cfg.Providers.OpenWeatherAPIKey, ""),
		providers.NewWeatherAPIProvider(client("weatherapi"), cfg.Providers.WeatherAPIKey, ""),
	}

	return weather.NewGateway(forecasts, geomagnetic, airQuality, cfg.Providers.Timeout, log, metrics)
}

func newNarrator(cfg *config.Config, log *slog.Logger, metrics *observability.Metrics) *narrative.Cascade {
	n := cfg.Narrative
	client := func(name string) *transport.Client {
		return transport.New(name, &http.Client{Timeout: n.Timeout}, cfg.Providers.UserAgent)
	}

	backends := make([]narrative.Backend, 0, len(n.Backends))
	for _, name := range n.Backends {
		switch name {
		case "openrouter":
			backends = append(backends, narrative.NewChatBackend(name, narrative.OpenRouterBaseURL, n.OpenRouterModel, n.OpenRouterAPIKey, client(name)))
		case "groq":
			backends = append(backends, narrative.NewChatBackend(name, narrative.GroqBaseURL, n.GroqModel, n.GroqAPIKey, client(name)))
		case "gemini":
			backends = append(backends, narrative.NewGeminiBackend(narrative.GeminiBaseURL, n.GeminiModel, n.GeminiAPIKey, client(name)))
		}
	}
	return narrative.NewCascade(backends, n.Timeout, log, metrics)
}

func newPublisher(cfg *config.Config, log *slog.Logger, metrics *observability.Metrics) *publish.Telegram {
	client := transport.New("telegram", &http.Client{Timeout: 30 * time.Second}, cfg.Providers.UserAgent)
	return publish.NewTelegram(client, cfg.Telegram.BaseURL, cfg.Telegram.Token, cfg.Telegram.ChatID, log, metrics)
}
