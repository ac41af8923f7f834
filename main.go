package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/Sampath-yadav/Sahay-Project/agent/agents/orchestrator"
	"github.com/Sampath-yadav/Sahay-Project/agent/agents/reasoner"
	"github.com/Sampath-yadav/Sahay-Project/agent/capability"
	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	"github.com/Sampath-yadav/Sahay-Project/agent/gateway"
	"github.com/Sampath-yadav/Sahay-Project/agent/llm"
	"github.com/Sampath-yadav/Sahay-Project/agent/notify"
	"github.com/Sampath-yadav/Sahay-Project/agent/prompt"
	"github.com/Sampath-yadav/Sahay-Project/agent/resolver"
	statex "github.com/Sampath-yadav/Sahay-Project/agent/state"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
	memorystore "github.com/Sampath-yadav/Sahay-Project/agent/store/memory"
	postgresstore "github.com/Sampath-yadav/Sahay-Project/agent/store/postgres"
	supabasestore "github.com/Sampath-yadav/Sahay-Project/agent/store/supabase"
	"github.com/Sampath-yadav/Sahay-Project/agent/tool"
	"github.com/Sampath-yadav/Sahay-Project/api"
	configx "github.com/Sampath-yadav/Sahay-Project/pkg/config"
	geminix "github.com/Sampath-yadav/Sahay-Project/pkg/gemini"
	_ "github.com/Sampath-yadav/Sahay-Project/pkg/logger/autoload"
	metricsx "github.com/Sampath-yadav/Sahay-Project/pkg/metrics"
	openrouterx "github.com/Sampath-yadav/Sahay-Project/pkg/openrouter"
	postgresx "github.com/Sampath-yadav/Sahay-Project/pkg/postgres"
	qstashx "github.com/Sampath-yadav/Sahay-Project/pkg/qstash"
	redisx "github.com/Sampath-yadav/Sahay-Project/pkg/redis"
)

type AppConfig struct {
	StoreDriver        string        `split_words:"true" default:"memory"`
	AutoMigrate        bool          `split_words:"true" default:"false"`
	Reasoner           string        `envconfig:"REASONER" default:"openrouter"`
	History            string        `envconfig:"HISTORY" default:"none"`
	Notifier           string        `envconfig:"NOTIFIER" default:"log"`
	NotifyDestination  string        `split_words:"true"`
	NotifyTimeout      time.Duration `split_words:"true" default:"10s"`
	HistoryTTL         time.Duration `split_words:"true" default:"24h"`
	Timezone           string        `envconfig:"TIMEZONE" default:"Asia/Kolkata"`
	DefaultCountryCode string        `split_words:"true" default:"91"`
}

func (c AppConfig) Validate() error {
	if !oneOf(c.StoreDriver, "memory", "postgres", "supabase") {
		return fmt.Errorf("%w: unknown store driver %q", contractx.ErrValidation, c.StoreDriver)
	}
	if !oneOf(c.Reasoner, "openrouter", "gemini") {
		return fmt.Errorf("%w: unknown reasoner %q", contractx.ErrValidation, c.Reasoner)
	}
	if !oneOf(c.History, "none", "redis", "upstash") {
		return fmt.Errorf("%w: unknown history store %q", contractx.ErrValidation, c.History)
	}
	if !oneOf(c.Notifier, "log", "twilio", "qstash") {
		return fmt.Errorf("%w: unknown notifier %q", contractx.ErrValidation, c.Notifier)
	}
	if c.Notifier == "qstash" && strings.TrimSpace(c.NotifyDestination) == "" {
		return fmt.Errorf("%w: APP_NOTIFY_DESTINATION is required for qstash", contractx.ErrValidation)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("scheduler stopped")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")
	serverCfg := configx.MustNew[api.Config]("HTTP")
	gatewayCfg := configx.MustNew[gateway.Config]("GATEWAY")

	loc, err := time.LoadLocation(appCfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", appCfg.Timezone, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := metricsx.New(registry)

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	rawStore, closeStore, err := buildStore(ctx, *appCfg)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	gw := gateway.New(append(gatewayCfg.Options(), gateway.WithMetrics(metrics))...)
	store := gateway.NewResilientStore(rawStore, gw)
	res := resolver.New(store, resolver.WithLocation(loc))

	notifier, err := buildNotifier(*appCfg, metrics)
	if err != nil {
		return err
	}

	handlers := capability.New(store, res, notifier,
		capability.WithDefaultCountryCode(appCfg.DefaultCountryCode),
		capability.WithNotifyTimeout(appCfg.NotifyTimeout),
	)
	executor := tool.NewExecutor(handlers, tool.WithMetrics(metrics))

	checks := []api.Check{{Name: "store", Probe: store.Ping}}

	rsn, probe, closeReasoner, err := buildReasoner(ctx, *appCfg, res.Today)
	if err != nil {
		return err
	}
	closers = append(closers, closeReasoner)
	if probe != nil {
		checks = append(checks, api.Check{Name: "llm", Probe: probe})
	}

	history, historyProbe, closeHistory, err := buildHistory(ctx, *appCfg)
	if err != nil {
		return err
	}
	closers = append(closers, closeHistory)
	if historyProbe != nil {
		checks = append(checks, api.Check{Name: "history", Probe: historyProbe})
	}

	orch, err := orchestrator.New(rsn, executor, history,
		orchestrator.WithMetrics(metrics),
		orchestrator.WithClock(res.Now),
	)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	router := api.NewRouter(*serverCfg, api.Deps{
		Chat:     orch,
		Checks:   checks,
		Gatherer: registry,
	})

	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", serverCfg.Addr).
			Str("store", appCfg.StoreDriver).
			Str("reasoner", appCfg.Reasoner).
			Str("history", appCfg.History).
			Str("notifier", appCfg.Notifier).
			Msg("scheduler listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildStore(ctx context.Context, cfg AppConfig) (storex.Store, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pgCfg := configx.MustNew[postgresx.Config]("POSTGRES")
		if cfg.AutoMigrate {
			if err := postgresx.Migrate(ctx, pgCfg.DSN); err != nil {
				return nil, nil, err
			}
			log.Info().Msg("postgres migrations applied")
		}
		db, err := postgresx.Open(*pgCfg)
		if err != nil {
			return nil, nil, err
		}
		return postgresstore.New(db), func() { _ = db.Close() }, nil

	case "supabase":
		sbCfg := configx.MustNew[supabasestore.Config]("SUPABASE")
		client, err := supabasestore.NewClient(*sbCfg)
		if err != nil {
			return nil, nil, err
		}
		return supabasestore.New(client), func() {}, nil

	default:
		log.Warn().Msg("using in-memory store seeded with demo providers")
		return memorystore.New(memorystore.WithProviders(memorystore.DemoProviders()...)), func() {}, nil
	}
}

func buildNotifier(cfg AppConfig, metrics *metricsx.Metrics) (capability.Notifier, error) {
	switch cfg.Notifier {
	case "twilio":
		twCfg := configx.MustNew[notify.TwilioConfig]("TWILIO")
		return notify.NewTwilioNotifier(*twCfg, notify.WithMetrics(metrics))
	case "qstash":
		qsCfg := configx.MustNew[qstashx.Config]("QSTASH")
		return notify.NewQStashNotifier(qstashx.MustNew(*qsCfg), cfg.NotifyDestination, metrics)
	default:
		return notify.NewLogNotifier(), nil
	}
}

func buildReasoner(
	ctx context.Context,
	cfg AppConfig,
	today func() string,
) (contractx.Reasoner, func(context.Context) error, func(), error) {
	systemPrompt := prompt.LoadPromptSet().Scheduler

	if cfg.Reasoner == "gemini" {
		gmCfg := configx.MustNew[geminix.Config]("GEMINI")
		client, err := geminix.NewClient(ctx, *gmCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		r, err := reasoner.NewGemini(client, *gmCfg, systemPrompt, reasoner.WithToday(today))
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		return r, nil, func() { _ = client.Close() }, nil
	}

	llmCfg := configx.MustNew[llm.Config]("LLM")
	planCfg := llmCfg.OpenRouterFor(llm.PassPlan)
	planModel, err := planCfg.New(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build plan model: %w", err)
	}

	respondModel := planModel
	if llmCfg.SplitModels() {
		respondCfg := llmCfg.OpenRouterFor(llm.PassRespond)
		if respondModel, err = respondCfg.New(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("build respond model: %w", err)
		}
	}

	r, err := reasoner.NewEino(ctx, planModel, respondModel, systemPrompt, reasoner.WithToday(today))
	if err != nil {
		return nil, nil, nil, err
	}

	prober := openrouterx.NewProber(openrouterx.NewClient(planCfg), planCfg.Model)
	return r, prober.Probe, func() {}, nil
}

func buildHistory(ctx context.Context, cfg AppConfig) (contractx.HistoryStore, func(context.Context) error, func(), error) {
	switch cfg.History {
	case "redis":
		rdCfg := configx.MustNew[redisx.Config]("REDIS")
		client, err := redisx.NewClient(ctx, *rdCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		h, err := statex.NewRedisHistoryStore(client, statex.WithTTL(cfg.HistoryTTL))
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		return h, h.Ping, func() { _ = client.Close() }, nil

	case "upstash":
		upCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		h, err := statex.NewUpstashHistoryStore(*upCfg, statex.WithTTL(cfg.HistoryTTL))
		if err != nil {
			return nil, nil, nil, err
		}
		return h, h.Ping, func() {}, nil

	default:
		return nil, nil, func() {}, nil
	}
}
