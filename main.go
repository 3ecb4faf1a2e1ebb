package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/health-assistant-core/server/internal/agent/graph"
	"github.com/health-assistant-core/server/internal/agent/model"
	"github.com/health-assistant-core/server/internal/agent/repo"
	"github.com/health-assistant-core/server/internal/agent/session"
	"github.com/health-assistant-core/server/internal/core"
	"github.com/health-assistant-core/server/pkg/chunker"
	logx "github.com/health-assistant-core/server/pkg/logger"
	pkgredis "github.com/health-assistant-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Extraction model.ExtractionModelConfig
	Response   model.ResponseModelConfig
	Engine     model.EngineConfig
	Session    model.SessionConfig
	Search     model.SearchConfig
}

// Options are the command line flags of the demo.
type Options struct {
	Session string   `short:"s" long:"session" description:"session id (random when empty)"`
	Message []string `short:"m" long:"message" description:"message to send; repeat for several turns"`
	User    string   `short:"u" long:"user" default:"demo-user" description:"user id of the demo context"`
	QA      bool     `long:"qa" description:"run without user context (Q&A graph)"`
	Stream  bool     `long:"stream" description:"print replies line by line"`
}

var demoTurns = []string{
	"Hi! I'm 30, male, 80kg and 180cm. What's my BMI?",
	"And how many calories should I eat to lose weight? I exercise 3 times a week.",
	"How did I do this week?",
	"Thanks!",
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load .env file: %v\n", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to process environment config: %v\n", err)
		os.Exit(1)
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment), Level: envCfg.LogLevel})

	if err := run(context.Background(), envCfg, opts); err != nil {
		logx.Fatal().Err(err).Msg("Demo failed")
	}
}

func run(ctx context.Context, envCfg AppConfig, opts Options) error {
	var (
		store model.SessionStore
		logs  model.LogRepository
	)
	if envCfg.Redis.Enabled() {
		rdb, err := envCfg.Redis.New(ctx)
		if err != nil {
			return fmt.Errorf("initialise Redis client: %w", err)
		}
		defer rdb.Close()
		logx.Info().Msg("Connected to Redis successfully")
		store = repo.NewRedisSessionStore(rdb, envCfg.Session.TTL)
		logs = repo.NewRedisLogRepository(rdb)
	} else {
		logx.Warn().Msg("REDIS_URL not set - sessions and logs are kept in memory")
		store = repo.NewMemorySessionStore()
		logs = repo.NewMemoryLogRepository()
	}

	if err := seedLogs(ctx, logs, opts.User); err != nil {
		return err
	}

	engine, err := graph.BuildEngine(ctx, graph.Config{
		APIKey:     envCfg.APIKey,
		BaseURL:    envCfg.BaseURL,
		Extraction: envCfg.Extraction,
		Response:   envCfg.Response,
		Engine:     envCfg.Engine,
		Search:     envCfg.Search,
		Logs:       logs,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	svc := session.NewService(engine, store, logs)

	sessionID := opts.Session
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	messages := opts.Message
	if len(messages) == 0 {
		messages = demoTurns
	}

	var uc *model.UserContext
	if !opts.QA {
		uc = demoContext(opts.User)
	}

	for i, msg := range messages {
		fmt.Printf("\n🚀 Turn %d [%s]\n", i+1, sessionID)
		fmt.Printf("user: %s\n", msg)

		res, err := svc.Chat(ctx, session.Request{SessionID: sessionID, Message: msg, Context: uc})
		if err != nil {
			logx.Error().Err(err).Int("turn", i+1).Msg("Turn failed")
			if res == nil {
				return err
			}
		}

		fmt.Print("assistant: ")
		if opts.Stream {
			err = chunker.Emit(ctx, res.Reply, 150*time.Millisecond, func(chunk string) error {
				_, werr := fmt.Print(chunk)
				return werr
			})
			if err != nil {
				return err
			}
		} else {
			fmt.Println(res.Reply)
		}
		fmt.Printf("(%s, trace %v, $%.6f)\n", res.Outcome.Reason, res.Trace, res.TotalCostUSD)
	}
	return nil
}

func demoContext(userID string) *model.UserContext {
	return &model.UserContext{
		UserID:  userID,
		Profile: &model.UserProfile{Name: "Demo User", Email: "demo@example.com"},
		Goal: &model.Goal{
			Type:            model.GoalLoseWeight,
			Description:     "Lose 5kg in 3 months",
			TargetWeightKg:  75,
			Timeframe:       "3 months",
			ActivityLevel:   "moderate",
			CurrentWeightKg: 80,
			HeightCm:        180,
			Age:             30,
			Gender:          "male",
		},
	}
}

// seedLogs stores a few days of logs so the summary tool has data to read.
// Users that already have logs in the past week are left alone.
func seedLogs(ctx context.Context, logs model.LogRepository, userID string) error {
	now := time.Now().UTC()
	existing, err := logs.RecentDailyLogs(ctx, userID, now.AddDate(0, 0, -7))
	if err != nil {
		return fmt.Errorf("check existing logs: %w", err)
	}
	if len(existing) > 0 {
		logx.Debug().Str("user_id", userID).Int("logs", len(existing)).Msg("Demo logs already present")
		return nil
	}

	for d := 3; d >= 1; d-- {
		entry := model.DailyLog{
			Steps:             6000 + d*500,
			SleepHours:        6.5,
			WaterIntakeLiters: 1.5,
			Calories:          2100,
			CreatedAt:         now.AddDate(0, 0, -d),
		}
		if err := logs.AddDailyLog(ctx, userID, entry); err != nil {
			return fmt.Errorf("seed daily log: %w", err)
		}
	}
	if err := logs.AddFoodEntry(ctx, userID, model.FoodEntry{ItemName: "oatmeal", Calories: 300, Confirmed: true, CreatedAt: now.Add(-2 * time.Hour)}); err != nil {
		return fmt.Errorf("seed food entry: %w", err)
	}
	return nil
}
