package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wonny/adpilot/internal/brain"
	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/internal/snapshot"
	"github.com/wonny/adpilot/pkg/config"
	"github.com/wonny/adpilot/pkg/database"
	"github.com/wonny/adpilot/pkg/logger"
	"github.com/wonny/adpilot/pkg/redis"
)

// app holds the wired runtime shared by every command
// ⭐ SSOT: SnapshotProvider 선택은 여기서 한 번만
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	engineCfg    *engineconfig.Config
	db           *database.DB // nil = DATABASE_URL 없음
	redis        *redis.Client
	provider     contracts.SnapshotProvider
	results      *snapshot.ResultRepository // nil = 저장 안 함
	orchestrator *brain.Orchestrator
}

type appOptions struct {
	store     bool      // DB / Redis 연결
	logOutput io.Writer // nil = stdout
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	var log *logger.Logger
	if opts.logOutput != nil {
		log = logger.NewWithWriter(cfg, opts.logOutput)
	} else {
		log = logger.New(cfg)
	}

	engineCfg, err := loadEngineConfig(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range engineconfig.Warn(engineCfg) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		engineCfg: engineCfg,
		provider:  snapshot.NewNullProvider(),
	}

	if opts.store {
		if err := a.connectStore(); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.orchestrator = brain.NewOrchestrator(engineCfg, log, brain.WithSnapshotProvider(a.provider))
	return a, nil
}

func (a *app) connectStore() error {
	if a.cfg.Database.Enabled() {
		db, err := database.New(a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.provider = snapshot.NewPostgresProvider(db.Pool)
		a.results = snapshot.NewResultRepository(db.Pool)
		a.log.Info("Connected to database")
	} else {
		a.log.Warn("DATABASE_URL not set, campaign snapshots unavailable")
	}

	client, err := redis.New(a.cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	if client.Enabled() {
		a.provider = snapshot.NewCachedProvider(a.provider, client, a.cfg.Engine.SnapshotCacheTTL, a.log)
		a.log.Info("Connected to redis")
	}

	return nil
}

// Close releases DB and Redis connections
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// resultStore matches handlers.ResultStore (and jobs.ResultSaver)
type resultStore interface {
	SaveOptimization(ctx context.Context, result *contracts.OptimizationResult) error
	SaveAssessment(ctx context.Context, qa *contracts.QualityAssessment) error
	LatestOptimization(ctx context.Context, campaignID string) (*contracts.OptimizationResult, error)
}

// store returns a nil interface (not a typed nil) without a database
func (a *app) store() resultStore {
	if a.results == nil {
		return nil
	}
	return a.results
}

func loadEngineConfig(cfg *config.Config) (*engineconfig.Config, error) {
	path := engineConfigPath
	if path == "" {
		path = cfg.Engine.ConfigPath
	}
	engineCfg, _, err := engineconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load engine config %q: %w", path, err)
	}
	return engineCfg, nil
}

// readCampaign decodes a campaign JSON file; "-" reads stdin
func readCampaign(path string) (*contracts.CampaignInput, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open campaign file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return decodeCampaign(r)
}

func decodeCampaign(r io.Reader) (*contracts.CampaignInput, error) {
	var c contracts.CampaignInput
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode campaign: %w", err)
	}
	return &c, nil
}

// splitList splits a comma separated flag value, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
