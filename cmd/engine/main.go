package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aidehq/aide/modules/engine"
	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/audit"
	"github.com/aidehq/aide/pkg/authn"
	"github.com/aidehq/aide/pkg/captcha"
	"github.com/aidehq/aide/pkg/config"
	"github.com/aidehq/aide/pkg/httpserver"
	"github.com/aidehq/aide/pkg/logger"
	"github.com/aidehq/aide/pkg/pg"
	"github.com/aidehq/aide/pkg/promo"
	"github.com/aidehq/aide/pkg/quota"
	"github.com/aidehq/aide/pkg/redis"
	"github.com/aidehq/aide/pkg/requestid"
	"github.com/aidehq/aide/pkg/session"
	"github.com/aidehq/aide/pkg/subscription"
)

type appConfig struct {
	LogFormat  string        `env:"LOG_FORMAT" envDefault:"json"`
	SessionTTL time.Duration `env:"SESSION_CACHE_TTL" envDefault:"5m"`

	HTTP      httpserver.Config
	PG        pg.Config
	Redis     redis.Config
	OIDC      authn.OIDCConfig
	Directory admin.DirectoryConfig
	Paddle    subscription.PaddleConfig
	Captcha   captcha.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("engine stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	verifier, err := authn.NewOIDCVerifier(ctx, cfg.OIDC)
	if err != nil {
		return err
	}

	billing, err := subscription.NewPaddleProvider(cfg.Paddle)
	if err != nil {
		return err
	}

	auditLog := audit.NewLogger(audit.NewPostgresStorage(pool),
		audit.WithRequestIDExtractor(func(ctx context.Context) (string, bool) {
			id := requestid.FromContext(ctx)
			return id, id != ""
		}))

	sessions := session.NewResolver(
		session.NewRedisStore(redisClient),
		authn.NewAuthenticator(verifier, authn.WithLogger(log)),
		session.WithTTL(cfg.SessionTTL),
		session.WithLogger(log),
	)

	admins := admin.NewResolver(
		admin.NewPostgresStore(pool),
		admin.NewHTTPDirectory(cfg.Directory),
		auditLog,
		admin.WithResolverLogger(log),
	)

	subscriptions := subscription.NewManager(
		subscription.NewPostgresStore(pool),
		billing,
		auditLog,
		subscription.WithLogger(log),
	)

	quotas := quota.NewTracker(subscriptions, quota.NewPostgresStore(pool),
		quota.WithLogger(log))

	promos := promo.NewApplier(
		promo.NewPostgresStore(pool),
		subscriptions,
		auditLog,
		promo.WithTransactor(pg.NewTxRunner(pool)),
		promo.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))
	r.Mount("/", engine.Router(engine.RouterOptions{
		Sessions:      sessions,
		Admins:        admins,
		Subscriptions: subscriptions,
		Quotas:        quotas,
		Promos:        promos,
		Captcha:       captcha.NewVerifier(cfg.Captcha, captcha.WithLogger(log)),
		Logger:        log,
	}))

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}
