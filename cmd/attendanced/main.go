package main

import (
	"context"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alanbarret/wallet-attendance-system/adapters/directory"
	"github.com/alanbarret/wallet-attendance-system/adapters/events"
	"github.com/alanbarret/wallet-attendance-system/adapters/keystore"
	"github.com/alanbarret/wallet-attendance-system/adapters/records"
	"github.com/alanbarret/wallet-attendance-system/adapters/replay"
	"github.com/alanbarret/wallet-attendance-system/config"
	"github.com/alanbarret/wallet-attendance-system/core"
	"github.com/alanbarret/wallet-attendance-system/internal/logger"
	"github.com/alanbarret/wallet-attendance-system/ports"
	"github.com/alanbarret/wallet-attendance-system/service"
	transport "github.com/alanbarret/wallet-attendance-system/transport/http"
)

func main() {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl := logger.New(cfg.LogEnv, cfg.LogLevel)
	defer func() { _ = zl.Sync() }()

	keys, generated, err := keystore.LoadOrGenerate(cfg.KeysDir)
	if err != nil {
		zl.Fatal("loading server keys", zap.Error(err))
	}
	if generated {
		zl.Info("generated new server keypair")
	}
	zl.Info("server signing key",
		zap.String("public_key", core.EncodeKey(keys.PublicKey())),
		zap.Duration("rotation_interval", cfg.RotationInterval),
		zap.Duration("grace_period", cfg.GracePeriod))

	dir, err := directory.Open(cfg.DataDir)
	if err != nil {
		zl.Fatal("opening employee registry", zap.Error(err))
	}

	ctx := context.Background()

	guard, publisher := buildSharedBackends(ctx, cfg, zl)

	store := records.NewFileStore(cfg.DataDir)
	ledger, err := service.NewAttendanceLedger(ctx, store, zl)
	if err != nil {
		zl.Fatal("loading attendance ledger", zap.Error(err))
	}

	issuer := service.NewTokenIssuer(keys, cfg.RotationInterval)
	verifier := service.NewTokenVerifier(keys, cfg.GracePeriod, dir, guard)
	svc := service.NewAttendanceService(issuer, verifier, ledger, publisher, zl)

	router := transport.SetupRouter(svc, dir, transport.Options{
		AdminPassword:           cfg.AdminPassword,
		JWTSecret:               cfg.JWTSecret,
		RotationIntervalSeconds: int64(cfg.RotationInterval / time.Second),
		GracePeriodSeconds:      int64(cfg.GracePeriod / time.Second),
	}, zl)

	zl.Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := router.Run(cfg.ListenAddr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

// buildSharedBackends picks the replay guard and the event publisher: Redis
// when configured, in-process otherwise.
func buildSharedBackends(ctx context.Context, cfg config.Config, zl *zap.Logger) (ports.ReplayGuard, ports.EventPublisher) {
	wmLogger := watermill.NewStdLogger(false, false)

	if cfg.RedisURL == "" {
		pubsub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		return replay.NewMemoryGuard(cfg.ReuseWindow), events.NewWatermillPublisher(pubsub)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zl.Fatal("parsing REDIS_URL", zap.Error(err))
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		zl.Fatal("connecting to redis", zap.Error(err))
	}

	var publisher message.Publisher
	publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, wmLogger)
	if err != nil {
		zl.Fatal("creating redis stream publisher", zap.Error(err))
	}

	zl.Info("using redis replay guard and event stream")
	return replay.NewRedisGuard(client, cfg.ReuseWindow), events.NewWatermillPublisher(publisher)
}
