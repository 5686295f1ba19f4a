package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkrupp/nextshop/internal/infra/config"
	"github.com/mkrupp/nextshop/internal/infra/logging"
	"github.com/mkrupp/nextshop/internal/infra/transport/http"
	"github.com/mkrupp/nextshop/internal/repo/catalog"
	"github.com/mkrupp/nextshop/internal/repo/order"
	"github.com/mkrupp/nextshop/internal/repo/snapshot"
	"github.com/mkrupp/nextshop/internal/repo/user"
	"github.com/mkrupp/nextshop/internal/store"
	"github.com/mkrupp/nextshop/internal/svc/authsvc/authclient"
	"github.com/mkrupp/nextshop/internal/svc/shopsvc"
)

const (
	appName = "nextshop"
	svcName = "shopsvc"
)

type Config struct {
	config.EnvConfig

	Log        logging.LoggerConfig                  `envPrefix:"LOG_"`
	Shop       shopsvc.ShopConfig                    `envPrefix:"SHOP_"`
	HTTP       shopsvc.HTTPTransportConfig           `envPrefix:"HTTP_"`
	AuthClient authclient.HTTPClientConfig           `envPrefix:"AUTH_CLIENT_"`
	Catalog    catalog.SQLiteCatalogRepositoryConfig `envPrefix:"CATALOG_"`
	Order      order.SQLiteOrderRepositoryConfig     `envPrefix:"ORDER_"`
	User       user.SQLiteUserRepositoryConfig       `envPrefix:"USER_"`

	// SnapshotBackend selects where session snapshots are persisted.
	// Valid values are: "memory", "filesystem", "redis"
	SnapshotBackend string `env:"SNAPSHOT_BACKEND" default:"filesystem"`

	SnapshotFS    snapshot.FileSystemSnapshotRepositoryConfig `envPrefix:"SNAPSHOT_FS_"`
	SnapshotRedis snapshot.RedisSnapshotRepositoryConfig      `envPrefix:"SNAPSHOT_REDIS_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func snapshotFactory(cfg Config) snapshot.RepositoryFactory {
	switch strings.ToLower(cfg.SnapshotBackend) {
	case "redis":
		return snapshot.RedisSnapshotRepositoryFactory(cfg.SnapshotRedis)
	case "memory":
		return snapshot.MemorySnapshotRepositoryFactory()
	default:
		return snapshot.FileSystemSnapshotRepositoryFactory(cfg.SnapshotFS)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.shopsvc")

		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
			panic(err)
		}

		log.InfoContext(ctx, "shutdown")
	}()

	sessions, err := store.NewManager(snapshotFactory(cfg))
	if err != nil {
		return fmt.Errorf("new session manager: %w", err)
	}

	shopSvc, err := shopsvc.NewShopService(
		catalog.SQLiteCatalogRepositoryFactory(cfg.Catalog),
		order.SQLiteOrderRepositoryFactory(cfg.Order),
		user.SQLiteUserRepositoryFactory(cfg.User),
		sessions,
		cfg.Shop,
	)
	if err != nil {
		return fmt.Errorf("new shop service: %w", err)
	}

	if err := shopSvc.SeedCatalog(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	authClient := authclient.NewHTTPClient(cfg.AuthClient, nil)

	httpTransport := shopsvc.NewHTTPTransport(shopSvc, authClient, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
