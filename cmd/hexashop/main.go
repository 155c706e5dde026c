package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	basketApp "github.com/davicafu/hexashop/internal/basket/application"
	basketDomain "github.com/davicafu/hexashop/internal/basket/domain"
	basketEvents "github.com/davicafu/hexashop/internal/basket/infra/inbound/events"
	basketCatalog "github.com/davicafu/hexashop/internal/basket/infra/outbound/catalog"
	basketMongo "github.com/davicafu/hexashop/internal/basket/infra/outbound/db/mongorepo"
	basketSQL "github.com/davicafu/hexashop/internal/basket/infra/outbound/db/sqlrepo"
	catalogApp "github.com/davicafu/hexashop/internal/catalog/application"
	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
	catalogEvents "github.com/davicafu/hexashop/internal/catalog/infra/inbound/events"
	catalogCH "github.com/davicafu/hexashop/internal/catalog/infra/outbound/analytics/clickhouse"
	catalogMemory "github.com/davicafu/hexashop/internal/catalog/infra/outbound/analytics/memory"
	catalogSQL "github.com/davicafu/hexashop/internal/catalog/infra/outbound/db/sqlrepo"
	"github.com/davicafu/hexashop/internal/config"
	"github.com/davicafu/hexashop/internal/shared/cqrs"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	sharedEvents "github.com/davicafu/hexashop/internal/shared/domain/events"
	infraEvents "github.com/davicafu/hexashop/internal/shared/infra/events"
	sharedHttp "github.com/davicafu/hexashop/internal/shared/infra/inbound/http"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/hexashop/internal/shared/infra/platform/cache"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/db/memstore"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/db/mongostore"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/db/sqlstore"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/observability"
	"github.com/davicafu/hexashop/internal/shared/infra/relayer"
	"github.com/davicafu/hexashop/internal/shared/infra/utils"
	"github.com/davicafu/hexashop/internal/shared/persistence"
	"github.com/davicafu/hexashop/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// consumerBuffer es el buffer de cada suscriptor del bus en memoria.
const consumerBuffer = 64

// ---------------- Main ----------------
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	log := logger.Logger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- Tracing ----------------
	shutdownOTel, err := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})
	if err != nil {
		log.Fatal("failed to init OTel", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(shutdownCtx)
	}()

	var healthChecks []sharedHttp.HealthCheck

	// ---------------- DB ----------------
	dialect, err := sqlstore.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Fatal("invalid DB driver", zap.Error(err))
	}
	dsn := utils.Ternary(dialect == sqlstore.Postgres, cfg.PostgresDSN, cfg.SQLitePath)
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		log.Fatal("failed to open database", zap.String("driver", dialect.DriverName()), zap.Error(err))
	}
	defer db.Close()
	if dialect == sqlstore.SQLite {
		// SQLite solo admite un escritor a la vez.
		db.SetMaxOpenConns(1)
	}

	if err := utils.Retry(ctx, 5, 2*time.Second, func() error { return db.PingContext(ctx) }); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}
	if err := catalogSQL.InitSchema(ctx, db, dialect); err != nil {
		log.Fatal("failed to init catalog schema", zap.Error(err))
	}
	if err := sqlstore.InitOutbox(ctx, db, dialect); err != nil {
		log.Fatal("failed to init outbox", zap.Error(err))
	}
	healthChecks = append(healthChecks, sharedHttp.HealthCheck{
		Name:  "db",
		Check: func(c *gin.Context) error { return db.PingContext(c.Request.Context()) },
	})

	sqlStore := sqlstore.New(db, dialect, log)
	productRepo := catalogSQL.NewProductRepo(db, dialect)
	sqlStore.Register(catalogDomain.ProductEntityName, productRepo)

	// ---------------- Cache ----------------
	var productCache sharedCache.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		} else {
			defer rdb.Close()
			productCache = sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
			healthChecks = append(healthChecks, sharedHttp.HealthCheck{
				Name:  "redis",
				Check: func(c *gin.Context) error { return rdb.Ping(c.Request.Context()).Err() },
			})
			log.Info("✅ Redis conectado, cache habilitado")
		}
	}
	if productCache == nil {
		memCache := sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer memCache.Stop()
		productCache = memCache
	}

	// ---------------- Analítica ----------------
	var priceHistory catalogDomain.PriceHistoryRepository
	if cfg.ClickHouseAddr != "" {
		chRepo, err := catalogCH.NewPriceHistoryRepo(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Fatal("failed to connect ClickHouse", zap.Error(err))
		}
		if err := chRepo.InitSchema(ctx); err != nil {
			log.Fatal("failed to init ClickHouse schema", zap.Error(err))
		}
		healthChecks = append(healthChecks, sharedHttp.HealthCheck{
			Name:  "clickhouse",
			Check: func(c *gin.Context) error { return chRepo.Ping(c.Request.Context()) },
		})
		priceHistory = chRepo
		log.Info("📈 Histórico de precios en ClickHouse")
	} else {
		priceHistory = catalogMemory.NewPriceHistoryRepo()
	}

	// ---------------- Pipeline ----------------
	mediator := cqrs.New(log, cqrs.WithTracer(otel.Tracer(cfg.ServiceName+"/cqrs")))
	domainBus := bus.NewDomainEventBus(log)
	catalogApp.Subscribe(domainBus, log)
	basketApp.Subscribe(domainBus, log)

	interceptors := persistence.DefaultInterceptors(nil, nil, domainBus)
	sqlUoWs := persistence.NewFactory(sqlStore, log, interceptors...)

	// Cada almacén tiene su propia outbox y su propio relayer.
	outboxes := map[string]sharedDomain.OutboxRepository{
		"sql": sqlstore.NewOutboxRepo(db, dialect),
	}

	// ---------------- Basket store ----------------
	var (
		basketUoWs *persistence.Factory
		cartReader basketDomain.ShoppingCartReader
	)
	switch cfg.BasketStore {
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect MongoDB", zap.Error(err))
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()

		mongoStore, err := mongostore.New(ctx, client, cfg.MongoDB, log)
		if err != nil {
			log.Fatal("failed to init MongoDB store", zap.Error(err))
		}
		if err := basketMongo.EnsureIndexes(ctx, mongoStore.Database()); err != nil {
			log.Fatal("failed to create basket indexes", zap.Error(err))
		}
		cartRepo := basketMongo.NewCartRepo(mongoStore.Database())
		mongoStore.Register(basketDomain.ShoppingCartEntityName, cartRepo)

		basketUoWs = persistence.NewFactory(mongoStore, log, interceptors...)
		cartReader = cartRepo
		outboxes["mongo"] = mongostore.NewOutboxRepo(mongoStore.Database())
		healthChecks = append(healthChecks, sharedHttp.HealthCheck{
			Name:  "mongo",
			Check: func(c *gin.Context) error { return client.Ping(c.Request.Context(), nil) },
		})
		log.Info("🍃 Carritos en MongoDB", zap.String("db", cfg.MongoDB))

	case "memory":
		memStore := memstore.New(log)
		basketUoWs = persistence.NewFactory(memStore, log, interceptors...)
		cartReader = memstore.NewCollection[basketDomain.ShoppingCart, *basketDomain.ShoppingCart](memStore, basketDomain.ShoppingCartEntityName)
		outboxes["memory"] = memStore
		log.Warn("⚠️ Carritos en memoria, se pierden al reiniciar")

	default:
		if err := basketSQL.InitSchema(ctx, db, dialect); err != nil {
			log.Fatal("failed to init basket schema", zap.Error(err))
		}
		cartRepo := basketSQL.NewCartRepo(db, dialect)
		sqlStore.Register(basketDomain.ShoppingCartEntityName, cartRepo)
		basketUoWs = sqlUoWs
		cartReader = cartRepo
	}

	// --------------- Handlers --------------
	catalogApp.NewHandlers(sqlUoWs, productRepo, priceHistory, productCache, cfg.CacheTTL, log).Register(mediator)
	basketApp.NewHandlers(basketUoWs, cartReader, basketCatalog.NewMediatorCatalog(mediator), log).Register(mediator)

	priceConsumer := basketEvents.NewPriceChangedConsumer(mediator, log)
	historyConsumer := catalogEvents.NewPriceHistoryConsumer(priceHistory, log)

	g, gctx := errgroup.WithContext(ctx)

	// ---------------- Events ---------------
	var publisher bus.EventBus
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		// Sin topic fijo: cada evento decide el suyo.
		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Balancer: &kafka.Hash{},
		}
		kafkaPublisher := infraEvents.NewKafkaPublisher(writer, log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		newReader := func(topic, group string) *kafka.Reader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:  cfg.KafkaBrokers,
				Topic:    topic,
				GroupID:  group,
				MinBytes: 10e3, // 10KB
				MaxBytes: 10e6, // 10MB
			})
		}

		basketAdapter := infraEvents.NewConsumerAdapter(newReader(cfg.KafkaTopicCatalog, cfg.KafkaConsumerGroup+"-basket"), priceConsumer, log)
		historyAdapter := infraEvents.NewConsumerAdapter(newReader(cfg.KafkaTopicCatalog, cfg.KafkaConsumerGroup+"-price-history"), historyConsumer, log)
		g.Go(func() error { return basketAdapter.Run(gctx) })
		g.Go(func() error { return historyAdapter.Run(gctx) })
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")

		inMemoryBus := infraEvents.NewInMemoryEventBus(sharedEvents.CatalogTopic, log)
		publisher = inMemoryBus

		basketCh := inMemoryBus.Subscribe(sharedEvents.CatalogTopic, consumerBuffer)
		historyCh := inMemoryBus.Subscribe(sharedEvents.CatalogTopic, consumerBuffer)
		g.Go(func() error { return infraEvents.RunChannelConsumer(gctx, basketCh, priceConsumer, log) })
		g.Go(func() error { return infraEvents.RunChannelConsumer(gctx, historyCh, historyConsumer, log) })
	}

	// ------------ Outbox Worker ------------
	eventRegistry := sharedEvents.MergeRegistries(
		catalogDomain.NewEventRegistry(),
		basketDomain.NewEventRegistry(),
	)
	for name, repo := range outboxes {
		worker := relayer.NewOutboxWorker(name, repo, publisher, eventRegistry, cfg.OutboxPeriod, cfg.OutboxLimit, log)
		g.Go(func() error { return worker.Run(gctx) })
	}

	// ---------------- HTTP ----------------
	router := sharedHttp.NewRouter(cfg.ServiceName, log, healthChecks...)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("🛑 Apagando servidor HTTP...")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", zap.Error(err))
		return
	}
	log.Info("👋 hexashop detenido")
}
