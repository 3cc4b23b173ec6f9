package container

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-registration/config"
	"github.com/oksasatya/go-ddd-user-registration/internal/application"
	repo "github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-registration/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-user-registration/internal/infrastructure/messaging"
	pginfra "github.com/oksasatya/go-ddd-user-registration/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-user-registration/internal/infrastructure/search"
	"github.com/oksasatya/go-ddd-user-registration/pkg/helpers"
)

// Container holds the components built at startup and shared by the router.
// Optional infrastructure (Redis, RabbitMQ, Elasticsearch) is nil when not
// configured.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool    *pgxpool.Pool
	Memory    *memory.Store
	Redis     *redis.Client
	RabbitPub *helpers.RabbitPublisher
	ES        *elasticsearch.Client

	Users repo.UserRepository
	Roles repo.RoleRepository
	UoW   repo.UnitOfWork

	CreateUser *application.CreateUserUseCase
}

// New wires the container for cfg. Required storage failing is an error;
// optional side channels that fail to connect are logged and skipped.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		c.Memory = memory.NewStore(memory.DefaultRoles...)
		c.Users = memory.NewUserRepository(c.Memory)
		c.Roles = memory.NewRoleRepository(c.Memory)
		c.UoW = memory.NewUnitOfWork(c.Memory)
	case config.StorageDriverPostgres:
		pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
			DSN:         cfg.PostgresDSN(),
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.PGPool = pool
		c.Users = pginfra.NewUserRepository(pool)
		c.Roles = pginfra.NewRoleRepository(pool)
		c.UoW = pginfra.NewUnitOfWork(pool, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := helpers.PingRedis(ctx, rdb, 3*time.Second); err != nil {
			helpers.LogError(logger, "redis unavailable, rate limiting disabled", err, logrus.Fields{"addr": cfg.RedisAddr})
			_ = rdb.Close()
		} else {
			c.Redis = rdb
		}
	}

	var hooks []application.UserCreatedHook

	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			helpers.LogError(logger, "rabbitmq unavailable, welcome emails disabled", err, nil)
		} else {
			c.RabbitPub = pub
			hooks = append(hooks, messaging.NewWelcomeEmail(pub, cfg.AppName, cfg.CompanyName, cfg.SupportURL))
		}
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass, nil)
		if err != nil {
			helpers.LogError(logger, "elasticsearch client init failed, user indexing disabled", err, nil)
		} else {
			indexer := search.NewUserIndexer(es, cfg.ESUsersIndex)
			if err := indexer.EnsureIndex(ctx); err != nil {
				helpers.LogError(logger, "elasticsearch index check failed", err, logrus.Fields{"index": cfg.ESUsersIndex})
			}
			c.ES = es
			hooks = append(hooks, indexer)
		}
	}

	c.CreateUser = application.NewCreateUserUseCase(c.Users, c.Roles, c.UoW, logger, hooks...)
	return c, nil
}

// Close releases every connection the container opened.
func (c *Container) Close() {
	if c.CreateUser != nil {
		c.CreateUser.Wait()
	}
	if c.RabbitPub != nil {
		c.RabbitPub.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}
