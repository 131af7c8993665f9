package ioc

import (
	"database/sql"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/config"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/logging"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/memory"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/rediscache"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/sqldb"
	"github.com/redis/go-redis/v9"
)

func (c *Container) inMemory() bool {
	return c.cfg.Storage == config.STORAGE_MEMORY
}

var useDatabase = provider(
	func(c *Container) *sql.DB {
		conn, err := sqldb.Open(c.ctx, c.cfg.Storage, c.cfg.DBDSN)
		if err != nil {
			logging.FatalLog(err.Error())
		}
		c.onClose(conn.Close)
		if err := sqldb.DatabaseInit(c.ctx, conn, c.cfg.SchemaFile); err != nil {
			logging.FatalLog(err.Error())
		}
		return conn
	},
)

var useSubscribersRepository = provider(
	func(c *Container) interfaces.SubscribersRepository {
		if c.inMemory() {
			return memory.NewSubscribersRepository()
		}
		return sqldb.NewSubscribersRepository(useDatabase(c))
	},
)

var useSnapshotsRepository = provider(
	func(c *Container) interfaces.SnapshotsRepository {
		if c.inMemory() {
			return memory.NewSnapshotsRepository()
		}
		return sqldb.NewSnapshotsRepository(useDatabase(c), c.cfg.Location)
	},
)

var useBlacklistRepository = provider(
	func(c *Container) interfaces.BlacklistRepository {
		if c.inMemory() {
			return memory.NewBlacklistRepository()
		}
		return sqldb.NewBlacklistRepository(useDatabase(c))
	},
)

var useTasksRepository = provider(
	func(c *Container) interfaces.TasksRepository {
		if c.inMemory() {
			return memory.NewTasksRepository()
		}
		return sqldb.NewTasksRepository(useDatabase(c))
	},
)

// useRedis is nil when REDIS_ADDR is unset or the server does not answer.
var useRedis = provider(
	func(c *Container) *redis.Client {
		client := rediscache.Connect(c.ctx, c.cfg.RedisAddr)
		if client != nil {
			c.onClose(client.Close)
		}
		return client
	},
)

var useHashCache = provider(
	func(c *Container) interfaces.HashCache {
		client := useRedis(c)
		if client == nil {
			return nil
		}
		return rediscache.NewHashCache(client, c.cfg.HashTTL)
	},
)
