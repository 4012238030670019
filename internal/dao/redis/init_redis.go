// Package redis 提供 Redis 连接初始化
package redis

import (
	"strconv"

	"github.com/redis/go-redis/v9"

	"duo_chat_server/internal/config"
)

// Cache 全局缓存服务实例
var Cache *RedisCache

// Init 初始化 Redis 连接与缓存 Worker Pool
func Init() {
	conf := config.GetConfig()
	addr := conf.RedisConfig.Host + ":" + strconv.Itoa(conf.RedisConfig.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.RedisConfig.Password,
		DB:       conf.RedisConfig.Db,

		PoolSize:     50,
		MinIdleConns: 15, // 与 Worker 数量匹配
	})

	// 15 个 Worker，缓冲区 3000，多 Service 共享
	Cache = NewRedisCache(client, 15, 3000)
}
