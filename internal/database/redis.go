package database

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// RedisConfig holds the cache and event queue connection settings
type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	PingTimeout time.Duration
}

func GetRedisConfig() *RedisConfig {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ping_timeout", 2*time.Second)

	return &RedisConfig{
		Host:        viper.GetString("redis.host"),
		Port:        viper.GetString("redis.port"),
		Password:    viper.GetString("redis.password"),
		DB:          viper.GetInt("redis.db"),
		PingTimeout: viper.GetDuration("redis.ping_timeout"),
	}
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// InitRedis returns nil when Redis is unreachable. Rankings are then computed
// on every read and ledger events are not published.
func InitRedis() *redis.Client {
	config := GetRedisConfig()
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Addr(),
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, continuing without Redis: %v", err)
		rdb.Close()
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}
