package redis

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type Config struct {
	Address         string
	Username        string
	Password        string
	DB              int32
	MaxRetries      int32
	MinRetryBackoff int32
	MaxRetryBackoff int32
	DialTimeout     int32
	ReadTimeout     int32
	WriteTimeout    int32
	PoolSize        int32
	MinIdleConns    int32
	ClientName      string
}

func ReadConfig() *Config {
	if viper.GetString("redis.address") == "" {
		return nil
	}
	return &Config{
		Address:         viper.GetString("redis.address"),
		Username:        viper.GetString("redis.username"),
		Password:        viper.GetString("redis.password"),
		DB:              viper.GetInt32("redis.db"),
		MaxRetries:      viper.GetInt32("redis.max_retries"),
		MinRetryBackoff: viper.GetInt32("redis.min_retry_backoff"),
		MaxRetryBackoff: viper.GetInt32("redis.max_retry_backoff"),
		DialTimeout:     viper.GetInt32("redis.dial_timeout"),
		ReadTimeout:     viper.GetInt32("redis.read_timeout"),
		WriteTimeout:    viper.GetInt32("redis.write_timeout"),
		PoolSize:        viper.GetInt32("redis.pool_size"),
		MinIdleConns:    viper.GetInt32("redis.min_idle_conns"),
		ClientName:      viper.GetString("redis.client_name"),
	}
}

// New builds a redis client from config. A nil config means the cache is
// disabled and callers get a nil client.
func New(config *Config) (*redis.Client, error) {
	if config == nil {
		return nil, nil
	}

	o := &redis.Options{
		Addr: config.Address,
	}
	if len(config.Username) > 0 {
		o.Username = config.Username
	}
	if len(config.Password) > 0 {
		o.Password = config.Password
	}
	if config.DB > 0 {
		o.DB = int(config.DB)
	}
	if config.MaxRetries != 0 {
		o.MaxRetries = int(config.MaxRetries)
	}
	if config.MinRetryBackoff != 0 {
		o.MinRetryBackoff = time.Duration(config.MinRetryBackoff) * time.Millisecond
	}
	if config.MaxRetryBackoff != 0 {
		o.MaxRetryBackoff = time.Duration(config.MaxRetryBackoff) * time.Millisecond
	}
	if config.DialTimeout != 0 {
		o.DialTimeout = time.Duration(config.DialTimeout) * time.Millisecond
	}
	if config.ReadTimeout != 0 {
		o.ReadTimeout = time.Duration(config.ReadTimeout) * time.Millisecond
	}
	if config.WriteTimeout != 0 {
		o.WriteTimeout = time.Duration(config.WriteTimeout) * time.Millisecond
	}
	if config.PoolSize != 0 {
		o.PoolSize = int(config.PoolSize)
	}
	if config.MinIdleConns != 0 {
		o.MinIdleConns = int(config.MinIdleConns)
	}
	if len(config.ClientName) > 0 {
		o.ClientName = config.ClientName
	}

	client := redis.NewClient(o)
	return client, client.Ping(context.Background()).Err()
}
