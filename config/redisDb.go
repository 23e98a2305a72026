package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Both are published only after a successful ping. Request goroutines read
// them while the connect loop is still running.
var (
	rdb    atomic.Pointer[redis.Client]
	locker atomic.Pointer[redislock.Client]
)
var ctx = context.Background()

func GetRedisDB() *redis.Client {
	return rdb.Load()
}

func GetRedisLock() *redislock.Client {
	return locker.Load()
}

func GetRedisObject(key string, dest interface{}) (bool, error) {
	client := rdb.Load()
	if client == nil {
		return false, nil
	}
	val, err := client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err = json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func GetRedisValue(key string) (string, bool, error) {
	client := rdb.Load()
	if client == nil {
		return "", false, nil
	}
	val, err := client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func SetRedisObject(key string, obj interface{}, exp time.Duration) error {
	client := rdb.Load()
	if client == nil {
		return nil
	}
	objInByte, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, objInByte, exp).Err()
}

// connectRedisOnce pings a fresh client and publishes it on success. A failed
// client is closed and the globals are left untouched.
func connectRedisOnce(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: stringFromEnv("REDIS_PASSWORD", ""),
		DB:       intFromEnv("REDIS_DB", 0),
		PoolSize: 100,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	locker.Store(redislock.New(client))
	rdb.Store(client)
	return client, nil
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
func ConnectRedisWithRetry() *redis.Client {
	redisAddr := stringFromEnv("REDIS_ADDRESS", "")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
		log.Printf("REDIS_ADDRESS not set; defaulting to %s", redisAddr)
	}

	var attempt int
	for {
		attempt++
		client, err := connectRedisOnce(redisAddr)
		if err == nil {
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return client
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
		time.Sleep(sleep)
	}
}
