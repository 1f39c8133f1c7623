package redis

import (
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"os"
	"strconv"
	"time"
)

// Nil mirrors the driver's miss sentinel so callers do not import the
// driver package.
var Nil = redis.Nil

type IRedis interface {
	SetScanStatus(ctx context.Context, scanID string, payload string, expiration time.Duration) error
	GetScanStatus(ctx context.Context, scanID string) (string, error)
	DeleteScanStatus(ctx context.Context, scanID string) error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func statusKey(scanID string) string {
	return "scan:status:" + scanID
}

func (r *redisClient) SetScanStatus(ctx context.Context, scanID string, payload string, expiration time.Duration) error {
	err := r.client.Set(ctx, statusKey(scanID), payload, expiration).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error caching status for scan %s: %v", scanID, err))
		return err
	}
	return nil
}

func (r *redisClient) GetScanStatus(ctx context.Context, scanID string) (string, error) {
	val, err := r.client.Get(ctx, statusKey(scanID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", err
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting status for scan %s: %v", scanID, err))
		return "", err
	}
	return val, nil
}

func (r *redisClient) DeleteScanStatus(ctx context.Context, scanID string) error {
	_, err := r.client.Del(ctx, statusKey(scanID)).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error deleting status for scan %s: %v", scanID, err))
		return err
	}
	return nil
}
