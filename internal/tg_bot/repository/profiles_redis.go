package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisProfiles stores each user profile as a JSON value under "profile:<user id>".
type RedisProfiles struct {
	rdb *redis.Client
}

// NewRedisProfiles connects to Redis and checks the connection with a ping.
func NewRedisProfiles(ctx context.Context, addr, password string, db int) (*RedisProfiles, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	logrus.Infof("Profile store connected to redis at %s", addr)
	return &RedisProfiles{rdb: rdb}, nil
}

func profileKey(userID string) string {
	return "profile:" + userID
}

// Get returns the profile of the user.
func (r *RedisProfiles) Get(ctx context.Context, userID string) (models.UserProfile, bool, error) {
	data, err := r.rdb.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.UserProfile{}, false, nil
	}
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to get user profile from redis")
		return models.UserProfile{}, false, fmt.Errorf("get profile %s: %w", userID, err)
	}

	var p models.UserProfile
	if err = json.Unmarshal(data, &p); err != nil {
		return models.UserProfile{}, false, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return p, true, nil
}

// Put stores the profile without expiration.
func (r *RedisProfiles) Put(ctx context.Context, profile models.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.ID, err)
	}
	if err = r.rdb.Set(ctx, profileKey(profile.ID), data, 0).Err(); err != nil {
		logrus.WithError(err).WithField("userID", profile.ID).Error("Failed to set user profile in redis")
		return fmt.Errorf("set profile %s: %w", profile.ID, err)
	}
	return nil
}

// Flush is a no-op: every Put is written through.
func (r *RedisProfiles) Flush(_ context.Context) error {
	return nil
}

// Close closes the client.
func (r *RedisProfiles) Close() error {
	return r.rdb.Close()
}
