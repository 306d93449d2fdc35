package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alerto-http-service/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// InterfaceRedisService 定义Redis缓存服务接口
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	Ping() error
	CacheReverseGeocode(lat, lng float64, address string) error
	GetCachedReverseGeocode(lat, lng float64) (string, bool)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	return &RedisService{
		Client: client,
		Ctx:    context.Background(),
	}
}

// Ping 测试Redis连接
func (s *RedisService) Ping() error {
	ctx, cancel := context.WithTimeout(s.Ctx, 5*time.Second)
	defer cancel()
	return s.Client.Ping(ctx).Err()
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// geocodeCacheKey 逆地理编码缓存键，坐标取6位小数
func geocodeCacheKey(lat, lng float64) string {
	return fmt.Sprintf("geocode:%.6f:%.6f", lat, lng)
}

// CacheReverseGeocode 缓存一次逆地理编码结果
func (s *RedisService) CacheReverseGeocode(lat, lng float64, address string) error {
	return s.Set(geocodeCacheKey(lat, lng), address, 24*time.Hour)
}

// GetCachedReverseGeocode 读取缓存的逆地理编码结果
func (s *RedisService) GetCachedReverseGeocode(lat, lng float64) (string, bool) {
	var address string
	if err := s.Get(geocodeCacheKey(lat, lng), &address); err != nil {
		return "", false
	}
	return address, address != ""
}
