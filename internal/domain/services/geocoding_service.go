package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"alerto-http-service/internal/infrastructure/config"
	"alerto-http-service/pkg/logger"
)

// InterfaceGeocodingService 定义逆地理编码服务接口
type InterfaceGeocodingService interface {
	ReverseGeocode(lat, lng float64) (string, error)
	FallbackAddress(lat, lng float64) string
}

// GeocodingService 调用外部逆地理编码服务，失败时降级为坐标字面量地址
type GeocodingService struct {
	Config *config.Config
	Redis  InterfaceRedisService
	Client *http.Client
}

// reverseGeocodeResponse Nominatim风格的逆地理编码响应
type reverseGeocodeResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error,omitempty"`
}

// NewGeocodingService 创建逆地理编码服务
func NewGeocodingService(cfg *config.Config, redisService InterfaceRedisService) InterfaceGeocodingService {
	return &GeocodingService{
		Config: cfg,
		Redis:  redisService,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// ReverseGeocode 将经纬度解析为地址文本
func (s *GeocodingService) ReverseGeocode(lat, lng float64) (string, error) {
	if s.Config.GeocodeAPIURL == "" {
		return "", errors.New("未配置逆地理编码服务地址")
	}

	// 优先读取缓存，同一坐标不重复请求外部服务
	if s.Redis != nil {
		if address, ok := s.Redis.GetCachedReverseGeocode(lat, lng); ok {
			return address, nil
		}
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lng))
	if s.Config.GeocodeAPIKey != "" {
		params.Set("key", s.Config.GeocodeAPIKey)
	}

	resp, err := s.Client.Get(s.Config.GeocodeAPIURL + "?" + params.Encode())
	if err != nil {
		return "", fmt.Errorf("逆地理编码请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("逆地理编码服务返回状态码 %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result reverseGeocodeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("解析逆地理编码响应失败: %w", err)
	}
	if result.Error != "" || result.DisplayName == "" {
		return "", fmt.Errorf("逆地理编码失败: %s", result.Error)
	}

	// 缓存结果，失败不影响主流程
	if s.Redis != nil {
		if err := s.Redis.CacheReverseGeocode(lat, lng, result.DisplayName); err != nil {
			logger.Warning("缓存逆地理编码结果失败: %v", err)
		}
	}

	return result.DisplayName, nil
}

// FallbackAddress 逆地理编码不可用时的坐标字面量地址
func (s *GeocodingService) FallbackAddress(lat, lng float64) string {
	return fmt.Sprintf("Lat: %.6f, Lng: %.6f", lat, lng)
}
