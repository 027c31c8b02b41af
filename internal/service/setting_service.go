package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vanguard-next/internal/cache"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/repository"
)

const (
	mlmSettingCacheKey = "setting:mlm_config"
	mlmSettingCacheTTL = 10 * time.Minute
)

// SettingService 设置业务服务
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 设置值
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	normalized := normalizeSettingValueByKey(key, value)

	setting, err := s.repo.Upsert(key, normalized)
	if err != nil {
		return nil, err
	}
	return setting.ValueJSON, nil
}

// getCachedMLMSetting 读取分销配置缓存
func (s *SettingService) getCachedMLMSetting() (MLMSetting, bool) {
	var setting MLMSetting
	hit, err := cache.GetJSON(context.Background(), mlmSettingCacheKey, &setting)
	if err != nil {
		logger.Warnw("mlm_setting_cache_read_failed", "error", err)
		return MLMSetting{}, false
	}
	if !hit {
		return MLMSetting{}, false
	}
	return NormalizeMLMSetting(setting), true
}

// cacheMLMSetting 写入分销配置缓存（失败不影响主流程）
func (s *SettingService) cacheMLMSetting(setting MLMSetting) {
	if err := cache.SetJSON(context.Background(), mlmSettingCacheKey, setting, mlmSettingCacheTTL); err != nil {
		logger.Warnw("mlm_setting_cache_write_failed", "error", err)
	}
}

// invalidateMLMSettingCache 删除分销配置缓存
func (s *SettingService) invalidateMLMSettingCache() {
	if err := cache.Del(context.Background(), mlmSettingCacheKey); err != nil {
		logger.Warnw("mlm_setting_cache_del_failed", "error", err)
	}
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}

func parseSettingFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		return strconv.ParseFloat(trimmed, 64)
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}
