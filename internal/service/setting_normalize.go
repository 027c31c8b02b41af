package service

import (
	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/models"
)

// normalizeSettingValueByKey 按设置键执行归一化，避免非法值入库。
func normalizeSettingValueByKey(key string, value map[string]interface{}) models.JSON {
	switch key {
	case constants.SettingKeyMLMConfig:
		return normalizeMLMSettingMap(value)
	default:
		return models.JSON(value)
	}
}
