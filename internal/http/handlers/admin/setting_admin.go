package admin

import (
	"errors"

	"github.com/vanguard-next/internal/http/response"
	"github.com/vanguard-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetMLMSettings 获取分销配置
func (h *Handler) GetMLMSettings(c *gin.Context) {
	setting, err := h.SettingService.GetMLMSetting()
	if err != nil {
		respondError(c, response.CodeInternal, "查询配置失败", err)
		return
	}
	response.Success(c, service.MLMSettingToMap(setting))
}

// UpdateMLMSettings 更新分销配置
func (h *Handler) UpdateMLMSettings(c *gin.Context) {
	var req service.MLMSetting
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数无效", err)
		return
	}

	updated, err := h.SettingService.UpdateMLMSetting(req)
	if err != nil {
		if errors.Is(err, service.ErrMLMConfigInvalid) {
			respondError(c, response.CodeBadRequest, "配置取值不合法", nil)
			return
		}
		respondError(c, response.CodeInternal, "更新配置失败", err)
		return
	}
	requestLog(c).Infow("admin_mlm_settings_updated")
	response.Success(c, service.MLMSettingToMap(updated))
}
