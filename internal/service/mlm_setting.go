package service

import (
	"fmt"
	"math"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/models"
)

const (
	mlmRateMin            = 0
	mlmRateMax            = 100
	mlmBlockDaysMin       = 0
	mlmBlockDaysMax       = 3650
	mlmInactiveMonthsMin  = 1
	mlmInactiveMonthsMax  = 120
	mlmAmountMin          = 0
	mlmProcessingDaysMin  = 0
	mlmProcessingDaysMax  = 90
)

// MLMSetting 分销与钱包参数配置
type MLMSetting struct {
	CommissionLevel1         float64 `json:"commission_level_1"`
	CommissionLevel2         float64 `json:"commission_level_2"`
	CommissionLevel3         float64 `json:"commission_level_3"`
	ClientReferralCommission float64 `json:"client_referral_commission"`
	AmbassadorDefaultRate    float64 `json:"ambassador_default_rate"`
	BonusBlockDays           int     `json:"bonus_block_days"`
	MinQualificationAmount   float64 `json:"min_qualification_amount"`
	InactiveMonthsSuspend    int     `json:"inactive_months_suspend"`
	InactiveMonthsCancel     int     `json:"inactive_months_cancel"`
	MinWithdrawalAmount      float64 `json:"min_withdrawal_amount"`
	WithdrawalFeePercent     float64 `json:"withdrawal_fee_percent"`
	WithdrawalProcessingDays int     `json:"withdrawal_processing_days"`
}

// MLMDefaultSetting 默认分销配置
func MLMDefaultSetting() MLMSetting {
	return NormalizeMLMSetting(MLMSetting{
		CommissionLevel1:         10,
		CommissionLevel2:         5,
		CommissionLevel3:         5,
		ClientReferralCommission: 5,
		AmbassadorDefaultRate:    5,
		BonusBlockDays:           7,
		MinQualificationAmount:   100,
		InactiveMonthsSuspend:    6,
		InactiveMonthsCancel:     12,
		MinWithdrawalAmount:      50,
		WithdrawalFeePercent:     5,
		WithdrawalProcessingDays: 3,
	})
}

// ChainRates 返回链路 1..3 级佣金比例
func (s MLMSetting) ChainRates() [3]float64 {
	return [3]float64{s.CommissionLevel1, s.CommissionLevel2, s.CommissionLevel3}
}

// NormalizeMLMSetting 归一化分销配置
func NormalizeMLMSetting(setting MLMSetting) MLMSetting {
	setting.CommissionLevel1 = clampMLMRate(setting.CommissionLevel1)
	setting.CommissionLevel2 = clampMLMRate(setting.CommissionLevel2)
	setting.CommissionLevel3 = clampMLMRate(setting.CommissionLevel3)
	setting.ClientReferralCommission = clampMLMRate(setting.ClientReferralCommission)
	setting.AmbassadorDefaultRate = clampMLMRate(setting.AmbassadorDefaultRate)
	setting.WithdrawalFeePercent = clampMLMRate(setting.WithdrawalFeePercent)

	if setting.BonusBlockDays < mlmBlockDaysMin {
		setting.BonusBlockDays = mlmBlockDaysMin
	}
	if setting.BonusBlockDays > mlmBlockDaysMax {
		setting.BonusBlockDays = mlmBlockDaysMax
	}

	setting.MinQualificationAmount = roundMLMDecimal(setting.MinQualificationAmount)
	if setting.MinQualificationAmount < mlmAmountMin {
		setting.MinQualificationAmount = mlmAmountMin
	}
	setting.MinWithdrawalAmount = roundMLMDecimal(setting.MinWithdrawalAmount)
	if setting.MinWithdrawalAmount < mlmAmountMin {
		setting.MinWithdrawalAmount = mlmAmountMin
	}

	if setting.InactiveMonthsSuspend < mlmInactiveMonthsMin {
		setting.InactiveMonthsSuspend = mlmInactiveMonthsMin
	}
	if setting.InactiveMonthsSuspend > mlmInactiveMonthsMax {
		setting.InactiveMonthsSuspend = mlmInactiveMonthsMax
	}
	if setting.InactiveMonthsCancel < mlmInactiveMonthsMin {
		setting.InactiveMonthsCancel = mlmInactiveMonthsMin
	}
	if setting.InactiveMonthsCancel > mlmInactiveMonthsMax {
		setting.InactiveMonthsCancel = mlmInactiveMonthsMax
	}

	if setting.WithdrawalProcessingDays < mlmProcessingDaysMin {
		setting.WithdrawalProcessingDays = mlmProcessingDaysMin
	}
	if setting.WithdrawalProcessingDays > mlmProcessingDaysMax {
		setting.WithdrawalProcessingDays = mlmProcessingDaysMax
	}

	return setting
}

// ValidateMLMSetting 校验分销配置
func ValidateMLMSetting(setting MLMSetting) error {
	normalized := NormalizeMLMSetting(setting)
	for _, rate := range []float64{
		normalized.CommissionLevel1,
		normalized.CommissionLevel2,
		normalized.CommissionLevel3,
		normalized.ClientReferralCommission,
		normalized.AmbassadorDefaultRate,
		normalized.WithdrawalFeePercent,
	} {
		if rate < mlmRateMin || rate > mlmRateMax {
			return fmt.Errorf("%w: 佣金比例必须在 0-100 之间", ErrMLMConfigInvalid)
		}
	}
	if normalized.InactiveMonthsCancel < normalized.InactiveMonthsSuspend {
		return fmt.Errorf("%w: 取消月数不能小于暂停月数", ErrMLMConfigInvalid)
	}
	if normalized.MinQualificationAmount < mlmAmountMin {
		return fmt.Errorf("%w: 达标业绩门槛不能小于 0", ErrMLMConfigInvalid)
	}
	if normalized.MinWithdrawalAmount < mlmAmountMin {
		return fmt.Errorf("%w: 最低提现金额不能小于 0", ErrMLMConfigInvalid)
	}
	return nil
}

// MLMSettingToMap 将分销配置转换为 settings 存储结构
func MLMSettingToMap(setting MLMSetting) map[string]interface{} {
	normalized := NormalizeMLMSetting(setting)
	return map[string]interface{}{
		"commission_level_1":         normalized.CommissionLevel1,
		"commission_level_2":         normalized.CommissionLevel2,
		"commission_level_3":         normalized.CommissionLevel3,
		"client_referral_commission": normalized.ClientReferralCommission,
		"ambassador_default_rate":    normalized.AmbassadorDefaultRate,
		"bonus_block_days":           normalized.BonusBlockDays,
		"min_qualification_amount":   normalized.MinQualificationAmount,
		"inactive_months_suspend":    normalized.InactiveMonthsSuspend,
		"inactive_months_cancel":     normalized.InactiveMonthsCancel,
		"min_withdrawal_amount":      normalized.MinWithdrawalAmount,
		"withdrawal_fee_percent":     normalized.WithdrawalFeePercent,
		"withdrawal_processing_days": normalized.WithdrawalProcessingDays,
	}
}

func mlmSettingFromJSON(raw models.JSON, fallback MLMSetting) MLMSetting {
	result := fallback

	assignFloat := func(key string, target *float64) {
		if valueRaw, ok := raw[key]; ok {
			if parsed, err := parseSettingFloat(valueRaw); err == nil {
				*target = parsed
			}
		}
	}
	assignInt := func(key string, target *int) {
		if valueRaw, ok := raw[key]; ok {
			if parsed, err := parseSettingInt(valueRaw); err == nil {
				*target = parsed
			}
		}
	}

	assignFloat("commission_level_1", &result.CommissionLevel1)
	assignFloat("commission_level_2", &result.CommissionLevel2)
	assignFloat("commission_level_3", &result.CommissionLevel3)
	assignFloat("client_referral_commission", &result.ClientReferralCommission)
	assignFloat("ambassador_default_rate", &result.AmbassadorDefaultRate)
	assignInt("bonus_block_days", &result.BonusBlockDays)
	assignFloat("min_qualification_amount", &result.MinQualificationAmount)
	assignInt("inactive_months_suspend", &result.InactiveMonthsSuspend)
	assignInt("inactive_months_cancel", &result.InactiveMonthsCancel)
	assignFloat("min_withdrawal_amount", &result.MinWithdrawalAmount)
	assignFloat("withdrawal_fee_percent", &result.WithdrawalFeePercent)
	assignInt("withdrawal_processing_days", &result.WithdrawalProcessingDays)

	return NormalizeMLMSetting(result)
}

func normalizeMLMSettingMap(value map[string]interface{}) models.JSON {
	setting := mlmSettingFromJSON(models.JSON(value), MLMDefaultSetting())
	return models.JSON(MLMSettingToMap(setting))
}

// GetMLMSetting 获取分销设置（优先 settings，空时回退默认）
func (s *SettingService) GetMLMSetting() (MLMSetting, error) {
	fallback := MLMDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	if cached, ok := s.getCachedMLMSetting(); ok {
		return cached, nil
	}

	value, err := s.GetByKey(constants.SettingKeyMLMConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	setting := mlmSettingFromJSON(value, fallback)
	s.cacheMLMSetting(setting)
	return setting, nil
}

// UpdateMLMSetting 更新分销设置
func (s *SettingService) UpdateMLMSetting(setting MLMSetting) (MLMSetting, error) {
	normalized := NormalizeMLMSetting(setting)
	if err := ValidateMLMSetting(normalized); err != nil {
		return MLMDefaultSetting(), err
	}
	if _, err := s.Update(constants.SettingKeyMLMConfig, MLMSettingToMap(normalized)); err != nil {
		return MLMDefaultSetting(), err
	}
	s.invalidateMLMSettingCache()
	return normalized, nil
}

func roundMLMDecimal(value float64) float64 {
	return math.Round(value*100) / 100
}

func clampMLMRate(value float64) float64 {
	value = roundMLMDecimal(value)
	if value < mlmRateMin {
		return mlmRateMin
	}
	if value > mlmRateMax {
		return mlmRateMax
	}
	return value
}
