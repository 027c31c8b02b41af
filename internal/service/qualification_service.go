package service

import (
	"time"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QualificationService 经销商资格考核与网络维护服务
type QualificationService struct {
	userRepo       repository.UserRepository
	actionLogRepo  repository.ActionLogRepository
	settingService *SettingService
}

// NewQualificationService 创建资格考核服务
func NewQualificationService(
	userRepo repository.UserRepository,
	actionLogRepo repository.ActionLogRepository,
	settingService *SettingService,
) *QualificationService {
	return &QualificationService{
		userRepo:       userRepo,
		actionLogRepo:  actionLogRepo,
		settingService: settingService,
	}
}

// QualificationResult 单次考核统计
type QualificationResult struct {
	Evaluated    int   `json:"evaluated"`
	Qualified    int   `json:"qualified"`
	Suspended    int   `json:"suspended"`
	Cancelled    int   `json:"cancelled"`
	VolumesReset int64 `json:"volumes_reset"`
}

// RunQualificationJob 执行月度资格考核。
// 先逐个评估（达标盖章 → 不活跃暂停/取消 + 网络缝合），最后全量清零当期业绩。
func (s *QualificationService) RunQualificationJob(now time.Time) (QualificationResult, error) {
	result := QualificationResult{}
	if s.userRepo == nil {
		return result, nil
	}

	setting, err := s.settingService.GetMLMSetting()
	if err != nil {
		return result, err
	}
	minQualification := decimal.NewFromFloat(setting.MinQualificationAmount)

	resellers, err := s.userRepo.ListResellers()
	if err != nil {
		return result, err
	}

	for i := range resellers {
		reseller := resellers[i]
		result.Evaluated++

		if reseller.PersonalVolume.Decimal.GreaterThanOrEqual(minQualification) {
			// 本期达标，不活跃时钟重新起算
			if err := s.userRepo.UpdateFields(reseller.ID, map[string]interface{}{
				"last_qualification": now,
				"updated_at":         now,
			}); err != nil {
				return result, err
			}
			result.Qualified++
			continue
		}

		if reseller.LastQualification == nil {
			// 从未达标的新经销商不计不活跃
			continue
		}

		daysInactive := int(now.Sub(*reseller.LastQualification).Hours() / 24)
		monthsInactive := daysInactive / constants.InactivityMonthDays

		switch {
		case monthsInactive >= setting.InactiveMonthsCancel && reseller.Status != constants.UserStatusCancelled:
			if err := s.cancelReseller(&reseller, now); err != nil {
				return result, err
			}
			result.Cancelled++
		case monthsInactive >= setting.InactiveMonthsSuspend && reseller.Status == constants.UserStatusActive:
			if err := s.userRepo.UpdateFields(reseller.ID, map[string]interface{}{
				"status":     constants.UserStatusSuspended,
				"updated_at": now,
			}); err != nil {
				return result, err
			}
			result.Suspended++
		}
	}

	// 业绩清零必须在全部个体评估之后执行，评估读取的是清零前的数值
	resetCount, err := s.userRepo.ResetVolumes([]int{
		constants.AccessLevelLeader,
		constants.AccessLevelReseller,
	})
	if err != nil {
		return result, err
	}
	result.VolumesReset = resetCount

	if s.actionLogRepo != nil {
		if err := s.actionLogRepo.Create(&models.ActionLog{
			Action: constants.ActionQualificationsChecked,
			DetailJSON: models.JSON{
				"suspended": result.Suspended,
				"cancelled": result.Cancelled,
			},
		}); err != nil {
			logger.Warnw("qualification_log_failed", "error", err)
		}
	}

	logger.Infow("qualification_job_done",
		"evaluated", result.Evaluated,
		"qualified", result.Qualified,
		"suspended", result.Suspended,
		"cancelled", result.Cancelled,
		"volumes_reset", result.VolumesReset,
	)
	return result, nil
}

// cancelReseller 取消经销商并把其直接下级缝合到它的推荐人名下
func (s *QualificationService) cancelReseller(reseller *models.User, now time.Time) error {
	return s.userRepo.Transaction(func(tx *gorm.DB) error {
		userTx := s.userRepo.WithTx(tx)
		if err := userTx.UpdateFields(reseller.ID, map[string]interface{}{
			"status":     constants.UserStatusCancelled,
			"updated_at": now,
		}); err != nil {
			return err
		}
		_, err := userTx.ReparentChildren(reseller.ID, reseller.SponsorID)
		return err
	})
}
