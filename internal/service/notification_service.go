package service

import (
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/repository"
)

// NotificationService 佣金通知投递服务
type NotificationService struct {
	userRepo repository.UserRepository
}

// NewNotificationService 创建通知服务
func NewNotificationService(userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{userRepo: userRepo}
}

// NotifyCommissionCreated 通知用户有新佣金入账（尽力送达，失败仅记录日志）
func (s *NotificationService) NotifyCommissionCreated(commissionID, userID uint, amount string, level int) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		logger.Warnw("commission_notify_skip_missing_user", "user_id", userID, "commission_id", commissionID)
		return nil
	}
	s.deliver(user, commissionID, amount, level)
	return nil
}

// deliver 目前仅写日志，后续可接入邮件或站内信渠道
func (s *NotificationService) deliver(user *models.User, commissionID uint, amount string, level int) {
	logger.Infow("commission_notify_delivered",
		"user_id", user.ID,
		"email", user.Email,
		"commission_id", commissionID,
		"amount", amount,
		"level", level)
}
