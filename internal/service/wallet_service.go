package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService 余额与提现服务
type WalletService struct {
	userRepo       repository.UserRepository
	withdrawalRepo repository.WithdrawalRepository
	txnRepo        repository.TransactionRepository
	actionLogRepo  repository.ActionLogRepository
	settingService *SettingService
}

// NewWalletService 创建钱包服务
func NewWalletService(
	userRepo repository.UserRepository,
	withdrawalRepo repository.WithdrawalRepository,
	txnRepo repository.TransactionRepository,
	actionLogRepo repository.ActionLogRepository,
	settingService *SettingService,
) *WalletService {
	return &WalletService{
		userRepo:       userRepo,
		withdrawalRepo: withdrawalRepo,
		txnRepo:        txnRepo,
		actionLogRepo:  actionLogRepo,
		settingService: settingService,
	}
}

// BalanceSummary 用户余额概览
type BalanceSummary struct {
	BlockedBalance   models.Money `json:"blocked_balance"`
	AvailableBalance models.Money `json:"available_balance"`
	PersonalVolume   models.Money `json:"personal_volume"`
	TeamVolume       models.Money `json:"team_volume"`
}

// GetBalanceSummary 查询用户余额概览
func (s *WalletService) GetBalanceSummary(userID uint) (*BalanceSummary, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &BalanceSummary{
		BlockedBalance:   user.BlockedBalance,
		AvailableBalance: user.AvailableBalance,
		PersonalVolume:   user.PersonalVolume,
		TeamVolume:       user.TeamVolume,
	}, nil
}

// RequestWithdrawal 申请提现，按配置收取手续费并即时冻结可用余额
func (s *WalletService) RequestWithdrawal(userID uint, amount decimal.Decimal, bankInfo models.JSON) (*models.Withdrawal, error) {
	if userID == 0 || !amount.IsPositive() {
		return nil, ErrInvalidParams
	}
	setting, err := s.settingService.GetMLMSetting()
	if err != nil {
		return nil, err
	}
	minAmount := decimal.NewFromFloat(setting.MinWithdrawalAmount)
	if amount.LessThan(minAmount) {
		return nil, ErrWithdrawalTooSmall
	}

	amount = amount.Round(2)
	feeAmount := amount.Mul(decimal.NewFromFloat(setting.WithdrawalFeePercent)).
		Div(decimal.NewFromInt(100)).Round(2)
	netAmount := amount.Sub(feeAmount)

	var withdrawal *models.Withdrawal
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		user, err := userRepo.GetByIDForUpdate(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if user.Status != constants.UserStatusActive {
			return ErrUserDisabled
		}
		if user.AvailableBalance.Decimal.LessThan(amount) {
			return ErrInsufficientBalance
		}

		if err := userRepo.AddBalances(userID, decimal.Zero, amount.Neg()); err != nil {
			return err
		}

		row := &models.Withdrawal{
			UserID:       userID,
			Amount:       models.NewMoneyFromDecimal(amount),
			FeeAmount:    models.NewMoneyFromDecimal(feeAmount),
			NetAmount:    models.NewMoneyFromDecimal(netAmount),
			Status:       constants.WithdrawalStatusPending,
			BankInfoJSON: bankInfo,
		}
		if err := s.withdrawalRepo.WithTx(tx).Create(row); err != nil {
			return err
		}

		refID := row.ID
		if err := s.txnRepo.WithTx(tx).Create(&models.Transaction{
			UserID:        userID,
			Type:          constants.TxnTypeWithdrawalRequest,
			Amount:        models.NewMoneyFromDecimal(amount.Neg()),
			ReferenceType: "withdrawal",
			ReferenceID:   &refID,
			Description:   fmt.Sprintf("Solicitação de saque #%d", row.ID),
		}); err != nil {
			return err
		}

		withdrawal = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("withdrawal_requested",
		"user_id", userID,
		"withdrawal_id", withdrawal.ID,
		"amount", amount.StringFixed(2),
		"fee", feeAmount.StringFixed(2))
	return withdrawal, nil
}

// ReviewWithdrawal 审核提现：通过、标记打款或驳回退款
func (s *WalletService) ReviewWithdrawal(actorID, withdrawalID uint, newStatus, rejectReason string) (*models.Withdrawal, error) {
	newStatus = strings.TrimSpace(newStatus)
	switch newStatus {
	case constants.WithdrawalStatusApproved,
		constants.WithdrawalStatusPaid,
		constants.WithdrawalStatusRejected:
	default:
		return nil, ErrWithdrawalInvalid
	}

	var updated *models.Withdrawal
	err := s.withdrawalRepo.Transaction(func(tx *gorm.DB) error {
		withdrawalRepo := s.withdrawalRepo.WithTx(tx)
		row, err := withdrawalRepo.GetByIDForUpdate(withdrawalID)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		if !withdrawalTransitionAllowed(row.Status, newStatus) {
			return ErrWithdrawalInvalid
		}

		now := time.Now()
		row.Status = newStatus
		switch newStatus {
		case constants.WithdrawalStatusPaid:
			row.ProcessedAt = &now
		case constants.WithdrawalStatusRejected:
			row.RejectReason = strings.TrimSpace(rejectReason)
		}
		if err := withdrawalRepo.Update(row); err != nil {
			return err
		}

		if newStatus == constants.WithdrawalStatusRejected {
			if err := s.userRepo.WithTx(tx).AddBalances(row.UserID, decimal.Zero, row.Amount.Decimal); err != nil {
				return err
			}
			refID := row.ID
			if err := s.txnRepo.WithTx(tx).Create(&models.Transaction{
				UserID:        row.UserID,
				Type:          constants.TxnTypeWithdrawalRefund,
				Amount:        row.Amount,
				ReferenceType: "withdrawal",
				ReferenceID:   &refID,
				Description:   fmt.Sprintf("Saque #%d recusado, valor estornado", row.ID),
			}); err != nil {
				return err
			}
		}

		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.actionLogRepo != nil {
		targetID := updated.ID
		actorRef := &actorID
		if actorID == 0 {
			actorRef = nil
		}
		if err := s.actionLogRepo.Create(&models.ActionLog{
			ActorID:    actorRef,
			Action:     constants.ActionWithdrawalUpdated,
			TargetType: "withdrawal",
			TargetID:   &targetID,
			DetailJSON: models.JSON{"new_status": newStatus},
		}); err != nil {
			logger.Warnw("withdrawal_review_log_failed", "error", err)
		}
	}
	return updated, nil
}

func withdrawalTransitionAllowed(current, next string) bool {
	switch current {
	case constants.WithdrawalStatusPending:
		return next == constants.WithdrawalStatusApproved || next == constants.WithdrawalStatusRejected
	case constants.WithdrawalStatusApproved:
		return next == constants.WithdrawalStatusPaid || next == constants.WithdrawalStatusRejected
	default:
		return false
	}
}

// GetWithdrawal 查询提现申请
func (s *WalletService) GetWithdrawal(withdrawalID uint) (*models.Withdrawal, error) {
	row, err := s.withdrawalRepo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// ListWithdrawals 查询提现申请列表
func (s *WalletService) ListWithdrawals(filter repository.WithdrawalListFilter) ([]models.Withdrawal, int64, error) {
	return s.withdrawalRepo.List(filter)
}

// ListUserTransactions 查询用户账变流水
func (s *WalletService) ListUserTransactions(userID uint, filter repository.TransactionListFilter) ([]models.Transaction, int64, error) {
	filter.UserID = userID
	return s.txnRepo.List(filter)
}
