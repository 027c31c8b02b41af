package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/queue"
	"github.com/vanguard-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	referenceTypeCommission = "commission"
	releaseSweepBatchSize   = 200
)

// CommissionService 佣金结算与生命周期服务
type CommissionService struct {
	userRepo       repository.UserRepository
	orderRepo      repository.OrderRepository
	commissionRepo repository.CommissionRepository
	txnRepo        repository.TransactionRepository
	actionLogRepo  repository.ActionLogRepository
	settingService *SettingService
	queueClient    *queue.Client
}

// NewCommissionService 创建佣金服务
func NewCommissionService(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	commissionRepo repository.CommissionRepository,
	txnRepo repository.TransactionRepository,
	actionLogRepo repository.ActionLogRepository,
	settingService *SettingService,
	queueClient *queue.Client,
) *CommissionService {
	return &CommissionService{
		userRepo:       userRepo,
		orderRepo:      orderRepo,
		commissionRepo: commissionRepo,
		txnRepo:        txnRepo,
		actionLogRepo:  actionLogRepo,
		settingService: settingService,
		queueClient:    queueClient,
	}
}

// PendingCommission 待入账佣金（规则引擎输出）
type PendingCommission struct {
	UserID     uint
	Level      int
	Rate       float64
	BaseAmount decimal.Decimal
	Amount     decimal.Decimal
}

// buildCommissionPlan 按推荐人角色快照计算订单的佣金分配
func (s *CommissionService) buildCommissionPlan(order *models.Order, setting MLMSetting) ([]PendingCommission, error) {
	if order == nil || order.ReferrerID == nil || *order.ReferrerID == 0 {
		return nil, nil
	}
	base := order.CommissionBase.Decimal.Round(2)
	if base.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	referrer, err := s.userRepo.GetByID(*order.ReferrerID)
	if err != nil {
		return nil, err
	}
	if referrer == nil {
		// 推荐人记录缺失按无推荐处理
		logger.Warnw("commission_referrer_missing", "order_id", order.ID, "referrer_id", *order.ReferrerID)
		return nil, nil
	}

	switch strings.TrimSpace(order.ReferrerType) {
	case constants.RoleAmbassador:
		rate := setting.AmbassadorDefaultRate
		if referrer.AmbassadorRate != nil {
			rate = *referrer.AmbassadorRate
		}
		return []PendingCommission{buildPendingCommission(referrer.ID, 0, rate, base)}, nil
	case constants.RoleClient:
		return []PendingCommission{buildPendingCommission(referrer.ID, 0, setting.ClientReferralCommission, base)}, nil
	case constants.RoleReseller, constants.RoleLeader:
		return s.buildChainPlan(referrer, setting, base)
	default:
		return nil, nil
	}
}

// buildChainPlan 沿推荐链向上最多三级分配佣金。
// 非 active 节点不拿当级佣金但不中断链路；比例按链路位置取，不按实际获佣人数顺延。
func (s *CommissionService) buildChainPlan(referrer *models.User, setting MLMSetting, base decimal.Decimal) ([]PendingCommission, error) {
	rates := setting.ChainRates()
	plans := make([]PendingCommission, 0, constants.CommissionChainMaxDepth)

	current := referrer
	for level := 0; level < constants.CommissionChainMaxDepth; level++ {
		if current == nil {
			// 链路断裂，终止
			break
		}
		if current.Status != constants.UserStatusActive {
			if current.SponsorID == nil || *current.SponsorID == 0 {
				break
			}
			next, err := s.userRepo.GetByID(*current.SponsorID)
			if err != nil {
				return nil, err
			}
			current = next
			continue
		}

		plans = append(plans, buildPendingCommission(current.ID, level+1, rates[level], base))

		if current.SponsorID == nil || *current.SponsorID == 0 {
			break
		}
		next, err := s.userRepo.GetByID(*current.SponsorID)
		if err != nil {
			return nil, err
		}
		current = next
	}

	return plans, nil
}

func buildPendingCommission(userID uint, level int, rate float64, base decimal.Decimal) PendingCommission {
	amount := base.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100)).Round(2)
	return PendingCommission{
		UserID:     userID,
		Level:      level,
		Rate:       rate,
		BaseAmount: base,
		Amount:     amount,
	}
}

// HandleOrderPaid 订单支付后结算佣金并累计业绩（按订单幂等）
func (s *CommissionService) HandleOrderPaid(orderID uint) error {
	if orderID == 0 || s.commissionRepo == nil || s.orderRepo == nil {
		return nil
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	if order.CommissionBase.Decimal.IsNegative() {
		return ErrInvalidCommissionBase
	}
	if order.CommissionsProcessedAt != nil {
		// 队列至少投递一次，重复投递直接跳过
		return nil
	}

	exists, err := s.commissionRepo.HasByOrder(order.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	setting, err := s.settingService.GetMLMSetting()
	if err != nil {
		return err
	}
	plans, err := s.buildCommissionPlan(order, setting)
	if err != nil {
		return err
	}

	now := time.Now()
	releaseAt := now.Add(time.Duration(setting.BonusBlockDays) * 24 * time.Hour)
	created := make([]models.Commission, 0, len(plans))

	err = s.commissionRepo.Transaction(func(tx *gorm.DB) error {
		commissionTx := s.commissionRepo.WithTx(tx)
		userTx := s.userRepo.WithTx(tx)
		orderTx := s.orderRepo.WithTx(tx)

		for _, plan := range plans {
			commission := &models.Commission{
				OrderID:      order.ID,
				UserID:       plan.UserID,
				SourceUserID: order.UserID,
				Level:        plan.Level,
				Rate:         plan.Rate,
				BaseAmount:   models.NewMoneyFromDecimal(plan.BaseAmount),
				Amount:       models.NewMoneyFromDecimal(plan.Amount),
				Status:       constants.CommissionStatusBlocked,
				ReleaseAt:    &releaseAt,
			}
			if err := commissionTx.Create(commission); err != nil {
				return err
			}
			if err := userTx.AddBalances(plan.UserID, plan.Amount, decimal.Zero); err != nil {
				return err
			}
			created = append(created, *commission)
		}

		if err := s.creditOrderVolumes(userTx, order); err != nil {
			return err
		}

		// 无推荐人订单不产生佣金行，结算完成标记与业绩累计同事务落库才保证幂等
		return orderTx.UpdateFields(order.ID, map[string]interface{}{
			"commissions_processed_at": now,
			"updated_at":               now,
		})
	})
	if err != nil {
		return err
	}

	s.notifyCommissionsCreated(created)
	return nil
}

// creditOrderVolumes 累计买家个人业绩并沿推荐链累计团队业绩
func (s *CommissionService) creditOrderVolumes(userTx repository.UserRepository, order *models.Order) error {
	base := order.CommissionBase.Decimal.Round(2)
	if base.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	buyer, err := userTx.GetByID(order.UserID)
	if err != nil {
		return err
	}
	if buyer == nil || !buyer.IsReseller() {
		return nil
	}

	if err := userTx.AddVolumes(buyer.ID, base, decimal.Zero); err != nil {
		return err
	}

	// 团队业绩沿链向上无条件累计，断链或成环即终止
	visited := map[uint]struct{}{buyer.ID: {}}
	sponsorID := buyer.SponsorID
	for sponsorID != nil && *sponsorID != 0 {
		if _, ok := visited[*sponsorID]; ok {
			break
		}
		visited[*sponsorID] = struct{}{}

		if err := userTx.AddVolumes(*sponsorID, decimal.Zero, base); err != nil {
			return err
		}
		sponsor, err := userTx.GetByID(*sponsorID)
		if err != nil {
			return err
		}
		if sponsor == nil {
			break
		}
		sponsorID = sponsor.SponsorID
	}
	return nil
}

// HandleOrderCancelled 订单取消后在宽限期内回退佣金
func (s *CommissionService) HandleOrderCancelled(orderID uint) error {
	if orderID == 0 || s.commissionRepo == nil || s.orderRepo == nil {
		return nil
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil || order.PaidAt == nil {
		return nil
	}
	if time.Since(*order.PaidAt) > constants.CancellationGraceDays*24*time.Hour {
		// 超出宽限期的取消不回退佣金
		return nil
	}

	reversed := 0
	err = s.commissionRepo.Transaction(func(tx *gorm.DB) error {
		commissionTx := s.commissionRepo.WithTx(tx)
		userTx := s.userRepo.WithTx(tx)
		txnTx := s.txnRepo.WithTx(tx)
		logTx := s.actionLogRepo.WithTx(tx)

		rows, err := commissionTx.ListByOrderForUpdate(order.ID, []string{
			constants.CommissionStatusBlocked,
			constants.CommissionStatusAvailable,
		})
		if err != nil {
			return err
		}
		now := time.Now()

		for i := range rows {
			item := rows[i]
			ok, err := commissionTx.MarkReversed(item.ID, item.Status, now)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			amount := item.Amount.Decimal
			if item.Status == constants.CommissionStatusBlocked {
				err = userTx.AddBalances(item.UserID, amount.Neg(), decimal.Zero)
			} else {
				err = userTx.AddBalances(item.UserID, decimal.Zero, amount.Neg())
			}
			if err != nil {
				return err
			}

			commissionID := item.ID
			if err := txnTx.Create(&models.Transaction{
				UserID:        item.UserID,
				Type:          constants.TxnTypeCommissionReversed,
				Amount:        models.NewMoneyFromDecimal(amount.Neg()),
				ReferenceType: referenceTypeCommission,
				ReferenceID:   &commissionID,
				Description:   fmt.Sprintf("Comissão estornada - Nível %d", item.Level),
			}); err != nil {
				return err
			}
			reversed++
		}

		if reversed > 0 {
			orderID := order.ID
			if err := logTx.Create(&models.ActionLog{
				Action:     constants.ActionCommissionsReversed,
				TargetType: "order",
				TargetID:   &orderID,
				DetailJSON: models.JSON{"count": reversed},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if reversed > 0 {
		logger.Infow("order_commissions_reversed", "order_id", order.ID, "count", reversed)
	}
	return nil
}

// RunReleaseSweep 解冻所有到期的冻结佣金，返回本次解冻条数。
// 逐条条件更新，和并发触发的巡检互不重复入账。
func (s *CommissionService) RunReleaseSweep(now time.Time) (int, error) {
	if s.commissionRepo == nil {
		return 0, nil
	}
	released := 0

	for {
		due, err := s.commissionRepo.ListDueBlocked(now, releaseSweepBatchSize)
		if err != nil {
			return released, err
		}
		if len(due) == 0 {
			break
		}

		for i := range due {
			item := due[i]
			ok, err := s.releaseOne(item, now)
			if err != nil {
				return released, err
			}
			if ok {
				released++
			}
		}

		if len(due) < releaseSweepBatchSize {
			break
		}
	}

	if released > 0 {
		if err := s.actionLogRepo.Create(&models.ActionLog{
			Action:     constants.ActionCommissionsReleased,
			DetailJSON: models.JSON{"count": released},
		}); err != nil {
			logger.Warnw("commission_release_log_failed", "error", err)
		}
	}
	logger.Infow("commission_release_sweep_done", "released", released)
	return released, nil
}

// releaseOne 在独立事务内解冻单条佣金
func (s *CommissionService) releaseOne(item models.Commission, now time.Time) (bool, error) {
	releasedThis := false
	err := s.commissionRepo.Transaction(func(tx *gorm.DB) error {
		commissionTx := s.commissionRepo.WithTx(tx)
		userTx := s.userRepo.WithTx(tx)
		txnTx := s.txnRepo.WithTx(tx)

		ok, err := commissionTx.MarkReleased(item.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			// 已被并发巡检处理
			return nil
		}

		amount := item.Amount.Decimal
		if err := userTx.AddBalances(item.UserID, amount.Neg(), amount); err != nil {
			return err
		}

		commissionID := item.ID
		if err := txnTx.Create(&models.Transaction{
			UserID:        item.UserID,
			Type:          constants.TxnTypeCommissionReleased,
			Amount:        models.NewMoneyFromDecimal(amount),
			ReferenceType: referenceTypeCommission,
			ReferenceID:   &commissionID,
			Description:   fmt.Sprintf("Comissão liberada - Nível %d", item.Level),
		}); err != nil {
			return err
		}
		releasedThis = true
		return nil
	})
	return releasedThis, err
}

// notifyCommissionsCreated 佣金入账通知（尽力而为，失败不回滚结算）
func (s *CommissionService) notifyCommissionsCreated(created []models.Commission) {
	for i := range created {
		item := created[i]
		if err := s.queueClient.EnqueueCommissionNotify(queue.CommissionNotifyPayload{
			CommissionID: item.ID,
			UserID:       item.UserID,
			Amount:       item.Amount.String(),
			Level:        item.Level,
		}); err != nil {
			logger.Warnw("commission_notify_enqueue_failed", "commission_id", item.ID, "error", err)
		}
	}
}

// ListUserCommissions 查询用户佣金记录
func (s *CommissionService) ListUserCommissions(userID uint, page, pageSize int, status string) ([]models.Commission, int64, error) {
	if userID == 0 {
		return []models.Commission{}, 0, nil
	}
	return s.commissionRepo.List(repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   strings.TrimSpace(status),
	})
}

// ListCommissions 管理端查询佣金记录
func (s *CommissionService) ListCommissions(filter repository.CommissionListFilter) ([]models.Commission, int64, error) {
	return s.commissionRepo.List(filter)
}

// CommissionSummary 用户佣金概览
type CommissionSummary struct {
	BlockedTotal   models.Money                        `json:"blocked_total"`   // 冻结中
	AvailableTotal models.Money                        `json:"available_total"` // 已解冻累计
	ReversedTotal  models.Money                        `json:"reversed_total"`  // 已回退累计
	MonthToDate    models.Money                        `json:"month_to_date"`   // 本月新增（不含已回退）
	ByLevel        []repository.CommissionLevelSummary `json:"by_level"`        // 按层级与状态分组
}

// GetUserCommissionSummary 汇总用户佣金概览
func (s *CommissionService) GetUserCommissionSummary(userID uint) (*CommissionSummary, error) {
	if userID == 0 {
		return nil, ErrInvalidParams
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	blocked, err := s.commissionRepo.SumByUser(userID, []string{constants.CommissionStatusBlocked})
	if err != nil {
		return nil, err
	}
	available, err := s.commissionRepo.SumByUser(userID, []string{constants.CommissionStatusAvailable})
	if err != nil {
		return nil, err
	}
	reversed, err := s.commissionRepo.SumByUser(userID, []string{constants.CommissionStatusReversed})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthToDate, err := s.commissionRepo.SumByUserSince(userID, []string{
		constants.CommissionStatusBlocked,
		constants.CommissionStatusAvailable,
	}, monthStart)
	if err != nil {
		return nil, err
	}

	byLevel, err := s.commissionRepo.SummarizeByUser(userID)
	if err != nil {
		return nil, err
	}

	return &CommissionSummary{
		BlockedTotal:   models.NewMoneyFromDecimal(blocked),
		AvailableTotal: models.NewMoneyFromDecimal(available),
		ReversedTotal:  models.NewMoneyFromDecimal(reversed),
		MonthToDate:    models.NewMoneyFromDecimal(monthToDate),
		ByLevel:        byLevel,
	}, nil
}
