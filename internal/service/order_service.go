package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/queue"
	"github.com/vanguard-next/internal/repository"
	"github.com/shopspring/decimal"
)

// OrderService 订单业务服务
type OrderService struct {
	orderRepo         repository.OrderRepository
	userRepo          repository.UserRepository
	actionLogRepo     repository.ActionLogRepository
	commissionService *CommissionService
	queueClient       *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	actionLogRepo repository.ActionLogRepository,
	commissionService *CommissionService,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		orderRepo:         orderRepo,
		userRepo:          userRepo,
		actionLogRepo:     actionLogRepo,
		commissionService: commissionService,
		queueClient:       queueClient,
	}
}

// CreateOrderItemInput 下单商品项
type CreateOrderItemInput struct {
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	UserID         uint
	ReferralCode   string
	ShippingAmount decimal.Decimal
	Items          []CreateOrderItemInput
}

// 订单状态允许的流转
var orderAllowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusPaid:      true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusDelivered: {},
	constants.OrderStatusCancelled: {},
}

// CreateOrder 创建订单并快照推荐人
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 || len(input.Items) == 0 {
		return nil, ErrInvalidParams
	}
	buyer, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrUserNotFound
	}
	if buyer.Status == constants.UserStatusCancelled {
		return nil, ErrUserDisabled
	}

	if input.ShippingAmount.IsNegative() {
		return nil, ErrInvalidParams
	}
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		name := strings.TrimSpace(item.ProductName)
		if name == "" || item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return nil, ErrInvalidParams
		}
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductName: name,
			UnitPrice:   models.NewMoneyFromDecimal(item.UnitPrice),
			Quantity:    item.Quantity,
			TotalPrice:  models.NewMoneyFromDecimal(lineTotal),
		})
	}
	shipping := input.ShippingAmount.Round(2)

	// 运费计入订单总额，但不参与计佣
	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         buyer.ID,
		Status:         constants.OrderStatusPending,
		PaymentStatus:  constants.PaymentStatusPending,
		SubtotalAmount: models.NewMoneyFromDecimal(subtotal),
		ShippingAmount: models.NewMoneyFromDecimal(shipping),
		TotalAmount:    models.NewMoneyFromDecimal(subtotal.Add(shipping)),
		CommissionBase: models.NewMoneyFromDecimal(subtotal),
		Items:          items,
	}
	s.snapshotReferrer(order, buyer, input.ReferralCode)

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// snapshotReferrer 下单时固化推荐人身份，推荐人后续角色变更不影响本单规则
func (s *OrderService) snapshotReferrer(order *models.Order, buyer *models.User, referralCode string) {
	code := strings.TrimSpace(referralCode)
	if code == "" {
		return
	}
	referrer, err := s.userRepo.GetByReferralCode(code)
	if err != nil {
		logger.Warnw("order_referrer_lookup_failed", "code", code, "error", err)
		return
	}
	if referrer == nil || referrer.ID == buyer.ID {
		return
	}
	id := referrer.ID
	order.ReferrerID = &id
	order.ReferrerType = referrer.RoleTag()
}

// UpdateOrderStatus 推进订单状态，支付与取消触发佣金联动
func (s *OrderService) UpdateOrderStatus(actorID, orderID uint, newStatus string) (*models.Order, error) {
	newStatus = strings.TrimSpace(newStatus)
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == newStatus {
		// 重复提交视为无操作
		return order, nil
	}
	if !orderAllowedTransitions[order.Status][newStatus] {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}
	switch newStatus {
	case constants.OrderStatusPaid:
		updates["paid_at"] = now
		updates["payment_status"] = constants.PaymentStatusPaid
	case constants.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	if err := s.orderRepo.UpdateFields(order.ID, updates); err != nil {
		return nil, err
	}

	switch newStatus {
	case constants.OrderStatusPaid:
		if err := s.dispatchCommissionSettlement(order.ID); err != nil {
			return nil, err
		}
	case constants.OrderStatusCancelled:
		if err := s.dispatchCommissionReversal(order.ID); err != nil {
			return nil, err
		}
	}

	if s.actionLogRepo != nil {
		targetID := order.ID
		actorRef := &actorID
		if actorID == 0 {
			actorRef = nil
		}
		if err := s.actionLogRepo.Create(&models.ActionLog{
			ActorID:    actorRef,
			Action:     constants.ActionOrderStatusUpdated,
			TargetType: "order",
			TargetID:   &targetID,
			DetailJSON: models.JSON{"new_status": newStatus},
		}); err != nil {
			logger.Warnw("order_status_log_failed", "error", err)
		}
	}

	return s.orderRepo.GetByID(order.ID)
}

// dispatchCommissionSettlement 队列可用时异步结算，否则同步结算
func (s *OrderService) dispatchCommissionSettlement(orderID uint) error {
	if s.queueClient.Enabled() {
		return s.queueClient.EnqueueOrderCommission(queue.OrderCommissionPayload{OrderID: orderID})
	}
	return s.commissionService.HandleOrderPaid(orderID)
}

// dispatchCommissionReversal 队列可用时异步回退，否则同步回退
func (s *OrderService) dispatchCommissionReversal(orderID uint) error {
	if s.queueClient.Enabled() {
		return s.queueClient.EnqueueOrderCommissionReverse(queue.OrderCommissionReversePayload{OrderID: orderID})
	}
	return s.commissionService.HandleOrderCancelled(orderID)
}

// GetOrder 查询订单
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 查询订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("VG%s%s", now, randPart)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
