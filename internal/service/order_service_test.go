package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:order_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.Commission{},
		&models.Transaction{},
		&models.ActionLog{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	actionLogRepo := repository.NewActionLogRepository(db)
	settingSvc := NewSettingService(newMockSettingRepo())
	commissionSvc := NewCommissionService(
		userRepo,
		orderRepo,
		repository.NewCommissionRepository(db),
		repository.NewTransactionRepository(db),
		actionLogRepo,
		settingSvc,
		nil,
	)
	// 队列未启用，佣金联动同步执行
	svc := NewOrderService(orderRepo, userRepo, actionLogRepo, commissionSvc, nil)
	return svc, db
}

func TestCreateOrderComputesTotalsAndSnapshot(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	referrer := createNetworkTestUser(t, db, "order-ref@example.com", constants.AccessLevelReseller, nil, constants.UserStatusActive)
	buyer := createNetworkTestUser(t, db, "order-buyer@example.com", constants.AccessLevelClient, nil, constants.UserStatusActive)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:         buyer.ID,
		ReferralCode:   referrer.ReferralCode,
		ShippingAmount: decimal.RequireFromString("15.00"),
		Items: []CreateOrderItemInput{
			{ProductName: "Kit Inicial", UnitPrice: decimal.RequireFromString("99.90"), Quantity: 2},
			{ProductName: "Catálogo", UnitPrice: decimal.RequireFromString("10.10"), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if order.OrderNo == "" {
		t.Fatal("expected order number generated")
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	subtotal := decimal.RequireFromString("209.90")
	if !order.SubtotalAmount.Decimal.Equal(subtotal) {
		t.Fatalf("expected subtotal 209.90, got %s", order.SubtotalAmount.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.RequireFromString("224.90")) {
		t.Fatalf("expected total 224.90, got %s", order.TotalAmount.String())
	}
	// 运费不参与计佣
	if !order.CommissionBase.Decimal.Equal(subtotal) {
		t.Fatalf("expected commission base 209.90, got %s", order.CommissionBase.String())
	}
	if order.ReferrerID == nil || *order.ReferrerID != referrer.ID {
		t.Fatalf("expected referrer snapshot %d, got %v", referrer.ID, order.ReferrerID)
	}
	if order.ReferrerType != constants.RoleReseller {
		t.Fatalf("expected referrer type reseller, got %s", order.ReferrerType)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
}

func TestCreateOrderSelfReferralIgnored(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createNetworkTestUser(t, db, "self-buyer@example.com", constants.AccessLevelReseller, nil, constants.UserStatusActive)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:       buyer.ID,
		ReferralCode: buyer.ReferralCode,
		Items: []CreateOrderItemInput{
			{ProductName: "Produto", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.ReferrerID != nil {
		t.Fatalf("self referral must be dropped, got %v", order.ReferrerID)
	}
}

func TestCreateOrderValidations(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createNetworkTestUser(t, db, "val-buyer@example.com", constants.AccessLevelClient, nil, constants.UserStatusActive)

	if _, err := svc.CreateOrder(CreateOrderInput{UserID: buyer.ID}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for empty items, got %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{
		UserID: buyer.ID,
		Items:  []CreateOrderItemInput{{ProductName: "", UnitPrice: decimal.NewFromInt(10), Quantity: 1}},
	}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for blank product name, got %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{
		UserID: buyer.ID,
		Items:  []CreateOrderItemInput{{ProductName: "Produto", UnitPrice: decimal.NewFromInt(10), Quantity: 0}},
	}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for zero quantity, got %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{
		UserID:         buyer.ID,
		ShippingAmount: decimal.NewFromInt(-5),
		Items:          []CreateOrderItemInput{{ProductName: "Produto", UnitPrice: decimal.NewFromInt(10), Quantity: 1}},
	}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for negative shipping, got %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{
		UserID: 99999,
		Items:  []CreateOrderItemInput{{ProductName: "Produto", UnitPrice: decimal.NewFromInt(10), Quantity: 1}},
	}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	cancelled := createNetworkTestUser(t, db, "val-cancelled@example.com", constants.AccessLevelClient, nil, constants.UserStatusCancelled)
	if _, err := svc.CreateOrder(CreateOrderInput{
		UserID: cancelled.ID,
		Items:  []CreateOrderItemInput{{ProductName: "Produto", UnitPrice: decimal.NewFromInt(10), Quantity: 1}},
	}); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createNetworkTestUser(t, db, "tr-buyer@example.com", constants.AccessLevelClient, nil, constants.UserStatusActive)
	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: buyer.ID,
		Items:  []CreateOrderItemInput{{ProductName: "Produto", UnitPrice: decimal.NewFromInt(100), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 不允许跳跃流转
	if _, err := svc.UpdateOrderStatus(1, order.ID, constants.OrderStatusDelivered); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid for pending->delivered, got %v", err)
	}

	paid, err := svc.UpdateOrderStatus(1, order.ID, constants.OrderStatusPaid)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.PaidAt == nil {
		t.Fatal("expected paid_at stamp")
	}
	if paid.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected payment status paid, got %s", paid.PaymentStatus)
	}

	// 同状态重复提交为无操作
	if _, err := svc.UpdateOrderStatus(1, order.ID, constants.OrderStatusPaid); err != nil {
		t.Fatalf("repeat paid must be noop, got %v", err)
	}

	shipped, err := svc.UpdateOrderStatus(1, order.ID, constants.OrderStatusShipped)
	if err != nil {
		t.Fatalf("mark shipped failed: %v", err)
	}
	delivered, err := svc.UpdateOrderStatus(1, shipped.ID, constants.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}

	// 终态不再流转
	if _, err := svc.UpdateOrderStatus(1, delivered.ID, constants.OrderStatusCancelled); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid for delivered->cancelled, got %v", err)
	}

	var logs []models.ActionLog
	if err := db.Where("action = ?", constants.ActionOrderStatusUpdated).Find(&logs).Error; err != nil {
		t.Fatalf("list action logs failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 status logs, got %d", len(logs))
	}
}

func TestUpdateOrderStatusPaidSettlesCommissions(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	referrer := createNetworkTestUser(t, db, "settle-ref@example.com", constants.AccessLevelReseller, nil, constants.UserStatusActive)
	buyer := createNetworkTestUser(t, db, "settle-buyer@example.com", constants.AccessLevelClient, nil, constants.UserStatusActive)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:       buyer.ID,
		ReferralCode: referrer.ReferralCode,
		Items:        []CreateOrderItemInput{{ProductName: "Produto", UnitPrice: decimal.NewFromInt(1000), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.UpdateOrderStatus(1, order.ID, constants.OrderStatusPaid); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	rows := listOrderCommissions(t, db, order.ID)
	if len(rows) != 1 {
		t.Fatalf("expected 1 commission settled synchronously, got %d", len(rows))
	}
	if !rows[0].Amount.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected commission 100, got %s", rows[0].Amount.String())
	}

	// 宽限期内取消触发回退
	if _, err := svc.UpdateOrderStatus(1, order.ID, constants.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	rows = listOrderCommissions(t, db, order.ID)
	if rows[0].Status != constants.CommissionStatusReversed {
		t.Fatalf("expected reversed commission, got %s", rows[0].Status)
	}
	if got := reloadTestUser(t, db, referrer.ID); !got.BlockedBalance.Decimal.IsZero() {
		t.Fatalf("expected blocked balance reversed, got %s", got.BlockedBalance.String())
	}
}

func TestGetOrderNotFound(t *testing.T) {
	svc, _ := setupOrderServiceTest(t)
	if _, err := svc.GetOrder(12345); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
