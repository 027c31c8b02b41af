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

func setupWalletServiceTest(t *testing.T) (*WalletService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:wallet_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Withdrawal{},
		&models.Transaction{},
		&models.ActionLog{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	settingSvc := NewSettingService(newMockSettingRepo())
	svc := NewWalletService(
		repository.NewUserRepository(db),
		repository.NewWithdrawalRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewActionLogRepository(db),
		settingSvc,
	)
	return svc, db
}

func createWalletTestUser(t *testing.T, db *gorm.DB, email string, available decimal.Decimal) *models.User {
	t.Helper()

	row := &models.User{
		Email:            email,
		PasswordHash:     "hash",
		ReferralCode:     fmt.Sprintf("WL%08d", time.Now().UnixNano()%100000000),
		AccessLevel:      constants.AccessLevelReseller,
		Status:           constants.UserStatusActive,
		AvailableBalance: models.NewMoneyFromDecimal(available),
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return row
}

func TestRequestWithdrawalDeductsBalanceAndFee(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "wd@example.com", decimal.NewFromInt(500))

	withdrawal, err := svc.RequestWithdrawal(user.ID, decimal.NewFromInt(200), models.JSON{"pix": "wd@example.com"})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}
	if withdrawal.Status != constants.WithdrawalStatusPending {
		t.Fatalf("expected pending status, got %s", withdrawal.Status)
	}
	if !withdrawal.FeeAmount.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected fee 10, got %s", withdrawal.FeeAmount.String())
	}
	if !withdrawal.NetAmount.Decimal.Equal(decimal.NewFromInt(190)) {
		t.Fatalf("expected net 190, got %s", withdrawal.NetAmount.String())
	}

	reloaded := reloadTestUser(t, db, user.ID)
	if !reloaded.AvailableBalance.Decimal.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected available 300 after freeze, got %s", reloaded.AvailableBalance.String())
	}

	var txns []models.Transaction
	if err := db.Where("user_id = ? AND type = ?", user.ID, constants.TxnTypeWithdrawalRequest).Find(&txns).Error; err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(txns) != 1 || !txns[0].Amount.Decimal.Equal(decimal.NewFromInt(-200)) {
		t.Fatalf("unexpected request transaction: %+v", txns)
	}
}

func TestRequestWithdrawalBelowMinimum(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "wd-min@example.com", decimal.NewFromInt(500))

	if _, err := svc.RequestWithdrawal(user.ID, decimal.NewFromInt(10), nil); !errors.Is(err, ErrWithdrawalTooSmall) {
		t.Fatalf("expected ErrWithdrawalTooSmall, got %v", err)
	}
}

func TestRequestWithdrawalInsufficientBalance(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "wd-poor@example.com", decimal.NewFromInt(60))

	if _, err := svc.RequestWithdrawal(user.ID, decimal.NewFromInt(100), nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// 失败不得动账
	reloaded := reloadTestUser(t, db, user.ID)
	if !reloaded.AvailableBalance.Decimal.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("balance must be untouched, got %s", reloaded.AvailableBalance.String())
	}
}

func TestRequestWithdrawalSuspendedUserRejected(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "wd-susp@example.com", decimal.NewFromInt(500))
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusSuspended).Error; err != nil {
		t.Fatalf("suspend user failed: %v", err)
	}

	if _, err := svc.RequestWithdrawal(user.ID, decimal.NewFromInt(100), nil); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestReviewWithdrawalApproveThenPay(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "wd-flow@example.com", decimal.NewFromInt(500))

	withdrawal, err := svc.RequestWithdrawal(user.ID, decimal.NewFromInt(100), nil)
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}

	// 待审核不能直接打款
	if _, err := svc.ReviewWithdrawal(1, withdrawal.ID, constants.WithdrawalStatusPaid, ""); !errors.Is(err, ErrWithdrawalInvalid) {
		t.Fatalf("expected ErrWithdrawalInvalid for pending->paid, got %v", err)
	}

	approved, err := svc.ReviewWithdrawal(1, withdrawal.ID, constants.WithdrawalStatusApproved, "")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.WithdrawalStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}

	paid, err := svc.ReviewWithdrawal(1, withdrawal.ID, constants.WithdrawalStatusPaid, "")
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.ProcessedAt == nil {
		t.Fatal("expected processed_at stamp on paid")
	}

	// 打款后不可再流转
	if _, err := svc.ReviewWithdrawal(1, withdrawal.ID, constants.WithdrawalStatusRejected, ""); !errors.Is(err, ErrWithdrawalInvalid) {
		t.Fatalf("expected ErrWithdrawalInvalid for paid->rejected, got %v", err)
	}
}

func TestReviewWithdrawalRejectRefunds(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "wd-reject@example.com", decimal.NewFromInt(500))

	withdrawal, err := svc.RequestWithdrawal(user.ID, decimal.NewFromInt(200), nil)
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}

	rejected, err := svc.ReviewWithdrawal(1, withdrawal.ID, constants.WithdrawalStatusRejected, "dados bancários inválidos")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.RejectReason == "" {
		t.Fatal("expected reject reason recorded")
	}

	reloaded := reloadTestUser(t, db, user.ID)
	if !reloaded.AvailableBalance.Decimal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected full refund to 500, got %s", reloaded.AvailableBalance.String())
	}

	var txns []models.Transaction
	if err := db.Where("user_id = ? AND type = ?", user.ID, constants.TxnTypeWithdrawalRefund).Find(&txns).Error; err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(txns) != 1 || !txns[0].Amount.Decimal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected refund transaction: %+v", txns)
	}
}

func TestGetBalanceSummary(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "wd-summary@example.com", decimal.NewFromInt(120))
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"blocked_balance": decimal.NewFromInt(30),
		"personal_volume": decimal.NewFromInt(400),
		"team_volume":     decimal.NewFromInt(900),
	}).Error; err != nil {
		t.Fatalf("seed balances failed: %v", err)
	}

	summary, err := svc.GetBalanceSummary(user.ID)
	if err != nil {
		t.Fatalf("get summary failed: %v", err)
	}
	if !summary.AvailableBalance.Decimal.Equal(decimal.NewFromInt(120)) ||
		!summary.BlockedBalance.Decimal.Equal(decimal.NewFromInt(30)) ||
		!summary.PersonalVolume.Decimal.Equal(decimal.NewFromInt(400)) ||
		!summary.TeamVolume.Decimal.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if _, err := svc.GetBalanceSummary(99999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
