//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.Transaction{},
		&models.Commission{},
		&models.OrderItem{},
		&models.Order{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.Commission{},
		&models.Transaction{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresHierarchyQueries(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewUserRepository(db)

	sponsor := &models.User{
		Email:        "pg-sponsor@example.com",
		PasswordHash: "hash",
		ReferralCode: "PGSPONSOR",
		AccessLevel:  constants.AccessLevelLeader,
		Status:       constants.UserStatusActive,
	}
	if err := repo.Create(sponsor); err != nil {
		t.Fatalf("create sponsor failed: %v", err)
	}
	middle := &models.User{
		Email:          "pg-middle@example.com",
		PasswordHash:   "hash",
		ReferralCode:   "PGMIDDLE",
		AccessLevel:    constants.AccessLevelReseller,
		Status:         constants.UserStatusActive,
		SponsorID:      &sponsor.ID,
		HierarchyLevel: 1,
	}
	if err := repo.Create(middle); err != nil {
		t.Fatalf("create middle failed: %v", err)
	}
	for i, email := range []string{"pg-child-a@example.com", "pg-child-b@example.com"} {
		child := &models.User{
			Email:          email,
			PasswordHash:   "hash",
			ReferralCode:   "PGCHILD" + string(rune('A'+i)),
			AccessLevel:    constants.AccessLevelReseller,
			Status:         constants.UserStatusActive,
			SponsorID:      &middle.ID,
			HierarchyLevel: 2,
		}
		if err := repo.Create(child); err != nil {
			t.Fatalf("create child failed: %v", err)
		}
	}

	children, err := repo.ListChildren(middle.ID)
	if err != nil {
		t.Fatalf("list children failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}

	moved, err := repo.ReparentChildren(middle.ID, &sponsor.ID)
	if err != nil {
		t.Fatalf("reparent children failed: %v", err)
	}
	if moved != 2 {
		t.Fatalf("expected 2 reparented rows, got %d", moved)
	}
	children, err = repo.ListChildren(sponsor.ID)
	if err != nil {
		t.Fatalf("list sponsor children failed: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 children under sponsor, got %d", len(children))
	}

	if err := repo.AddVolumes(sponsor.ID, decimal.NewFromInt(100), decimal.NewFromInt(250)); err != nil {
		t.Fatalf("add volumes failed: %v", err)
	}
	reset, err := repo.ResetVolumes([]int{constants.AccessLevelLeader, constants.AccessLevelReseller})
	if err != nil {
		t.Fatalf("reset volumes failed: %v", err)
	}
	if reset < 1 {
		t.Fatalf("expected at least 1 volume reset, got %d", reset)
	}
	row, err := repo.GetByID(sponsor.ID)
	if err != nil {
		t.Fatalf("reload sponsor failed: %v", err)
	}
	if !row.PersonalVolume.Decimal.IsZero() || !row.TeamVolume.Decimal.IsZero() {
		t.Fatalf("expected zeroed volumes, got pv=%s tv=%s", row.PersonalVolume.String(), row.TeamVolume.String())
	}
}

func TestPostgresCommissionReleaseQueries(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	userRepo := NewUserRepository(db)
	commissionRepo := NewCommissionRepository(db)

	earner := &models.User{
		Email:        "pg-earner@example.com",
		PasswordHash: "hash",
		ReferralCode: "PGEARNER",
		AccessLevel:  constants.AccessLevelReseller,
		Status:       constants.UserStatusActive,
	}
	if err := userRepo.Create(earner); err != nil {
		t.Fatalf("create earner failed: %v", err)
	}
	order := &models.Order{
		OrderNo:        "PG-ORDER-001",
		UserID:         earner.ID,
		Status:         constants.OrderStatusPaid,
		Currency:       "BRL",
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(300)),
		CommissionBase: models.NewMoneyFromDecimal(decimal.NewFromInt(300)),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	now := time.Now()
	due := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)
	for level, releaseAt := range map[int]*time.Time{1: &due, 2: &future} {
		row := &models.Commission{
			OrderID:      order.ID,
			UserID:       earner.ID,
			SourceUserID: earner.ID,
			Level:        level,
			Rate:         10,
			BaseAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(300)),
			Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
			Status:       constants.CommissionStatusBlocked,
			ReleaseAt:    releaseAt,
		}
		if err := commissionRepo.Create(row); err != nil {
			t.Fatalf("create commission level %d failed: %v", level, err)
		}
	}

	dueRows, err := commissionRepo.ListDueBlocked(now, 100)
	if err != nil {
		t.Fatalf("list due blocked failed: %v", err)
	}
	if len(dueRows) != 1 || dueRows[0].Level != 1 {
		t.Fatalf("expected only the due level-1 commission, got %+v", dueRows)
	}

	released, err := commissionRepo.MarkReleased(dueRows[0].ID, now)
	if err != nil {
		t.Fatalf("mark released failed: %v", err)
	}
	if !released {
		t.Fatal("expected commission to transition to available")
	}
	// 并发重放同一条记录必须是空操作
	released, err = commissionRepo.MarkReleased(dueRows[0].ID, now)
	if err != nil {
		t.Fatalf("mark released replay failed: %v", err)
	}
	if released {
		t.Fatal("expected replayed release to be a no-op")
	}

	available, err := commissionRepo.SumByUser(earner.ID, []string{constants.CommissionStatusAvailable})
	if err != nil {
		t.Fatalf("sum by user failed: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected available sum 30, got %s", available)
	}
}
