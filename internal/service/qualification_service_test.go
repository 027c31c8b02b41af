package service

import (
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

func setupQualificationServiceTest(t *testing.T) (*QualificationService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:qualification_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ActionLog{}, &models.Setting{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	settingSvc := NewSettingService(newMockSettingRepo())
	svc := NewQualificationService(
		repository.NewUserRepository(db),
		repository.NewActionLogRepository(db),
		settingSvc,
	)
	return svc, db
}

func createQualificationTestReseller(t *testing.T, db *gorm.DB, email string, personalVolume decimal.Decimal, lastQualification *time.Time) *models.User {
	t.Helper()

	row := &models.User{
		Email:             email,
		PasswordHash:      "hash",
		ReferralCode:      fmt.Sprintf("QC%08d", time.Now().UnixNano()%100000000),
		AccessLevel:       constants.AccessLevelReseller,
		Status:            constants.UserStatusActive,
		PersonalVolume:    models.NewMoneyFromDecimal(personalVolume),
		LastQualification: lastQualification,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create reseller failed: %v", err)
	}
	return row
}

func TestRunQualificationJobStampsQualified(t *testing.T) {
	svc, db := setupQualificationServiceTest(t)

	old := time.Now().Add(-90 * 24 * time.Hour)
	qualified := createQualificationTestReseller(t, db, "qualified@example.com", decimal.NewFromInt(150), &old)

	now := time.Now()
	result, err := svc.RunQualificationJob(now)
	if err != nil {
		t.Fatalf("qualification job failed: %v", err)
	}
	if result.Qualified != 1 || result.Suspended != 0 || result.Cancelled != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	reloaded := reloadTestUser(t, db, qualified.ID)
	if reloaded.LastQualification == nil || reloaded.LastQualification.Before(old.Add(time.Hour)) {
		t.Fatalf("expected last_qualification stamped, got %v", reloaded.LastQualification)
	}
	if reloaded.Status != constants.UserStatusActive {
		t.Fatalf("qualified reseller must stay active, got %s", reloaded.Status)
	}
}

func TestRunQualificationJobSuspendsInactive(t *testing.T) {
	svc, db := setupQualificationServiceTest(t)

	// 7 个月未达标：暂停但不取消
	stale := time.Now().Add(-7 * 30 * 24 * time.Hour)
	inactive := createQualificationTestReseller(t, db, "inactive@example.com", decimal.NewFromInt(10), &stale)

	result, err := svc.RunQualificationJob(time.Now())
	if err != nil {
		t.Fatalf("qualification job failed: %v", err)
	}
	if result.Suspended != 1 || result.Cancelled != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := reloadTestUser(t, db, inactive.ID); got.Status != constants.UserStatusSuspended {
		t.Fatalf("expected suspended status, got %s", got.Status)
	}
}

func TestRunQualificationJobCancelsAndReparents(t *testing.T) {
	svc, db := setupQualificationServiceTest(t)

	sponsor := createQualificationTestReseller(t, db, "cancel-sponsor@example.com", decimal.NewFromInt(500), nil)

	stale := time.Now().Add(-13 * 30 * 24 * time.Hour)
	cancelled := &models.User{
		Email:             "cancel-target@example.com",
		PasswordHash:      "hash",
		ReferralCode:      "QCCANCEL",
		AccessLevel:       constants.AccessLevelReseller,
		Status:            constants.UserStatusSuspended,
		SponsorID:         &sponsor.ID,
		HierarchyLevel:    1,
		LastQualification: &stale,
	}
	if err := db.Create(cancelled).Error; err != nil {
		t.Fatalf("create cancel target failed: %v", err)
	}

	child := &models.User{
		Email:          "cancel-child@example.com",
		PasswordHash:   "hash",
		ReferralCode:   "QCCHILD1",
		AccessLevel:    constants.AccessLevelReseller,
		Status:         constants.UserStatusActive,
		SponsorID:      &cancelled.ID,
		HierarchyLevel: 2,
		PersonalVolume: models.NewMoneyFromDecimal(decimal.NewFromInt(300)),
	}
	if err := db.Create(child).Error; err != nil {
		t.Fatalf("create child failed: %v", err)
	}

	result, err := svc.RunQualificationJob(time.Now())
	if err != nil {
		t.Fatalf("qualification job failed: %v", err)
	}
	if result.Cancelled != 1 {
		t.Fatalf("expected 1 cancelled, got %+v", result)
	}

	if got := reloadTestUser(t, db, cancelled.ID); got.Status != constants.UserStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", got.Status)
	}

	// 下级整体上提一层，挂到被取消者的推荐人名下
	reloadedChild := reloadTestUser(t, db, child.ID)
	if reloadedChild.SponsorID == nil || *reloadedChild.SponsorID != sponsor.ID {
		t.Fatalf("expected child reparented to %d, got %v", sponsor.ID, reloadedChild.SponsorID)
	}
	if reloadedChild.HierarchyLevel != 1 {
		t.Fatalf("expected hierarchy level 1 after splice, got %d", reloadedChild.HierarchyLevel)
	}
}

func TestRunQualificationJobNeverQualifiedNotPenalized(t *testing.T) {
	svc, db := setupQualificationServiceTest(t)

	fresh := createQualificationTestReseller(t, db, "fresh@example.com", decimal.NewFromInt(20), nil)

	result, err := svc.RunQualificationJob(time.Now())
	if err != nil {
		t.Fatalf("qualification job failed: %v", err)
	}
	if result.Suspended != 0 || result.Cancelled != 0 {
		t.Fatalf("never-qualified reseller must not be penalized: %+v", result)
	}
	if got := reloadTestUser(t, db, fresh.ID); got.Status != constants.UserStatusActive {
		t.Fatalf("expected active status, got %s", got.Status)
	}
}

func TestRunQualificationJobResetsVolumes(t *testing.T) {
	svc, db := setupQualificationServiceTest(t)

	reseller := createQualificationTestReseller(t, db, "reset@example.com", decimal.NewFromInt(150), nil)
	if err := db.Model(&models.User{}).Where("id = ?", reseller.ID).Update("team_volume", decimal.NewFromInt(900)).Error; err != nil {
		t.Fatalf("set team volume failed: %v", err)
	}

	leader := &models.User{
		Email:          "reset-leader@example.com",
		PasswordHash:   "hash",
		ReferralCode:   "QCLEADER",
		AccessLevel:    constants.AccessLevelLeader,
		Status:         constants.UserStatusActive,
		PersonalVolume: models.NewMoneyFromDecimal(decimal.NewFromInt(700)),
	}
	if err := db.Create(leader).Error; err != nil {
		t.Fatalf("create leader failed: %v", err)
	}

	result, err := svc.RunQualificationJob(time.Now())
	if err != nil {
		t.Fatalf("qualification job failed: %v", err)
	}
	if result.VolumesReset < 2 {
		t.Fatalf("expected at least 2 volume resets, got %d", result.VolumesReset)
	}

	if got := reloadTestUser(t, db, reseller.ID); !got.PersonalVolume.Decimal.IsZero() || !got.TeamVolume.Decimal.IsZero() {
		t.Fatalf("expected reseller volumes reset, got %s/%s", got.PersonalVolume.String(), got.TeamVolume.String())
	}
	if got := reloadTestUser(t, db, leader.ID); !got.PersonalVolume.Decimal.IsZero() {
		t.Fatalf("expected leader volumes reset, got %s", got.PersonalVolume.String())
	}
}
