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
	"gorm.io/gorm"
)

func setupNetworkServiceTest(t *testing.T) (*NetworkService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:network_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ActionLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewNetworkService(repository.NewUserRepository(db), repository.NewActionLogRepository(db))
	return svc, db
}

func TestRegisterUserWithSponsor(t *testing.T) {
	svc, db := setupNetworkServiceTest(t)

	sponsor, err := svc.RegisterUser(RegisterUserInput{
		Email:       "sponsor@example.com",
		Password:    "secret123",
		DisplayName: "Sponsor",
		AccessLevel: constants.AccessLevelReseller,
	})
	if err != nil {
		t.Fatalf("register sponsor failed: %v", err)
	}
	if sponsor.ReferralCode == "" {
		t.Fatal("expected referral code generated")
	}
	if sponsor.LastQualification == nil {
		t.Fatal("expected initial qualification stamp for reseller")
	}

	child, err := svc.RegisterUser(RegisterUserInput{
		Email:       "child@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
		SponsorCode: sponsor.ReferralCode,
	})
	if err != nil {
		t.Fatalf("register child failed: %v", err)
	}
	if child.SponsorID == nil || *child.SponsorID != sponsor.ID {
		t.Fatalf("expected sponsor %d, got %v", sponsor.ID, child.SponsorID)
	}
	if child.HierarchyLevel != sponsor.HierarchyLevel+1 {
		t.Fatalf("expected hierarchy level %d, got %d", sponsor.HierarchyLevel+1, child.HierarchyLevel)
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 users, got %d", count)
	}
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	svc, _ := setupNetworkServiceTest(t)

	if _, err := svc.RegisterUser(RegisterUserInput{
		Email:       "dup@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelClient,
	}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, err := svc.RegisterUser(RegisterUserInput{
		Email:       "DUP@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelClient,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterUserInvalidSponsorCode(t *testing.T) {
	svc, _ := setupNetworkServiceTest(t)

	_, err := svc.RegisterUser(RegisterUserInput{
		Email:       "orphan@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
		SponsorCode: "NOPE1234",
	})
	if !errors.Is(err, ErrInvalidSponsor) {
		t.Fatalf("expected ErrInvalidSponsor, got %v", err)
	}
}

func TestRegisterUserClientSponsorRejected(t *testing.T) {
	svc, _ := setupNetworkServiceTest(t)

	client, err := svc.RegisterUser(RegisterUserInput{
		Email:       "plain-client@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelClient,
	})
	if err != nil {
		t.Fatalf("register client failed: %v", err)
	}

	// 推荐人必须是队长或经销商
	_, err = svc.RegisterUser(RegisterUserInput{
		Email:       "under-client@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
		SponsorCode: client.ReferralCode,
	})
	if !errors.Is(err, ErrInvalidSponsor) {
		t.Fatalf("expected ErrInvalidSponsor, got %v", err)
	}
}

func TestConvertUserResellerToLeader(t *testing.T) {
	svc, _ := setupNetworkServiceTest(t)

	reseller, err := svc.RegisterUser(RegisterUserInput{
		Email:       "promo@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	updated, err := svc.ConvertUser(1, reseller.ID, constants.AccessLevelLeader, "")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if updated.AccessLevel != constants.AccessLevelLeader {
		t.Fatalf("expected leader level, got %d", updated.AccessLevel)
	}
}

func TestConvertUserClientToLeaderRejected(t *testing.T) {
	svc, _ := setupNetworkServiceTest(t)

	client, err := svc.RegisterUser(RegisterUserInput{
		Email:       "no-promo@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelClient,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.ConvertUser(1, client.ID, constants.AccessLevelLeader, ""); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestConvertUserSponsorCycleRejected(t *testing.T) {
	svc, _ := setupNetworkServiceTest(t)

	top, err := svc.RegisterUser(RegisterUserInput{
		Email:       "cycle-top@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
	})
	if err != nil {
		t.Fatalf("register top failed: %v", err)
	}
	bottom, err := svc.RegisterUser(RegisterUserInput{
		Email:       "cycle-bottom@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
		SponsorCode: top.ReferralCode,
	})
	if err != nil {
		t.Fatalf("register bottom failed: %v", err)
	}

	// 把上级挂到自己的下级名下会构成环
	if _, err := svc.ConvertUser(1, top.ID, constants.AccessLevelReseller, bottom.ReferralCode); !errors.Is(err, ErrSponsorCycle) {
		t.Fatalf("expected ErrSponsorCycle, got %v", err)
	}

	// 挂到自己名下同样拒绝
	if _, err := svc.ConvertUser(1, top.ID, constants.AccessLevelReseller, top.ReferralCode); !errors.Is(err, ErrInvalidSponsor) {
		t.Fatalf("expected ErrInvalidSponsor, got %v", err)
	}
}

func TestUpdateAmbassadorRate(t *testing.T) {
	svc, db := setupNetworkServiceTest(t)

	ambassador, err := svc.RegisterUser(RegisterUserInput{
		Email:       "amb@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelAmbassador,
	})
	if err != nil {
		t.Fatalf("register ambassador failed: %v", err)
	}
	if ambassador.AmbassadorRate == nil {
		t.Fatal("expected default ambassador rate assigned")
	}

	if err := svc.UpdateAmbassadorRate(1, ambassador.ID, 12.5); err != nil {
		t.Fatalf("update rate failed: %v", err)
	}
	reloaded := reloadTestUser(t, db, ambassador.ID)
	if reloaded.AmbassadorRate == nil || *reloaded.AmbassadorRate != 12.5 {
		t.Fatalf("expected rate 12.5, got %v", reloaded.AmbassadorRate)
	}

	if err := svc.UpdateAmbassadorRate(1, ambassador.ID, 150); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for out-of-range rate, got %v", err)
	}

	client, err := svc.RegisterUser(RegisterUserInput{
		Email:       "amb-client@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelClient,
	})
	if err != nil {
		t.Fatalf("register client failed: %v", err)
	}
	if err := svc.UpdateAmbassadorRate(1, client.ID, 10); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for non-ambassador, got %v", err)
	}
}

func TestGetNetworkTree(t *testing.T) {
	svc, _ := setupNetworkServiceTest(t)

	root, err := svc.RegisterUser(RegisterUserInput{
		Email:       "tree-root@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
	})
	if err != nil {
		t.Fatalf("register root failed: %v", err)
	}
	childA, err := svc.RegisterUser(RegisterUserInput{
		Email:       "tree-a@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
		SponsorCode: root.ReferralCode,
	})
	if err != nil {
		t.Fatalf("register child a failed: %v", err)
	}
	if _, err := svc.RegisterUser(RegisterUserInput{
		Email:       "tree-b@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
		SponsorCode: root.ReferralCode,
	}); err != nil {
		t.Fatalf("register child b failed: %v", err)
	}
	grandchild, err := svc.RegisterUser(RegisterUserInput{
		Email:       "tree-aa@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
		SponsorCode: childA.ReferralCode,
	})
	if err != nil {
		t.Fatalf("register grandchild failed: %v", err)
	}

	tree, err := svc.GetNetworkTree(root.ID)
	if err != nil {
		t.Fatalf("get network tree failed: %v", err)
	}
	if tree.User.ID != root.ID {
		t.Fatalf("expected root %d, got %d", root.ID, tree.User.ID)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 direct children, got %d", len(tree.Children))
	}
	if len(tree.Children[0].Children) != 1 || tree.Children[0].Children[0].User.ID != grandchild.ID {
		t.Fatalf("expected grandchild under first child, got %+v", tree.Children[0].Children)
	}

	if _, err := svc.GetNetworkTree(99999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetUplineWalksThreeLevels(t *testing.T) {
	svc, _ := setupNetworkServiceTest(t)

	top, err := svc.RegisterUser(RegisterUserInput{
		Email:       "up-top@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelLeader,
	})
	if err != nil {
		t.Fatalf("register top failed: %v", err)
	}
	chain := []*models.User{top}
	for i, email := range []string{"up-l1@example.com", "up-l2@example.com", "up-l3@example.com", "up-l4@example.com"} {
		user, err := svc.RegisterUser(RegisterUserInput{
			Email:       email,
			Password:    "secret123",
			AccessLevel: constants.AccessLevelReseller,
			SponsorCode: chain[i].ReferralCode,
		})
		if err != nil {
			t.Fatalf("register %s failed: %v", email, err)
		}
		chain = append(chain, user)
	}

	// 最底层向上只返回三层
	bottom := chain[len(chain)-1]
	upline, err := svc.GetUpline(bottom.ID)
	if err != nil {
		t.Fatalf("get upline failed: %v", err)
	}
	if len(upline) != 3 {
		t.Fatalf("expected 3 ancestors, got %d", len(upline))
	}
	for i := 0; i < 3; i++ {
		want := chain[len(chain)-2-i]
		if upline[i].ID != want.ID {
			t.Fatalf("upline[%d]: expected user %d, got %d", i, want.ID, upline[i].ID)
		}
	}

	// 根节点没有上级
	upline, err = svc.GetUpline(top.ID)
	if err != nil {
		t.Fatalf("get upline for root failed: %v", err)
	}
	if len(upline) != 0 {
		t.Fatalf("expected empty upline for root, got %d", len(upline))
	}

	if _, err := svc.GetUpline(99999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetNetworkStats(t *testing.T) {
	svc, db := setupNetworkServiceTest(t)

	root, err := svc.RegisterUser(RegisterUserInput{
		Email:       "stats-root@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelLeader,
	})
	if err != nil {
		t.Fatalf("register root failed: %v", err)
	}
	var level1 []*models.User
	for _, email := range []string{"stats-a@example.com", "stats-b@example.com"} {
		user, err := svc.RegisterUser(RegisterUserInput{
			Email:       email,
			Password:    "secret123",
			AccessLevel: constants.AccessLevelReseller,
			SponsorCode: root.ReferralCode,
		})
		if err != nil {
			t.Fatalf("register %s failed: %v", email, err)
		}
		level1 = append(level1, user)
	}
	level2, err := svc.RegisterUser(RegisterUserInput{
		Email:       "stats-aa@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
		SponsorCode: level1[0].ReferralCode,
	})
	if err != nil {
		t.Fatalf("register level2 failed: %v", err)
	}
	if _, err := svc.RegisterUser(RegisterUserInput{
		Email:       "stats-aaa@example.com",
		Password:    "secret123",
		AccessLevel: constants.AccessLevelReseller,
		SponsorCode: level2.ReferralCode,
	}); err != nil {
		t.Fatalf("register level3 failed: %v", err)
	}

	// 本月业绩大于零的下级计为活跃
	if err := db.Model(&models.User{}).Where("id = ?", level2.ID).
		Update("personal_volume", 120).Error; err != nil {
		t.Fatalf("seed personal volume failed: %v", err)
	}

	stats, err := svc.GetNetworkStats(root.ID)
	if err != nil {
		t.Fatalf("get network stats failed: %v", err)
	}
	if stats.Level1Count != 2 || stats.Level2Count != 1 || stats.Level3Count != 1 {
		t.Fatalf("unexpected level counts: %+v", stats)
	}
	if stats.TotalCount != 4 {
		t.Fatalf("expected total 4, got %d", stats.TotalCount)
	}
	if stats.ActiveThisMonth != 1 {
		t.Fatalf("expected 1 active downline, got %d", stats.ActiveThisMonth)
	}

	if _, err := svc.GetNetworkStats(99999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
