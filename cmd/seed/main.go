package main

import (
	"fmt"

	"github.com/vanguard-next/internal/config"
	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/service"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		stdLog.Fatalf("Failed to init default admin: %v", err)
	}

	// 分销参数（已存在则不覆盖后台的修改）
	var mlmSetting models.Setting
	if err := models.DB.Where("key = ?", constants.SettingKeyMLMConfig).First(&mlmSetting).Error; err != nil {
		mlmSetting = models.Setting{
			Key:       constants.SettingKeyMLMConfig,
			ValueJSON: models.JSON(service.MLMSettingToMap(service.MLMDefaultSetting())),
		}
		if err := models.DB.Create(&mlmSetting).Error; err != nil {
			stdLog.Printf("Failed to create mlm config: %v", err)
		} else {
			stdLog.Println("Created mlm config with defaults")
		}
	} else {
		stdLog.Println("MLM config already exists, keeping current values")
	}

	// 演示分销网络
	demoRate := 8.0
	demoUsers := []struct {
		Email          string
		DisplayName    string
		ReferralCode   string
		AccessLevel    int
		SponsorCode    string
		AmbassadorRate *float64
	}{
		{Email: "leader@demo.vanguard.com", DisplayName: "Líder Demo", ReferralCode: "LEADER01", AccessLevel: constants.AccessLevelLeader},
		{Email: "reseller-a@demo.vanguard.com", DisplayName: "Revendedor A", ReferralCode: "RESELL01", AccessLevel: constants.AccessLevelReseller, SponsorCode: "LEADER01"},
		{Email: "reseller-b@demo.vanguard.com", DisplayName: "Revendedor B", ReferralCode: "RESELL02", AccessLevel: constants.AccessLevelReseller, SponsorCode: "RESELL01"},
		{Email: "client@demo.vanguard.com", DisplayName: "Cliente Demo", ReferralCode: "CLIENT01", AccessLevel: constants.AccessLevelClient, SponsorCode: "RESELL02"},
		{Email: "ambassador@demo.vanguard.com", DisplayName: "Embaixador Demo", ReferralCode: "AMBASS01", AccessLevel: constants.AccessLevelAmbassador, SponsorCode: "LEADER01", AmbassadorRate: &demoRate},
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}

	created := 0
	for _, du := range demoUsers {
		var existing models.User
		if err := models.DB.Where("email = ?", du.Email).First(&existing).Error; err == nil {
			stdLog.Printf("User already exists: %s", du.Email)
			continue
		}

		user := models.User{
			Email:          du.Email,
			PasswordHash:   string(passwordHash),
			DisplayName:    du.DisplayName,
			ReferralCode:   du.ReferralCode,
			AccessLevel:    du.AccessLevel,
			Status:         constants.UserStatusActive,
			AmbassadorRate: du.AmbassadorRate,
		}

		if du.SponsorCode != "" {
			var sponsor models.User
			if err := models.DB.Where("referral_code = ?", du.SponsorCode).First(&sponsor).Error; err != nil {
				stdLog.Printf("Skip user %s: sponsor %s not found", du.Email, du.SponsorCode)
				continue
			}
			user.SponsorID = &sponsor.ID
			user.HierarchyLevel = sponsor.HierarchyLevel + 1
		}

		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("Failed to create user %s: %v", du.Email, err)
		} else {
			stdLog.Printf("Created user: %s (%s)", du.Email, du.ReferralCode)
			created++
		}
	}

	fmt.Println("\n✅ Seed data ready!")
	fmt.Println("Summary:")
	fmt.Println("- Default technical admin")
	fmt.Println("- MLM commission configuration (mlm_config)")
	fmt.Printf("- %d demo network users (password: demo1234)\n", created)
}
