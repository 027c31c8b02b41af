package provider

import (
	"github.com/vanguard-next/internal/cache"
	"github.com/vanguard-next/internal/config"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/queue"
	"github.com/vanguard-next/internal/repository"
	"github.com/vanguard-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo        repository.UserRepository
	OrderRepo       repository.OrderRepository
	CommissionRepo  repository.CommissionRepository
	TransactionRepo repository.TransactionRepository
	WithdrawalRepo  repository.WithdrawalRepository
	ActionLogRepo   repository.ActionLogRepository
	SettingRepo     repository.SettingRepository

	// Services
	SettingService       *service.SettingService
	NetworkService       *service.NetworkService
	OrderService         *service.OrderService
	CommissionService    *service.CommissionService
	QualificationService *service.QualificationService
	WalletService        *service.WalletService
	NotificationService  *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
	c.WithdrawalRepo = repository.NewWithdrawalRepository(db)
	c.ActionLogRepo = repository.NewActionLogRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.NetworkService = service.NewNetworkService(c.UserRepo, c.ActionLogRepo)
	c.CommissionService = service.NewCommissionService(
		c.UserRepo,
		c.OrderRepo,
		c.CommissionRepo,
		c.TransactionRepo,
		c.ActionLogRepo,
		c.SettingService,
		c.QueueClient,
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.UserRepo, c.ActionLogRepo, c.CommissionService, c.QueueClient)
	c.QualificationService = service.NewQualificationService(c.UserRepo, c.ActionLogRepo, c.SettingService)
	c.WalletService = service.NewWalletService(c.UserRepo, c.WithdrawalRepo, c.TransactionRepo, c.ActionLogRepo, c.SettingService)
	c.NotificationService = service.NewNotificationService(c.UserRepo)
}
