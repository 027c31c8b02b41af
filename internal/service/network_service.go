package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	referralCodeLength      = 8
	referralCodeMaxAttempts = 5
	networkTreeMaxDepth     = 3
)

// NetworkService 用户注册与推荐网络维护服务
type NetworkService struct {
	userRepo      repository.UserRepository
	actionLogRepo repository.ActionLogRepository
}

// NewNetworkService 创建网络服务
func NewNetworkService(userRepo repository.UserRepository, actionLogRepo repository.ActionLogRepository) *NetworkService {
	return &NetworkService{userRepo: userRepo, actionLogRepo: actionLogRepo}
}

// RegisterUserInput 注册输入
type RegisterUserInput struct {
	Email       string
	Password    string
	DisplayName string
	AccessLevel int
	SponsorCode string
}

// NetworkNode 推荐网络树节点
type NetworkNode struct {
	User     models.User   `json:"user"`
	Children []NetworkNode `json:"children,omitempty"`
}

// RegisterUser 注册用户；经销商可携带推荐码挂入网络
func (s *NetworkService) RegisterUser(input RegisterUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidParams
	}
	if models.RoleTagForLevel(input.AccessLevel) == "" {
		return nil, ErrInvalidParams
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	var sponsorID *uint
	hierarchyLevel := 0
	if code := strings.TrimSpace(input.SponsorCode); code != "" && input.AccessLevel == constants.AccessLevelReseller {
		sponsor, err := s.resolveSponsor(code)
		if err != nil {
			return nil, err
		}
		id := sponsor.ID
		sponsorID = &id
		hierarchyLevel = sponsor.HierarchyLevel + 1
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	referralCode, err := s.uniqueReferralCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		Email:          email,
		PasswordHash:   string(hash),
		DisplayName:    strings.TrimSpace(input.DisplayName),
		ReferralCode:   referralCode,
		AccessLevel:    input.AccessLevel,
		Status:         constants.UserStatusActive,
		SponsorID:      sponsorID,
		HierarchyLevel: hierarchyLevel,
	}
	if input.AccessLevel == constants.AccessLevelReseller {
		user.LastQualification = &now
	}
	if input.AccessLevel == constants.AccessLevelAmbassador {
		defaultRate := MLMDefaultSetting().AmbassadorDefaultRate
		user.AmbassadorRate = &defaultRate
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ConvertUser 调整用户访问级别；转为经销商时可携带推荐码挂入网络
func (s *NetworkService) ConvertUser(actorID, userID uint, newAccessLevel int, sponsorCode string) (*models.User, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	if models.RoleTagForLevel(newAccessLevel) == "" {
		return nil, ErrInvalidParams
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	// 只有经销商可以晋升为队长
	if newAccessLevel == constants.AccessLevelLeader && user.AccessLevel != constants.AccessLevelReseller {
		return nil, ErrInvalidParams
	}

	now := time.Now()
	updates := map[string]interface{}{
		"access_level": newAccessLevel,
		"updated_at":   now,
	}

	if code := strings.TrimSpace(sponsorCode); code != "" && newAccessLevel == constants.AccessLevelReseller {
		sponsor, err := s.resolveSponsor(code)
		if err != nil {
			return nil, err
		}
		if sponsor.ID == user.ID {
			return nil, ErrInvalidSponsor
		}
		isDescendant, err := s.isDescendant(sponsor, user.ID)
		if err != nil {
			return nil, err
		}
		if isDescendant {
			return nil, ErrSponsorCycle
		}
		updates["sponsor_id"] = sponsor.ID
		updates["hierarchy_level"] = sponsor.HierarchyLevel + 1
		updates["last_qualification"] = now
	}

	if err := s.userRepo.UpdateFields(user.ID, updates); err != nil {
		return nil, err
	}

	if s.actionLogRepo != nil {
		targetID := user.ID
		actorRef := &actorID
		if actorID == 0 {
			actorRef = nil
		}
		if err := s.actionLogRepo.Create(&models.ActionLog{
			ActorID:    actorRef,
			Action:     constants.ActionUserConverted,
			TargetType: "user",
			TargetID:   &targetID,
			DetailJSON: models.JSON{"new_access_level": newAccessLevel},
		}); err != nil {
			logger.Warnw("user_convert_log_failed", "error", err)
		}
	}

	return s.userRepo.GetByID(user.ID)
}

// UpdateAmbassadorRate 调整大使专属佣金比例
func (s *NetworkService) UpdateAmbassadorRate(actorID, userID uint, rate float64) error {
	if rate < 0 || rate > 100 {
		return ErrInvalidParams
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.AccessLevel != constants.AccessLevelAmbassador {
		return ErrInvalidParams
	}

	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"ambassador_rate": rate,
		"updated_at":      time.Now(),
	}); err != nil {
		return err
	}

	if s.actionLogRepo != nil {
		targetID := user.ID
		actorRef := &actorID
		if actorID == 0 {
			actorRef = nil
		}
		if err := s.actionLogRepo.Create(&models.ActionLog{
			ActorID:    actorRef,
			Action:     constants.ActionAmbassadorRateUpdated,
			TargetType: "user",
			TargetID:   &targetID,
			DetailJSON: models.JSON{"rate": rate},
		}); err != nil {
			logger.Warnw("ambassador_rate_log_failed", "error", err)
		}
	}
	return nil
}

// GetNetworkTree 返回以某用户为根的推荐网络（最多三层）
func (s *NetworkService) GetNetworkTree(userID uint) (*NetworkNode, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	node, err := s.buildNetworkNode(*user, networkTreeMaxDepth)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *NetworkService) buildNetworkNode(user models.User, depth int) (NetworkNode, error) {
	node := NetworkNode{User: user}
	if depth <= 0 {
		return node, nil
	}
	children, err := s.userRepo.ListChildren(user.ID)
	if err != nil {
		return node, err
	}
	for i := range children {
		child, err := s.buildNetworkNode(children[i], depth-1)
		if err != nil {
			return node, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// GetUpline 沿推荐链向上返回最多三层上级
func (s *NetworkService) GetUpline(userID uint) ([]models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	upline := make([]models.User, 0, constants.CommissionChainMaxDepth)
	current := user
	for len(upline) < constants.CommissionChainMaxDepth {
		if current.SponsorID == nil || *current.SponsorID == 0 {
			break
		}
		sponsor, err := s.userRepo.GetByID(*current.SponsorID)
		if err != nil {
			return nil, err
		}
		if sponsor == nil {
			break
		}
		upline = append(upline, *sponsor)
		current = sponsor
	}
	return upline, nil
}

// NetworkStats 推荐网络统计
type NetworkStats struct {
	Level1Count     int64 `json:"level1_count"`     // 直推人数
	Level2Count     int64 `json:"level2_count"`     // 二级人数
	Level3Count     int64 `json:"level3_count"`     // 三级人数
	TotalCount      int64 `json:"total_count"`      // 三层合计
	ActiveThisMonth int64 `json:"active_this_month"` // 本月有个人业绩的下级数
}

// GetNetworkStats 统计三层下级规模与当月活跃人数
func (s *NetworkService) GetNetworkStats(userID uint) (*NetworkStats, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	stats := &NetworkStats{}
	frontier := []uint{user.ID}
	for level := 1; level <= constants.CommissionChainMaxDepth; level++ {
		next := make([]uint, 0)
		for _, parentID := range frontier {
			children, err := s.userRepo.ListChildren(parentID)
			if err != nil {
				return nil, err
			}
			for i := range children {
				// 业绩每月清零，个人业绩大于零即为当月活跃
				if children[i].PersonalVolume.Decimal.IsPositive() {
					stats.ActiveThisMonth++
				}
				next = append(next, children[i].ID)
			}
		}
		count := int64(len(next))
		switch level {
		case 1:
			stats.Level1Count = count
		case 2:
			stats.Level2Count = count
		case 3:
			stats.Level3Count = count
		}
		stats.TotalCount += count
		frontier = next
	}
	return stats, nil
}

// resolveSponsor 按推荐码解析推荐人，推荐人必须是队长或经销商
func (s *NetworkService) resolveSponsor(code string) (*models.User, error) {
	sponsor, err := s.userRepo.GetByReferralCode(code)
	if err != nil {
		return nil, err
	}
	if sponsor == nil {
		return nil, ErrInvalidSponsor
	}
	if sponsor.AccessLevel != constants.AccessLevelLeader && sponsor.AccessLevel != constants.AccessLevelReseller {
		return nil, ErrInvalidSponsor
	}
	return sponsor, nil
}

// isDescendant 检查 candidate 是否位于 ancestorID 的下游（沿 sponsor 链向上查）
func (s *NetworkService) isDescendant(candidate *models.User, ancestorID uint) (bool, error) {
	visited := map[uint]struct{}{}
	current := candidate
	for current != nil && current.SponsorID != nil && *current.SponsorID != 0 {
		sponsorID := *current.SponsorID
		if sponsorID == ancestorID {
			return true, nil
		}
		if _, ok := visited[sponsorID]; ok {
			break
		}
		visited[sponsorID] = struct{}{}
		next, err := s.userRepo.GetByID(sponsorID)
		if err != nil {
			return false, err
		}
		current = next
	}
	return false, nil
}

func (s *NetworkService) uniqueReferralCode() (string, error) {
	for attempt := 0; attempt < referralCodeMaxAttempts; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		existing, err := s.userRepo.GetByReferralCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", gorm.ErrDuplicatedKey
}

func generateReferralCode() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	var builder strings.Builder
	builder.Grow(referralCodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < referralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}
	return builder.String(), nil
}
