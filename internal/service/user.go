package service

import (
	"errors"
	"time"

	"clm-server/internal/model"
	"clm-server/internal/pkg/crypto"
	"clm-server/internal/pkg/utils"

	"gorm.io/gorm"
)

// ErrInvalidCredentials 邮箱或密码错误
var ErrInvalidCredentials = errors.New("邮箱或密码错误")

// RegisterInput 自助注册入参
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UserService 用户服务
type UserService struct {
	db          *gorm.DB
	jwtSecret   string
	expireHours int
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, jwtSecret string, expireHours int) *UserService {
	return &UserService{db: db, jwtSecret: jwtSecret, expireHours: expireHours}
}

// Register 自助注册
// 邮箱域名必须命中某个组织的已注册域名，注册成功直接归入该组织
func (s *UserService) Register(in RegisterInput) (*model.User, error) {
	email := utils.NormalizeEmail(in.Email)

	var domain model.Domain
	err := s.db.Where("domain = ?", utils.EmailDomain(email)).First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDomainUnregistered
		}
		return nil, err
	}

	user := model.User{
		Email:          email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		OrganizationID: &domain.OrganizationID,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return &user, nil
}

// Login 登录，返回用户与签发的 Token
func (s *UserService) Login(email, password string) (*model.User, string, error) {
	var user model.User
	err := s.db.Preload("Organization").Preload("Organization.Domains").
		Where("email = ?", utils.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.CheckPassword(password) {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, "", err
	}
	user.LastLoginAt = &now

	orgID := ""
	if user.OrganizationID != nil {
		orgID = *user.OrganizationID
	}

	token, err := crypto.GenerateToken(user.ID, orgID, user.Email, user.IsMainAdmin, s.jwtSecret, s.expireHours)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// Profile 查询当前用户资料
func (s *UserService) Profile(userID string) (*model.User, error) {
	var user model.User
	err := s.db.Preload("Organization").Preload("Roles.Role").
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EnsureMainAdmin 初始化主管理员账号，已存在则跳过
func (s *UserService) EnsureMainAdmin(email, password string) (*model.User, error) {
	email = utils.NormalizeEmail(email)

	var existing model.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	admin := model.User{
		Email:       email,
		FirstName:   "Main",
		LastName:    "Admin",
		IsMainAdmin: true,
	}
	if err := admin.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}
