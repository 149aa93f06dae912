package service

import (
	"errors"

	"clm-server/internal/model"

	"gorm.io/gorm"
)

// Authorizer 授权检查
// 组织管理员身份不读用户表上的标记位，统一由成员关系 + 角色权限计算，
// 避免两份事实来源相互漂移
type Authorizer struct {
	db *gorm.DB
}

// NewAuthorizer 创建授权检查器
func NewAuthorizer(db *gorm.DB) *Authorizer {
	return &Authorizer{db: db}
}

// IsMainAdmin 是否系统级超级管理员
func (a *Authorizer) IsMainAdmin(user *model.User) bool {
	return user != nil && user.IsMainAdmin
}

// IsOrganizationAdmin 是否指定组织的管理员
// 用户在该组织内持有任一携带管理员标记的角色即为管理员
func (a *Authorizer) IsOrganizationAdmin(userID, organizationID string) (bool, error) {
	var userRoles []model.UserRole
	err := a.db.Preload("Role").
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		Find(&userRoles).Error
	if err != nil {
		return false, err
	}

	for _, ur := range userRoles {
		if ur.Role != nil && ur.Role.HasPermission(model.PermOrganizationAdmin) {
			return true, nil
		}
	}
	return false, nil
}

// IsMember 用户是否属于指定组织
func (a *Authorizer) IsMember(userID, organizationID string) (bool, error) {
	var user model.User
	if err := a.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.OrganizationID != nil && *user.OrganizationID == organizationID, nil
}

// CanAccessOrganization 成员或主管理员均可访问组织资源
func (a *Authorizer) CanAccessOrganization(user *model.User, organizationID string) (bool, error) {
	if a.IsMainAdmin(user) {
		return true, nil
	}
	return a.IsMember(user.ID, organizationID)
}
