package service

import (
	"errors"

	"clm-server/internal/model"

	"gorm.io/gorm"
)

// MembershipService 成员与角色分配服务
type MembershipService struct {
	db *gorm.DB
}

// NewMembershipService 创建成员服务
func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// AssignRole 在组织内给用户分配角色
// 分配角色不建立组织归属：用户必须已经是组织成员（注册或接受邀请时绑定），
// 角色必须属于该组织，(user, role) 不允许重复
func (s *MembershipService) AssignRole(userID, organizationID, roleID string) (*model.UserRole, error) {
	var org model.Organization
	if err := s.db.First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	var user model.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var role model.Role
	if err := s.db.First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	if role.OrganizationID != organizationID {
		return nil, ErrRoleMismatch
	}

	if user.OrganizationID == nil || *user.OrganizationID != organizationID {
		return nil, ErrNotMember
	}

	membership := model.UserRole{
		UserID:         userID,
		OrganizationID: organizationID,
		RoleID:         roleID,
	}
	if err := s.db.Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrMembershipExists
		}
		return nil, err
	}
	return &membership, nil
}

// ListRoles 查询用户在组织内持有的全部角色
func (s *MembershipService) ListRoles(userID, organizationID string) ([]model.Role, error) {
	var org model.Organization
	if err := s.db.First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	var user model.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var userRoles []model.UserRole
	err := s.db.Preload("Role").
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		Find(&userRoles).Error
	if err != nil {
		return nil, err
	}

	roles := make([]model.Role, 0, len(userRoles))
	for _, ur := range userRoles {
		if ur.Role != nil {
			roles = append(roles, *ur.Role)
		}
	}
	return roles, nil
}

// OrganizationMember 组织成员及其角色名
type OrganizationMember struct {
	User  model.User
	Roles []string
}

// ListMembers 查询组织全部成员及各自的角色名
func (s *MembershipService) ListMembers(organizationID string) ([]OrganizationMember, error) {
	var org model.Organization
	if err := s.db.First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	var users []model.User
	if err := s.db.Where("organization_id = ?", organizationID).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}

	members := make([]OrganizationMember, 0, len(users))
	for _, u := range users {
		var userRoles []model.UserRole
		err := s.db.Preload("Role").
			Where("user_id = ? AND organization_id = ?", u.ID, organizationID).
			Find(&userRoles).Error
		if err != nil {
			return nil, err
		}
		roleNames := make([]string, 0, len(userRoles))
		for _, ur := range userRoles {
			if ur.Role != nil {
				roleNames = append(roleNames, ur.Role.Name)
			}
		}
		members = append(members, OrganizationMember{User: u, Roles: roleNames})
	}
	return members, nil
}

// ListAvailableRoles 查询组织内全部可分配角色
func (s *MembershipService) ListAvailableRoles(organizationID string) ([]model.Role, error) {
	var org model.Organization
	if err := s.db.First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	var roles []model.Role
	if err := s.db.Where("organization_id = ?", organizationID).Order("name").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// CreateRole 在组织内创建角色
func (s *MembershipService) CreateRole(organizationID, name string, permissions []string) (*model.Role, error) {
	var org model.Organization
	if err := s.db.First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	role := model.Role{
		Name:           name,
		OrganizationID: organizationID,
		Permissions:    permissions,
	}
	if err := s.db.Create(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRoleExists
		}
		return nil, err
	}
	return &role, nil
}

// UpdatePermissions 更新角色权限集合
func (s *MembershipService) UpdatePermissions(organizationID, roleID string, permissions []string) (*model.Role, error) {
	var role model.Role
	err := s.db.Where("id = ? AND organization_id = ?", roleID, organizationID).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	role.Permissions = permissions
	if err := s.db.Save(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
