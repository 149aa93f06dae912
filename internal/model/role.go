package model

// Role 组织角色 - 角色属于且仅属于一个组织
// 角色名在组织内唯一，不同组织之间可以重名
type Role struct {
	BaseModel
	Name           string   `gorm:"type:varchar(100);not null;uniqueIndex:idx_role_name_org" json:"name"`
	OrganizationID string   `gorm:"type:varchar(36);not null;uniqueIndex:idx_role_name_org" json:"organization_id"`
	Permissions    []string `gorm:"serializer:json" json:"permissions"`

	// 关联
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// 权限标签
const (
	PermCanInvite            = "can_invite"
	PermCanManageUsers       = "can_manage_users"
	PermCanManageRoles       = "can_manage_roles"
	PermCanManagePermissions = "can_manage_permissions"
	PermCanManageOrg         = "can_manage_organization"
	PermOrganizationAdmin    = "is_organization_admin" // 组织管理员标记
)

// AdminRolePermissions 自动创建的 admin 角色默认权限集合
var AdminRolePermissions = []string{
	PermCanInvite,
	PermCanManageUsers,
	PermCanManageRoles,
	PermCanManagePermissions,
	PermCanManageOrg,
	PermOrganizationAdmin,
}

// HasPermission 检查角色是否携带指定权限标签
func (r *Role) HasPermission(permission string) bool {
	for _, p := range r.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// UserRole 用户角色关联 - 用户通过角色绑定到组织
// (user, role) 唯一；角色唯一归属组织，因此也隐含了 (user, organization, role) 唯一
type UserRole struct {
	BaseModel
	UserID         string `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_role" json:"user_id"`
	OrganizationID string `gorm:"type:varchar(36);index;not null" json:"organization_id"`
	RoleID         string `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_role" json:"role_id"`

	// 关联
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role         *Role         `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
