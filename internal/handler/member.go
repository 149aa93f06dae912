package handler

import (
	"clm-server/internal/middleware"
	"clm-server/internal/pkg/response"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	members *service.MembershipService
	authz   *service.Authorizer
}

func NewMemberHandler(members *service.MembershipService, authz *service.Authorizer) *MemberHandler {
	return &MemberHandler{members: members, authz: authz}
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
	RoleID string `json:"role_id" binding:"required"`
}

// CreateRoleRequest 创建角色请求
type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Permissions []string `json:"permissions"`
}

// UpdatePermissionsRequest 更新角色权限请求
type UpdatePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"`
}

// List 查询组织成员及各自角色，本组织成员即可查看
func (h *MemberHandler) List(c *gin.Context) {
	orgID := c.Param("id")
	if !middleware.IsMainAdmin(c) && middleware.GetOrganizationID(c) != orgID {
		response.Forbidden(c, "没有访问该组织的权限")
		return
	}

	members, err := h.members.ListMembers(orgID)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(members))
	for _, m := range members {
		out = append(out, gin.H{
			"id":         m.User.ID,
			"email":      m.User.Email,
			"first_name": m.User.FirstName,
			"last_name":  m.User.LastName,
			"roles":      m.Roles,
		})
	}
	response.Success(c, out)
}

// AssignRole 给成员分配角色
func (h *MemberHandler) AssignRole(c *gin.Context) {
	orgID := c.Param("id")
	if !h.requireAdmin(c, orgID) {
		return
	}

	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	membership, err := h.members.AssignRole(req.UserID, orgID, req.RoleID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, membership)
}

// ListUserRoles 查询成员在组织内持有的角色
func (h *MemberHandler) ListUserRoles(c *gin.Context) {
	orgID := c.Param("id")
	userID := c.Param("user_id")
	if !h.requireAdmin(c, orgID) {
		return
	}

	roles, err := h.members.ListRoles(userID, orgID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, roles)
}

// ListRoles 查询组织内全部可分配角色
func (h *MemberHandler) ListRoles(c *gin.Context) {
	orgID := c.Param("id")
	if !h.requireAdmin(c, orgID) {
		return
	}

	roles, err := h.members.ListAvailableRoles(orgID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, roles)
}

// CreateRole 在组织内创建角色
func (h *MemberHandler) CreateRole(c *gin.Context) {
	orgID := c.Param("id")
	if !h.requireAdmin(c, orgID) {
		return
	}

	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	role, err := h.members.CreateRole(orgID, req.Name, req.Permissions)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, role)
}

// UpdateRolePermissions 更新角色权限集合
func (h *MemberHandler) UpdateRolePermissions(c *gin.Context) {
	orgID := c.Param("id")
	roleID := c.Param("role_id")
	if !h.requireAdmin(c, orgID) {
		return
	}

	var req UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	role, err := h.members.UpdatePermissions(orgID, roleID, req.Permissions)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, role)
}

func (h *MemberHandler) requireAdmin(c *gin.Context, organizationID string) bool {
	if middleware.IsMainAdmin(c) {
		return true
	}

	ok, err := h.authz.IsOrganizationAdmin(middleware.GetUserID(c), organizationID)
	if err != nil {
		fail(c, err)
		return false
	}
	if !ok {
		response.Forbidden(c, "需要组织管理员权限")
		return false
	}
	return true
}
