package handler

import (
	"clm-server/internal/middleware"
	"clm-server/internal/pkg/response"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	orgs  *service.OrganizationService
	users *service.UserService
}

func NewOrganizationHandler(orgs *service.OrganizationService, users *service.UserService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, users: users}
}

// CreateOrganizationRequest 创建组织请求
type CreateOrganizationRequest struct {
	Name    string   `json:"name" binding:"required"`
	Domains []string `json:"domains" binding:"required,min=1"`
}

// Create 创建组织
// 创建成功后创建者自动成为该组织的管理员（主管理员除外）
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	actor, err := h.users.Profile(middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	org, err := h.orgs.Create(req.Name, req.Domains, actor)
	if err != nil {
		fail(c, err)
		return
	}

	created, err := h.orgs.Get(org.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, created)
}

// List 查询全部组织（仅主管理员）
func (h *OrganizationHandler) List(c *gin.Context) {
	orgs, err := h.orgs.List()
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, orgs)
}

// Get 查询组织详情
func (h *OrganizationHandler) Get(c *gin.Context) {
	orgID := c.Param("id")
	if !h.canAccess(c, orgID) {
		return
	}

	org, err := h.orgs.Get(orgID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, org)
}

// Delete 删除组织（仅主管理员）
func (h *OrganizationHandler) Delete(c *gin.Context) {
	if !middleware.IsMainAdmin(c) {
		response.Forbidden(c, "需要主管理员权限")
		return
	}

	if err := h.orgs.Delete(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "组织已删除", nil)
}

// canAccess 主管理员或组织成员可访问；未授权时已写入响应
func (h *OrganizationHandler) canAccess(c *gin.Context, organizationID string) bool {
	if middleware.IsMainAdmin(c) {
		return true
	}
	if middleware.GetOrganizationID(c) == organizationID {
		return true
	}
	response.Forbidden(c, "没有访问该组织的权限")
	return false
}
