package handler

import (
	"clm-server/internal/middleware"
	"clm-server/internal/pkg/response"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
)

type InvitationHandler struct {
	invitations *service.InvitationService
	authz       *service.Authorizer
}

func NewInvitationHandler(invitations *service.InvitationService, authz *service.Authorizer) *InvitationHandler {
	return &InvitationHandler{invitations: invitations, authz: authz}
}

// InviteRequest 邀请请求
type InviteRequest struct {
	Email  string `json:"email" binding:"required,email"`
	RoleID string `json:"role_id" binding:"required"`
}

// AcceptRequest 接受邀请请求
type AcceptRequest struct {
	Token     string `json:"token" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required,min=6"`
}

// Invite 邀请邮箱加入组织
// 新建返回 201；已有待处理邀请被刷新返回 200
func (h *InvitationHandler) Invite(c *gin.Context) {
	orgID := c.Param("id")
	if !h.requireAdmin(c, orgID) {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.invitations.Invite(req.Email, orgID, req.RoleID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	payload := gin.H{
		"id":         result.Invitation.ID,
		"email":      result.Invitation.Email,
		"role_id":    result.Invitation.RoleID,
		"expires_at": result.Invitation.ExpiresAt,
		"email_sent": result.Invitation.EmailSent,
	}

	if result.Outcome == service.InviteUpdated {
		response.SuccessWithMessage(c, "已有待处理邀请，角色与有效期已刷新", payload)
		return
	}
	response.Created(c, payload)
}

// Accept 公开接口：接受邀请并完成注册
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.invitations.Accept(req.Token, service.AcceptInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":              user.ID,
		"email":           user.Email,
		"first_name":      user.FirstName,
		"last_name":       user.LastName,
		"organization_id": user.OrganizationID,
	})
}

func (h *InvitationHandler) requireAdmin(c *gin.Context, organizationID string) bool {
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
