package handler

import (
	"errors"

	"clm-server/internal/pkg/response"
	"clm-server/internal/pkg/utils"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
)

type DomainHandler struct {
	orgs *service.OrganizationService
}

func NewDomainHandler(orgs *service.OrganizationService) *DomainHandler {
	return &DomainHandler{orgs: orgs}
}

// Check 公开接口：检查邮箱域名是否已注册
// 注册页在提交前调用，提示用户该域名能否自助注册；
// 为避免泄露组织信息，只返回是否命中，不返回组织详情
func (h *DomainHandler) Check(c *gin.Context) {
	domain := c.Query("domain")
	if email := c.Query("email"); email != "" {
		domain = utils.EmailDomain(email)
	}
	if domain == "" {
		response.BadRequest(c, "缺少 domain 或 email 参数")
		return
	}

	_, err := h.orgs.LookupDomain(domain)
	if err != nil {
		if errors.Is(err, service.ErrDomainUnregistered) {
			response.Success(c, gin.H{"registered": false})
			return
		}
		fail(c, err)
		return
	}

	response.Success(c, gin.H{"registered": true})
}
