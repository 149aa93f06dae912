package handler

import (
	"errors"

	"clm-server/internal/pkg/response"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
)

// fail 将服务层错误映射为 HTTP 响应
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrganizationNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRoleNotFound),
		errors.Is(err, service.ErrInvitationNotFound),
		errors.Is(err, service.ErrContractNotFound),
		errors.Is(err, service.ErrCounterpartyNotFound),
		errors.Is(err, service.ErrSenderNotRegistered):
		response.NotFound(c, err.Error())

	case errors.Is(err, service.ErrOrganizationExists),
		errors.Is(err, service.ErrDomainExists),
		errors.Is(err, service.ErrRoleExists),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrAlreadyAccepted),
		errors.Is(err, service.ErrMembershipExists),
		errors.Is(err, service.ErrNotMember),
		errors.Is(err, service.ErrRoleMismatch),
		errors.Is(err, service.ErrFilePathTaken):
		response.Conflict(c, err.Error())

	case errors.Is(err, service.ErrAlreadyInOrganization),
		errors.Is(err, service.ErrContractAccessDenied):
		response.Forbidden(c, err.Error())

	case errors.Is(err, service.ErrDomainUnregistered),
		errors.Is(err, service.ErrInvalidStage),
		errors.Is(err, service.ErrFileNotUploaded):
		response.BadRequest(c, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())

	default:
		response.ServerError(c, "服务器内部错误")
	}
}
