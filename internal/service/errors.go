package service

import "errors"

// 服务层错误分类，handler 层映射到对应的 HTTP 状态码
var (
	// NotFound
	ErrOrganizationNotFound = errors.New("组织不存在")
	ErrUserNotFound         = errors.New("用户不存在")
	ErrRoleNotFound         = errors.New("角色不存在")
	ErrInvitationNotFound   = errors.New("邀请不存在或已失效")
	ErrContractNotFound     = errors.New("合同不存在")

	// Conflict
	ErrOrganizationExists = errors.New("组织名称已存在")
	ErrDomainExists       = errors.New("域名已被其他组织注册")
	ErrRoleExists         = errors.New("该组织下已存在同名角色")
	ErrEmailTaken         = errors.New("该邮箱已被注册")
	ErrAlreadyMember      = errors.New("该用户已是组织成员")
	ErrAlreadyAccepted    = errors.New("该用户已接受过此组织的邀请")
	ErrMembershipExists   = errors.New("该用户已拥有此角色")
	ErrNotMember          = errors.New("该用户不是组织成员，无法分配角色")

	// Conflict - 角色归属校验
	ErrRoleMismatch = errors.New("角色不属于该组织")

	// NotFound - 合同相对方
	ErrCounterpartyNotFound = errors.New("相对方不存在")

	// Forbidden
	ErrAlreadyInOrganization = errors.New("用户已属于某个组织")
	ErrContractAccessDenied  = errors.New("无权访问其他组织的合同")

	// ValidationError
	ErrDomainUnregistered = errors.New("邮箱域名未注册，请联系组织管理员")
)
