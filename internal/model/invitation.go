package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation 邀请表 - 邀请某个邮箱以指定角色加入组织
// (email, organization) 唯一约束由数据库兜底：并发创建同一邀请时
// 由唯一索引串行化，应用层捕获冲突后改为刷新已有记录
// 邀请 ID 同时作为接受邀请的令牌使用
type Invitation struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email          string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_invitation_email_org" json:"email"`
	OrganizationID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_invitation_email_org" json:"organization_id"`
	RoleID         string    `gorm:"type:varchar(36);not null" json:"role_id"`
	InvitedByID    string    `gorm:"type:varchar(36);not null" json:"invited_by"`
	Accepted       bool      `gorm:"default:false" json:"accepted"`
	EmailSent      bool      `gorm:"default:false" json:"email_sent"`
	ExpiresAt      time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Role         *Role         `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	InvitedBy    *User         `gorm:"foreignKey:InvitedByID" json:"inviter,omitempty"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// BeforeCreate 创建前钩子
func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// IsExpired 是否已过期（expires_at 恰好等于当前时刻视为未过期）
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// IsPending 是否处于待处理状态
func (i *Invitation) IsPending(now time.Time) bool {
	return !i.Accepted && !i.IsExpired(now)
}
