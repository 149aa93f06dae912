package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型
// 组织管理员身份不落库，由成员关系 + 角色权限计算得出
type User struct {
	BaseModel
	Email          string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"type:varchar(255);not null" json:"-"`
	FirstName      string     `gorm:"type:varchar(240)" json:"first_name"`
	LastName       string     `gorm:"type:varchar(240)" json:"last_name"`
	OrganizationID *string    `gorm:"type:varchar(36);index" json:"organization_id"`
	IsMainAdmin    bool       `gorm:"default:false" json:"is_main_admin"` // 系统级超级管理员，凌驾于所有组织之上
	LastLoginAt    *time.Time `json:"last_login_at"`

	// 关联
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Roles        []UserRole    `gorm:"foreignKey:UserID" json:"roles,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// SetPassword 设置密码（加密）
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// FullName 姓名
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
