package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clm-server/internal/model"
)

// newTestDB 每个测试独立的内存数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	return db
}

// seedOrganization 建立组织 + 域名 + admin 角色
func seedOrganization(t *testing.T, db *gorm.DB, name, domain string) (*model.Organization, *model.Role) {
	t.Helper()

	org := &model.Organization{Name: name}
	require.NoError(t, db.Create(org).Error)
	require.NoError(t, db.Create(&model.Domain{Domain: domain, OrganizationID: org.ID}).Error)

	adminRole := &model.Role{
		Name:           "admin",
		OrganizationID: org.ID,
		Permissions:    model.AdminRolePermissions,
	}
	require.NoError(t, db.Create(adminRole).Error)
	return org, adminRole
}

// seedUser 建立属于组织的用户
func seedUser(t *testing.T, db *gorm.DB, email string, organizationID *string) *model.User {
	t.Helper()

	user := &model.User{
		Email:          email,
		FirstName:      "Test",
		LastName:       "User",
		OrganizationID: organizationID,
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// fakeEmailSender 记录发送调用，可注入失败
type fakeEmailSender struct {
	sent []string
	err  error
}

func (f *fakeEmailSender) SendInvitation(to, organizationName, acceptURL string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}
