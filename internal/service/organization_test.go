package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clm-server/internal/model"
)

func TestCreateOrganizationBindsCreatorAsAdmin(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "founder@acme.com", nil)

	svc := NewOrganizationService(db)

	org, err := svc.Create("Acme", []string{"acme.com", "acme.cn"}, creator)
	require.NoError(t, err)

	// 自动创建 admin 角色并绑定创建者
	var adminRole model.Role
	require.NoError(t, db.Where("organization_id = ? AND name = ?", org.ID, "admin").First(&adminRole).Error)
	assert.ElementsMatch(t, model.AdminRolePermissions, adminRole.Permissions)

	authz := NewAuthorizer(db)
	isAdmin, err := authz.IsOrganizationAdmin(creator.ID, org.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", creator.ID).Error)
	require.NotNil(t, reloaded.OrganizationID)
	assert.Equal(t, org.ID, *reloaded.OrganizationID)

	var domainCount int64
	require.NoError(t, db.Model(&model.Domain{}).Where("organization_id = ?", org.ID).Count(&domainCount).Error)
	assert.EqualValues(t, 2, domainCount)
}

func TestCreateOrganizationMainAdminStaysUnbound(t *testing.T) {
	db := newTestDB(t)
	mainAdmin := seedUser(t, db, "root@example.com", nil)
	require.NoError(t, db.Model(mainAdmin).Update("is_main_admin", true).Error)
	mainAdmin.IsMainAdmin = true

	svc := NewOrganizationService(db)

	org, err := svc.Create("Acme", []string{"acme.com"}, mainAdmin)
	require.NoError(t, err)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", mainAdmin.ID).Error)
	assert.Nil(t, reloaded.OrganizationID)

	var memberships int64
	require.NoError(t, db.Model(&model.UserRole{}).
		Where("organization_id = ?", org.ID).Count(&memberships).Error)
	assert.EqualValues(t, 0, memberships)
}

func TestCreateOrganizationRejectsDuplicateName(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrganizationService(db)

	_, err := svc.Create("Acme", []string{"acme.com"}, nil)
	require.NoError(t, err)

	_, err = svc.Create("Acme", []string{"acme.org"}, nil)
	assert.ErrorIs(t, err, ErrOrganizationExists)
}

func TestCreateOrganizationRejectsTakenDomain(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrganizationService(db)

	_, err := svc.Create("Acme", []string{"acme.com"}, nil)
	require.NoError(t, err)

	// 域名冲突导致整个事务回滚，组织不会半建
	_, err = svc.Create("Globex", []string{"acme.com"}, nil)
	assert.ErrorIs(t, err, ErrDomainExists)

	var count int64
	require.NoError(t, db.Model(&model.Organization{}).Where("name = ?", "Globex").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreateOrganizationRejectsBoundCreator(t *testing.T) {
	db := newTestDB(t)
	org, _ := seedOrganization(t, db, "Acme", "acme.com")
	member := seedUser(t, db, "bob@acme.com", &org.ID)

	svc := NewOrganizationService(db)

	_, err := svc.Create("Bob Co", []string{"bobco.com"}, member)
	assert.ErrorIs(t, err, ErrAlreadyInOrganization)
}

func TestDeleteOrganizationCascades(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	member := seedUser(t, db, "bob@acme.com", &org.ID)
	require.NoError(t, db.Create(&model.UserRole{
		UserID: member.ID, OrganizationID: org.ID, RoleID: role.ID,
	}).Error)
	require.NoError(t, db.Create(&model.Invitation{
		Email: "carol@acme.com", OrganizationID: org.ID, RoleID: role.ID, InvitedByID: member.ID,
	}).Error)

	contract := &model.Contract{
		Title: "MSA", OrganizationID: org.ID, FilePath: "contracts/msa.pdf",
	}
	require.NoError(t, db.Create(contract).Error)
	require.NoError(t, db.Create(&model.Counterparty{
		PartyName: "Globex", ContractID: contract.ID, Email: "legal@globex.com",
	}).Error)

	svc := NewOrganizationService(db)
	require.NoError(t, svc.Delete(org.ID))

	for _, target := range []interface{}{
		&model.Domain{}, &model.Role{}, &model.UserRole{},
		&model.Invitation{}, &model.Contract{}, &model.Counterparty{},
	} {
		var count int64
		require.NoError(t, db.Model(target).Count(&count).Error)
		assert.EqualValues(t, 0, count)
	}

	// 用户账号保留，只解除组织归属
	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", member.ID).Error)
	assert.Nil(t, reloaded.OrganizationID)
}

func TestLookupDomain(t *testing.T) {
	db := newTestDB(t)
	org, _ := seedOrganization(t, db, "Acme", "acme.com")

	svc := NewOrganizationService(db)

	d, err := svc.LookupDomain("acme.com")
	require.NoError(t, err)
	assert.Equal(t, org.ID, d.OrganizationID)

	_, err = svc.LookupDomain("unknown.com")
	assert.ErrorIs(t, err, ErrDomainUnregistered)
}
