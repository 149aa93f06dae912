package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clm-server/internal/model"
)

func TestAssignRole(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	member := seedUser(t, db, "bob@acme.com", &org.ID)

	svc := NewMembershipService(db)

	membership, err := svc.AssignRole(member.ID, org.ID, role.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, membership.OrganizationID)

	roles, err := svc.ListRoles(member.ID, org.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "admin", roles[0].Name)
}

func TestAssignRoleRejectsDuplicate(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	member := seedUser(t, db, "bob@acme.com", &org.ID)

	svc := NewMembershipService(db)

	_, err := svc.AssignRole(member.ID, org.ID, role.ID)
	require.NoError(t, err)

	_, err = svc.AssignRole(member.ID, org.ID, role.ID)
	assert.ErrorIs(t, err, ErrMembershipExists)
}

func TestAssignRoleRejectsForeignRole(t *testing.T) {
	db := newTestDB(t)
	org, _ := seedOrganization(t, db, "Acme", "acme.com")
	_, otherRole := seedOrganization(t, db, "Globex", "globex.com")
	member := seedUser(t, db, "bob@acme.com", &org.ID)

	svc := NewMembershipService(db)

	_, err := svc.AssignRole(member.ID, org.ID, otherRole.ID)
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

func TestAssignRoleRequiresMembership(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	outsider := seedUser(t, db, "eve@other.com", nil)

	svc := NewMembershipService(db)

	// 分配角色不建立组织归属，游离用户先要注册或接受邀请
	_, err := svc.AssignRole(outsider.ID, org.ID, role.ID)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestListMembers(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	bob := seedUser(t, db, "bob@acme.com", &org.ID)
	seedUser(t, db, "carol@acme.com", &org.ID)
	require.NoError(t, db.Create(&model.UserRole{
		UserID: bob.ID, OrganizationID: org.ID, RoleID: role.ID,
	}).Error)

	svc := NewMembershipService(db)

	members, err := svc.ListMembers(org.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, []string{"admin"}, members[0].Roles)
	assert.Empty(t, members[1].Roles)
}

func TestCreateRole(t *testing.T) {
	db := newTestDB(t)
	org, _ := seedOrganization(t, db, "Acme", "acme.com")

	svc := NewMembershipService(db)

	role, err := svc.CreateRole(org.ID, "legal", []string{model.PermCanInvite})
	require.NoError(t, err)
	assert.True(t, role.HasPermission(model.PermCanInvite))
	assert.False(t, role.HasPermission(model.PermOrganizationAdmin))

	// 组织内角色名唯一
	_, err = svc.CreateRole(org.ID, "legal", nil)
	assert.ErrorIs(t, err, ErrRoleExists)

	// 不同组织可以重名
	other, _ := seedOrganization(t, db, "Globex", "globex.com")
	_, err = svc.CreateRole(other.ID, "legal", nil)
	assert.NoError(t, err)
}

func TestUpdatePermissionsPromotesToAdmin(t *testing.T) {
	db := newTestDB(t)
	org, _ := seedOrganization(t, db, "Acme", "acme.com")
	member := seedUser(t, db, "bob@acme.com", &org.ID)

	svc := NewMembershipService(db)
	authz := NewAuthorizer(db)

	role, err := svc.CreateRole(org.ID, "legal", []string{model.PermCanInvite})
	require.NoError(t, err)
	_, err = svc.AssignRole(member.ID, org.ID, role.ID)
	require.NoError(t, err)

	isAdmin, err := authz.IsOrganizationAdmin(member.ID, org.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	// 管理员身份随角色权限变化，不需要改用户表
	_, err = svc.UpdatePermissions(org.ID, role.ID, model.AdminRolePermissions)
	require.NoError(t, err)

	isAdmin, err = authz.IsOrganizationAdmin(member.ID, org.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestAuthorizerMembership(t *testing.T) {
	db := newTestDB(t)
	org, _ := seedOrganization(t, db, "Acme", "acme.com")
	member := seedUser(t, db, "bob@acme.com", &org.ID)
	outsider := seedUser(t, db, "eve@other.com", nil)

	authz := NewAuthorizer(db)

	ok, err := authz.IsMember(member.ID, org.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = authz.IsMember(outsider.ID, org.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	mainAdmin := &model.User{BaseModel: model.BaseModel{ID: "x"}, IsMainAdmin: true}
	ok, err = authz.CanAccessOrganization(mainAdmin, org.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
