package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clm-server/internal/model"
)

func TestInviteCreatesPendingInvitation(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	sender := &fakeEmailSender{}
	svc := NewInvitationService(db, sender, 7, "https://app.example.com")

	result, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteCreated, result.Outcome)
	assert.Equal(t, "alice@acme.com", result.Invitation.Email)
	assert.False(t, result.Invitation.Accepted)
	assert.True(t, result.Invitation.EmailSent)
	assert.Equal(t, []string{"alice@acme.com"}, sender.sent)

	// 有效期 7 天
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), result.Invitation.ExpiresAt, time.Minute)
}

func TestInviteRefreshesPendingInvitation(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	viewer := &model.Role{Name: "viewer", OrganizationID: org.ID, Permissions: []string{}}
	require.NoError(t, db.Create(viewer).Error)

	sender := &fakeEmailSender{}
	svc := NewInvitationService(db, sender, 7, "https://app.example.com")

	first, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)

	second, err := svc.Invite("alice@acme.com", org.ID, viewer.ID, inviter.ID)
	require.NoError(t, err)

	// 待处理邀请被就地刷新：同一条记录换了角色和有效期
	assert.Equal(t, InviteUpdated, second.Outcome)
	assert.Equal(t, first.Invitation.ID, second.Invitation.ID)
	assert.Equal(t, viewer.ID, second.Invitation.RoleID)

	// 刷新不重复发邮件，最早那封邮件里的令牌仍然有效
	assert.Len(t, sender.sent, 1)

	var count int64
	require.NoError(t, db.Model(&model.Invitation{}).
		Where("email = ? AND organization_id = ?", "alice@acme.com", org.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestInviteReplacesExpiredInvitation(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	svc := NewInvitationService(db, nil, 7, "https://app.example.com")

	// 把时钟拨回 30 天前创建第一条邀请
	past := time.Now().Add(-30 * 24 * time.Hour)
	svc.now = func() time.Time { return past }

	first, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)

	svc.now = time.Now
	second, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)

	// 过期邀请被删除重建，旧令牌作废
	assert.Equal(t, InviteCreated, second.Outcome)
	assert.NotEqual(t, first.Invitation.ID, second.Invitation.ID)

	var gone model.Invitation
	err = db.First(&gone, "id = ?", first.Invitation.ID).Error
	assert.Error(t, err)
}

func TestInviteRejectsExistingMember(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)
	member := seedUser(t, db, "bob@acme.com", &org.ID)
	require.NoError(t, db.Create(&model.UserRole{
		UserID: member.ID, OrganizationID: org.ID, RoleID: role.ID,
	}).Error)

	svc := NewInvitationService(db, nil, 7, "https://app.example.com")

	_, err := svc.Invite("bob@acme.com", org.ID, role.ID, inviter.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInviteRejectsAcceptedInvitation(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	svc := NewInvitationService(db, nil, 7, "https://app.example.com")

	result, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)

	_, err = svc.Accept(result.Invitation.ID, AcceptInput{
		FirstName: "Alice", Password: "secret123",
	})
	require.NoError(t, err)

	// 用户接受后成为成员：再次邀请先撞上成员冲突之前的已接受判定
	_, err = svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	assert.ErrorIs(t, err, ErrAlreadyAccepted)
}

func TestInviteRejectsRoleFromOtherOrganization(t *testing.T) {
	db := newTestDB(t)
	org, _ := seedOrganization(t, db, "Acme", "acme.com")
	_, otherRole := seedOrganization(t, db, "Globex", "globex.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	svc := NewInvitationService(db, nil, 7, "https://app.example.com")

	_, err := svc.Invite("alice@acme.com", org.ID, otherRole.ID, inviter.ID)
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

func TestAcceptCreatesUserAndMembership(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	svc := NewInvitationService(db, nil, 7, "https://app.example.com")

	result, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)

	user, err := svc.Accept(result.Invitation.ID, AcceptInput{
		FirstName: "Alice", LastName: "Li", Password: "secret123",
	})
	require.NoError(t, err)
	require.NotNil(t, user.OrganizationID)
	assert.Equal(t, org.ID, *user.OrganizationID)
	assert.True(t, user.CheckPassword("secret123"))

	var membership model.UserRole
	require.NoError(t, db.Where("user_id = ? AND role_id = ?", user.ID, role.ID).First(&membership).Error)
	assert.Equal(t, org.ID, membership.OrganizationID)

	var invitation model.Invitation
	require.NoError(t, db.First(&invitation, "id = ?", result.Invitation.ID).Error)
	assert.True(t, invitation.Accepted)
}

func TestAcceptIsSingleUse(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	svc := NewInvitationService(db, nil, 7, "https://app.example.com")

	result, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)

	_, err = svc.Accept(result.Invitation.ID, AcceptInput{FirstName: "Alice", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Accept(result.Invitation.ID, AcceptInput{FirstName: "Alice", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestAcceptExpiryBoundary(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc := NewInvitationService(db, nil, 7, "https://app.example.com")
	svc.now = func() time.Time { return base }

	result, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)

	// 刚好到期的瞬间仍然可接受（expires_at >= now）
	svc.now = func() time.Time { return base.Add(7 * 24 * time.Hour) }
	_, err = svc.Accept(result.Invitation.ID, AcceptInput{FirstName: "Alice", Password: "secret123"})
	assert.NoError(t, err)

	// 过期一秒后不可接受
	svc.now = func() time.Time { return base }
	result2, err := svc.Invite("bob@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(7*24*time.Hour + time.Second) }
	_, err = svc.Accept(result2.Invitation.ID, AcceptInput{FirstName: "Bob", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestAcceptRejectsTakenEmail(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)
	// 邀请发出后、接受前，同邮箱在别处注册了账号
	seedUser(t, db, "alice@acme.com", nil)

	svc := NewInvitationService(db, nil, 7, "https://app.example.com")

	result, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)

	_, err = svc.Accept(result.Invitation.ID, AcceptInput{FirstName: "Alice", Password: "secret123"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// 事务回滚，邀请仍是待处理
	var invitation model.Invitation
	require.NoError(t, db.First(&invitation, "id = ?", result.Invitation.ID).Error)
	assert.False(t, invitation.Accepted)
}

func TestInviteSucceedsWhenEmailFails(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	sender := &fakeEmailSender{err: errors.New("smtp connection refused")}
	svc := NewInvitationService(db, sender, 7, "https://app.example.com")

	result, err := svc.Invite("alice@acme.com", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteCreated, result.Outcome)
	assert.False(t, result.Invitation.EmailSent)

	// 邀请记录已落库，令牌依然可用
	_, err = svc.Accept(result.Invitation.ID, AcceptInput{FirstName: "Alice", Password: "secret123"})
	assert.NoError(t, err)
}

func TestInviteNormalizesEmail(t *testing.T) {
	db := newTestDB(t)
	org, role := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	svc := NewInvitationService(db, nil, 7, "https://app.example.com")

	first, err := svc.Invite("Alice@Acme.com ", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@acme.com", first.Invitation.Email)

	second, err := svc.Invite("ALICE@ACME.COM", org.ID, role.ID, inviter.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteUpdated, second.Outcome)
}

func TestInvitationLifecycleEndToEnd(t *testing.T) {
	db := newTestDB(t)
	org, adminRole := seedOrganization(t, db, "Acme", "acme.com")
	inviter := seedUser(t, db, "admin@acme.com", &org.ID)

	viewer := &model.Role{Name: "viewer", OrganizationID: org.ID, Permissions: []string{}}
	require.NoError(t, db.Create(viewer).Error)

	// 邮件通道故障贯穿整个场景，流程不受影响
	sender := &fakeEmailSender{err: errors.New("smtp timeout")}
	svc := NewInvitationService(db, sender, 7, "https://app.example.com")

	// 邀请 → 换角色刷新 → 接受 → 再邀请被拒
	created, err := svc.Invite("alice@acme.com", org.ID, viewer.ID, inviter.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteCreated, created.Outcome)
	assert.False(t, created.Invitation.EmailSent)

	refreshed, err := svc.Invite("alice@acme.com", org.ID, adminRole.ID, inviter.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteUpdated, refreshed.Outcome)
	assert.Equal(t, adminRole.ID, refreshed.Invitation.RoleID)

	user, err := svc.Accept(created.Invitation.ID, AcceptInput{
		FirstName: "Alice", Password: "secret123",
	})
	require.NoError(t, err)

	authz := NewAuthorizer(db)
	isAdmin, err := authz.IsOrganizationAdmin(user.ID, org.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	_, err = svc.Invite("alice@acme.com", org.ID, viewer.ID, inviter.ID)
	assert.ErrorIs(t, err, ErrAlreadyAccepted)
}
