package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"clm-server/internal/model"
	"clm-server/internal/pkg/utils"

	"gorm.io/gorm"
)

// InviteOutcome 邀请创建结果类型
type InviteOutcome string

const (
	InviteCreated InviteOutcome = "created" // 新建邀请
	InviteUpdated InviteOutcome = "updated" // 已有待处理邀请，角色与有效期已就地刷新
)

// InviteResult 邀请结果
// "已存在并刷新" 是软冲突而非失败，用结果变体而不是错误来表达
type InviteResult struct {
	Outcome    InviteOutcome
	Invitation *model.Invitation
}

// AcceptInput 接受邀请时的注册资料
type AcceptInput struct {
	FirstName string
	LastName  string
	Password  string
}

// InvitationService 邀请生命周期服务
// 状态机：Pending（未接受且未过期）→ Accepted（终态）
// 过期邀请不会被后台任务清理，仅在同一 (email, organization) 的下一次
// 邀请到来时惰性删除重建
type InvitationService struct {
	db            *gorm.DB
	email         EmailSender
	expiry        time.Duration
	acceptBaseURL string
	now           func() time.Time
}

// NewInvitationService 创建邀请服务
// email 传 nil 表示不发送通知邮件
func NewInvitationService(db *gorm.DB, email EmailSender, expireDays int, acceptBaseURL string) *InvitationService {
	if expireDays <= 0 {
		expireDays = 7
	}
	return &InvitationService{
		db:            db,
		email:         email,
		expiry:        time.Duration(expireDays) * 24 * time.Hour,
		acceptBaseURL: acceptBaseURL,
		now:           time.Now,
	}
}

// Invite 邀请邮箱加入组织
// 判定顺序固定：已接受冲突 → 成员冲突 → 待处理刷新 → 过期清理 → 新建
// 邮件发送失败不回滚邀请，只记录 email_sent=false
func (s *InvitationService) Invite(email, organizationID, roleID, invitedByID string) (*InviteResult, error) {
	email = utils.NormalizeEmail(email)

	var org model.Organization
	if err := s.db.First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	var role model.Role
	if err := s.db.First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	if role.OrganizationID != organizationID {
		return nil, ErrRoleMismatch
	}

	result, err := s.upsert(email, organizationID, roleID, invitedByID)
	if err != nil {
		return nil, err
	}

	// 新建邀请才发送通知；刷新场景最早的那封邮件仍然有效（令牌不变）
	if result.Outcome == InviteCreated {
		s.dispatch(result.Invitation, org.Name)
	}

	return result, nil
}

// upsert 核心判定流程
// (email, organization) 的唯一索引负责串行化并发创建：两个请求同时
// 观察到 "没有待处理邀请" 时，后写入的一方撞上唯一约束，捕获冲突后
// 重放判定流程，以刷新代替重复创建
func (s *InvitationService) upsert(email, organizationID, roleID, invitedByID string) (*InviteResult, error) {
	for attempt := 0; attempt < 2; attempt++ {
		now := s.now()

		var existing model.Invitation
		err := s.db.Where("email = ? AND organization_id = ?", email, organizationID).First(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		if found && existing.Accepted {
			return nil, ErrAlreadyAccepted
		}

		member, err := s.hasMembershipByEmail(email, organizationID)
		if err != nil {
			return nil, err
		}
		if member {
			return nil, ErrAlreadyMember
		}

		if found && existing.IsPending(now) {
			updates := map[string]interface{}{
				"role_id":    roleID,
				"expires_at": now.Add(s.expiry),
			}
			if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
				return nil, err
			}
			existing.RoleID = roleID
			existing.ExpiresAt = now.Add(s.expiry)
			return &InviteResult{Outcome: InviteUpdated, Invitation: &existing}, nil
		}

		if found {
			// 已过期，删除旧记录后重建
			if err := s.db.Delete(&model.Invitation{}, "id = ?", existing.ID).Error; err != nil {
				return nil, err
			}
		}

		invitation := model.Invitation{
			Email:          email,
			OrganizationID: organizationID,
			RoleID:         roleID,
			InvitedByID:    invitedByID,
			Accepted:       false,
			EmailSent:      false,
			ExpiresAt:      now.Add(s.expiry),
		}
		if err := s.db.Create(&invitation).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 并发竞争失败，重放判定
				continue
			}
			return nil, err
		}
		return &InviteResult{Outcome: InviteCreated, Invitation: &invitation}, nil
	}
	return nil, fmt.Errorf("邀请创建竞争冲突未能收敛: %s / %s", utils.MaskEmail(email), organizationID)
}

// dispatch 发送邀请通知邮件
func (s *InvitationService) dispatch(invitation *model.Invitation, organizationName string) {
	if s.email == nil {
		return
	}

	acceptURL := fmt.Sprintf("%s/register?token=%s", s.acceptBaseURL, invitation.ID)
	if err := s.email.SendInvitation(invitation.Email, organizationName, acceptURL); err != nil {
		log.Printf("[邀请] 通知邮件发送失败: %s: %v", utils.MaskEmail(invitation.Email), err)
		return
	}

	if err := s.db.Model(invitation).Update("email_sent", true).Error; err != nil {
		log.Printf("[邀请] 更新 email_sent 失败: %v", err)
		return
	}
	invitation.EmailSent = true
}

// Accept 接受邀请
// 令牌即邀请 ID。只接受 accepted=false 且 expires_at >= now 的邀请，
// 这是唯一会把 accepted 置位的路径；用户、成员关系、已接受标记在同一
// 事务内落库
func (s *InvitationService) Accept(token string, in AcceptInput) (*model.User, error) {
	now := s.now()

	var user model.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invitation model.Invitation
		err := tx.Where("id = ? AND accepted = ? AND expires_at >= ?", token, false, now).First(&invitation).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvitationNotFound
			}
			return err
		}

		user = model.User{
			Email:          invitation.Email,
			FirstName:      in.FirstName,
			LastName:       in.LastName,
			OrganizationID: &invitation.OrganizationID,
		}
		if err := user.SetPassword(in.Password); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}

		membership := model.UserRole{
			UserID:         user.ID,
			OrganizationID: invitation.OrganizationID,
			RoleID:         invitation.RoleID,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		return tx.Model(&invitation).Update("accepted", true).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// hasMembershipByEmail 邮箱对应的用户是否已在组织内持有角色
func (s *InvitationService) hasMembershipByEmail(email, organizationID string) (bool, error) {
	var user model.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	var count int64
	err = s.db.Model(&model.UserRole{}).
		Where("user_id = ? AND organization_id = ?", user.ID, organizationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
