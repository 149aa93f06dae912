package service

import (
	"errors"

	"clm-server/internal/model"
	"clm-server/internal/pkg/utils"

	"gorm.io/gorm"
)

// OrganizationService 组织服务
type OrganizationService struct {
	db *gorm.DB
}

// NewOrganizationService 创建组织服务
func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{db: db}
}

// Create 创建组织
// 同一事务内完成：组织 + 域名 + 自动创建的 admin 角色；
// 非主管理员的创建者会被绑定到新组织并授予 admin 角色
// （主管理员不与任何组织关联）
func (s *OrganizationService) Create(name string, domains []string, actor *model.User) (*model.Organization, error) {
	if actor != nil && !actor.IsMainAdmin && actor.OrganizationID != nil {
		return nil, ErrAlreadyInOrganization
	}

	var org model.Organization

	err := s.db.Transaction(func(tx *gorm.DB) error {
		org = model.Organization{Name: name}
		if err := tx.Create(&org).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrOrganizationExists
			}
			return err
		}

		for _, d := range domains {
			domain := model.Domain{
				Domain:         utils.NormalizeEmail(d),
				OrganizationID: org.ID,
			}
			if err := tx.Create(&domain).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDomainExists
				}
				return err
			}
		}

		adminRole := model.Role{
			Name:           "admin",
			OrganizationID: org.ID,
			Permissions:    model.AdminRolePermissions,
		}
		if err := tx.Create(&adminRole).Error; err != nil {
			return err
		}

		if actor != nil && !actor.IsMainAdmin {
			if err := tx.Model(&model.User{}).Where("id = ?", actor.ID).
				Update("organization_id", org.ID).Error; err != nil {
				return err
			}
			actor.OrganizationID = &org.ID

			membership := model.UserRole{
				UserID:         actor.ID,
				OrganizationID: org.ID,
				RoleID:         adminRole.ID,
			}
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &org, nil
}

// Delete 删除组织
// 级联策略（按关系逐一显式声明，不依赖框架默认行为）：
//   - 域名、角色、成员关系、邀请、合同及其相对方：随组织删除
//   - 用户：organization_id 置空，账号保留
func (s *OrganizationService) Delete(organizationID string) error {
	var org model.Organization
	if err := s.db.First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id IN (?)",
			tx.Model(&model.Contract{}).Select("id").Where("organization_id = ?", organizationID),
		).Delete(&model.Counterparty{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", organizationID).Delete(&model.Contract{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", organizationID).Delete(&model.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", organizationID).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", organizationID).Delete(&model.Role{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", organizationID).Delete(&model.Domain{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Where("organization_id = ?", organizationID).
			Update("organization_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&org).Error
	})
}

// Get 查询组织
func (s *OrganizationService) Get(organizationID string) (*model.Organization, error) {
	var org model.Organization
	err := s.db.Preload("Domains").First(&org, "id = ?", organizationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

// List 查询全部组织
func (s *OrganizationService) List() ([]model.Organization, error) {
	var orgs []model.Organization
	if err := s.db.Order("created_at DESC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// LookupDomain 域名是否已注册
// 自助注册前置校验：邮箱域名必须命中某个组织的已注册域名
func (s *OrganizationService) LookupDomain(domain string) (*model.Domain, error) {
	var d model.Domain
	err := s.db.Where("domain = ?", utils.NormalizeEmail(domain)).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDomainUnregistered
		}
		return nil, err
	}
	return &d, nil
}
