package service

import (
	"context"
	"errors"
	"log"
	"time"

	"clm-server/internal/model"

	"gorm.io/gorm"
)

// 合同相关的输入校验错误
var (
	ErrInvalidStage    = errors.New("非法的合同阶段")
	ErrFilePathTaken   = errors.New("该文件路径已被其他合同占用")
	ErrFileNotUploaded = errors.New("文件尚未上传到存储，无法创建合同")
)

// ContractInput 创建/更新合同的入参
type ContractInput struct {
	Title          string
	Description    string
	ContractType   string
	Stage          model.ContractStage
	EffectiveFrom  *time.Time
	ExpiresOn      *time.Time
	IsRenewable    bool
	FilePath       string
	Counterparties []CounterpartyInput
}

// CounterpartyInput 合同相对方入参
type CounterpartyInput struct {
	PartyName string
	PartyType string
	Email     string
	IsPrimary bool
}

// ContractService 合同服务
// 合同只在所属组织范围内可见可改，跨组织访问一律拒绝
type ContractService struct {
	db      *gorm.DB
	storage ObjectStorage
}

// NewContractService 创建合同服务
func NewContractService(db *gorm.DB, storage ObjectStorage) *ContractService {
	return &ContractService{db: db, storage: storage}
}

// Create 创建合同
// file_path 对应的对象必须已经上传完成
func (s *ContractService) Create(ctx context.Context, organizationID, userID string, in ContractInput) (*model.Contract, error) {
	if in.Stage == "" {
		in.Stage = model.StageDraft
	}
	if !model.ValidStages[in.Stage] {
		return nil, ErrInvalidStage
	}

	if s.storage != nil {
		exists, err := s.storage.ObjectExists(ctx, in.FilePath)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrFileNotUploaded
		}
	}

	contract := model.Contract{
		Title:            in.Title,
		Description:      in.Description,
		ContractType:     in.ContractType,
		OrganizationID:   organizationID,
		Stage:            in.Stage,
		EffectiveFrom:    in.EffectiveFrom,
		ExpiresOn:        in.ExpiresOn,
		IsRenewable:      in.IsRenewable,
		CreatedByID:      &userID,
		LastModifiedByID: &userID,
		FilePath:         in.FilePath,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contract).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrFilePathTaken
			}
			return err
		}
		for _, cp := range in.Counterparties {
			counterparty := model.Counterparty{
				PartyName:  cp.PartyName,
				PartyType:  cp.PartyType,
				ContractID: contract.ID,
				Email:      cp.Email,
				IsPrimary:  cp.IsPrimary,
			}
			if err := tx.Create(&counterparty).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(organizationID, contract.ID)
}

// Get 查询合同
// 跨组织访问返回 ErrContractAccessDenied，组织内管理员身份不放宽此限制
func (s *ContractService) Get(organizationID, contractID string) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.Preload("Counterparties").First(&contract, "id = ?", contractID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	if contract.OrganizationID != organizationID {
		return nil, ErrContractAccessDenied
	}
	return &contract, nil
}

// List 查询组织下的合同，stage 非空时按阶段过滤
func (s *ContractService) List(organizationID string, stage model.ContractStage) ([]model.Contract, error) {
	query := s.db.Preload("Counterparties").Where("organization_id = ?", organizationID)
	if stage != "" {
		if !model.ValidStages[stage] {
			return nil, ErrInvalidStage
		}
		query = query.Where("stage = ?", stage)
	}

	var contracts []model.Contract
	if err := query.Order("created_at DESC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// Update 更新合同基础字段
func (s *ContractService) Update(organizationID, contractID, userID string, in ContractInput) (*model.Contract, error) {
	contract, err := s.Get(organizationID, contractID)
	if err != nil {
		return nil, err
	}

	if in.Stage != "" && !model.ValidStages[in.Stage] {
		return nil, ErrInvalidStage
	}

	updates := map[string]interface{}{
		"last_modified_by_id": userID,
	}
	if in.Title != "" {
		updates["title"] = in.Title
	}
	if in.Description != "" {
		updates["description"] = in.Description
	}
	if in.ContractType != "" {
		updates["contract_type"] = in.ContractType
	}
	if in.Stage != "" {
		updates["stage"] = in.Stage
	}
	if in.EffectiveFrom != nil {
		updates["effective_from"] = in.EffectiveFrom
	}
	if in.ExpiresOn != nil {
		updates["expires_on"] = in.ExpiresOn
	}

	if err := s.db.Model(contract).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.Get(organizationID, contractID)
}

// UpdateStage 推进合同阶段
func (s *ContractService) UpdateStage(organizationID, contractID string, stage model.ContractStage) (*model.Contract, error) {
	if !model.ValidStages[stage] {
		return nil, ErrInvalidStage
	}

	contract, err := s.Get(organizationID, contractID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"stage": stage}
	if stage == model.StageTermination {
		now := time.Now()
		updates["terminated_at"] = now
	}
	if stage == model.StageRenewal {
		now := time.Now()
		updates["renewal_count"] = gorm.Expr("renewal_count + 1")
		updates["renewed_on"] = now
	}

	if err := s.db.Model(contract).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.Get(organizationID, contractID)
}

// Delete 删除合同及其相对方，同时清理存储中的文件
// 文件清理失败只记日志，不阻塞删除
func (s *ContractService) Delete(ctx context.Context, organizationID, contractID string) error {
	contract, err := s.Get(organizationID, contractID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", contractID).Delete(&model.Counterparty{}).Error; err != nil {
			return err
		}
		return tx.Delete(contract).Error
	})
	if err != nil {
		return err
	}

	if s.storage != nil && contract.FilePath != "" {
		if err := s.storage.DeleteObject(ctx, contract.FilePath); err != nil {
			log.Printf("[合同] 删除存储文件失败: %s: %v", contract.FilePath, err)
		}
	}
	return nil
}

// AddCounterparty 新增合同相对方
func (s *ContractService) AddCounterparty(organizationID, contractID string, in CounterpartyInput) (*model.Counterparty, error) {
	if _, err := s.Get(organizationID, contractID); err != nil {
		return nil, err
	}

	counterparty := model.Counterparty{
		PartyName:  in.PartyName,
		PartyType:  in.PartyType,
		ContractID: contractID,
		Email:      in.Email,
		IsPrimary:  in.IsPrimary,
	}
	if err := s.db.Create(&counterparty).Error; err != nil {
		return nil, err
	}
	return &counterparty, nil
}

// RemoveCounterparty 删除合同相对方
func (s *ContractService) RemoveCounterparty(organizationID, contractID, counterpartyID string) error {
	if _, err := s.Get(organizationID, contractID); err != nil {
		return err
	}

	result := s.db.Where("id = ? AND contract_id = ?", counterpartyID, contractID).
		Delete(&model.Counterparty{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCounterpartyNotFound
	}
	return nil
}

// PresignUpload 生成合同文件上传链接
func (s *ContractService) PresignUpload(ctx context.Context, key string) (*UploadTarget, error) {
	return s.storage.PresignUpload(ctx, SanitizeObjectKey(key))
}

// PresignDownload 生成合同文件下载链接
func (s *ContractService) PresignDownload(ctx context.Context, organizationID, contractID string) (string, error) {
	contract, err := s.Get(organizationID, contractID)
	if err != nil {
		return "", err
	}
	return s.storage.PresignDownload(ctx, contract.FilePath)
}
