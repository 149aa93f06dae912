package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"

	"clm-server/internal/model"
)

// ErrSenderNotRegistered 用户尚未注册签名发件人
var ErrSenderNotRegistered = errors.New("用户尚未注册签名发件人")

// SignatureAPI 签名服务商接口，便于测试替换
type SignatureAPI interface {
	CreateEnvelope(payload *envelopePayload) (*resty.Response, error)
	CreateSender(email, name string) (*resty.Response, error)
	GetSender(senderID string) (*resty.Response, error)
}

// ESignService 电子签名服务
// 信封发出后合同进入 sign_pending 阶段；服务商的非 2xx 响应原样抛给
// 调用方转发，不做二次包装
type ESignService struct {
	db        *gorm.DB
	api       SignatureAPI
	storage   ObjectStorage
	contracts *ContractService
}

// NewESignService 创建电子签名服务
func NewESignService(db *gorm.DB, api SignatureAPI, storage ObjectStorage, contracts *ContractService) *ESignService {
	return &ESignService{db: db, api: api, storage: storage, contracts: contracts}
}

// SendEnvelope 为合同创建签名信封
// 文档使用合同文件的预签名下载链接，服务商拉取后分发给接收人
func (s *ESignService) SendEnvelope(ctx context.Context, organizationID, userID, contractID string, in *EnvelopeInput) (*resty.Response, error) {
	contract, err := s.contracts.Get(organizationID, contractID)
	if err != nil {
		return nil, err
	}

	docURL, err := s.storage.PresignDownload(ctx, contract.FilePath)
	if err != nil {
		return nil, err
	}
	in.DocumentURL = docURL
	if in.Title == "" {
		in.Title = contract.Title
	}

	sender, err := s.senderInfo(userID, organizationID)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.CreateEnvelope(BuildEnvelopePayload(in, sender))
	if err != nil {
		return nil, err
	}

	if resp.IsSuccess() {
		if _, err := s.contracts.UpdateStage(organizationID, contractID, model.StageSignPending); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// senderInfo 组装信封发件人，未注册发件人时回退为空（由服务商默认处理）
func (s *ESignService) senderInfo(userID, organizationID string) (*SenderInfo, error) {
	var user model.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var org model.Organization
	if err := s.db.First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	return &SenderInfo{
		Email:        user.Email,
		Name:         user.FullName(),
		Organization: org.Name,
	}, nil
}

// RegisterSender 在服务商注册当前用户为发件人并记录档案
// 已有档案时直接返回已注册的发件人状态
func (s *ESignService) RegisterSender(userID string) (*resty.Response, error) {
	var user model.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var profile model.SenderProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return s.api.GetSender(profile.APISenderID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	resp, err := s.api.CreateSender(user.Email, user.FullName())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return resp, nil
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		return nil, fmt.Errorf("解析发件人响应失败: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("发件人响应缺少 id")
	}

	profile = model.SenderProfile{
		UserID:      userID,
		APISenderID: created.ID,
	}
	if err := s.db.Create(&profile).Error; err != nil {
		return nil, err
	}
	return resp, nil
}

// SenderStatus 查询当前用户的发件人状态
func (s *ESignService) SenderStatus(userID string) (*resty.Response, error) {
	var profile model.SenderProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSenderNotRegistered
		}
		return nil, err
	}
	return s.api.GetSender(profile.APISenderID)
}
