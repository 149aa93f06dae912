package service

import (
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"clm-server/internal/config"
)

// 签名位置类型
const (
	PlaceSignature             = "signature"
	PlaceInitials              = "initials"
	PlaceText                  = "text"
	PlaceTextInput             = "text_input"
	PlaceRecipientCompletedAt  = "recipient_completed_date"
	PlaceEnvelopeCompletedAt   = "envelope_completed_date"
)

// Place 文档内的签名占位，按 place_type 区分具体形态
type Place struct {
	Key       string `json:"key"`
	PlaceType string `json:"place_type"`

	// signature / initials
	RecipientEmail string `json:"recipient_email,omitempty"`

	// text
	Value string `json:"value,omitempty"`

	// text_input
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required,omitempty"`

	// recipient_completed_date
	Timezone string `json:"timezone,omitempty"`
	Format   string `json:"format,omitempty"`
}

// placeEnvelope 用于解码时先取判别字段
type placeEnvelope struct {
	Key       string `json:"key"`
	PlaceType string `json:"place_type"`
}

// UnmarshalJSON 按 place_type 校验并解码占位
func (p *Place) UnmarshalJSON(data []byte) error {
	var env placeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Key == "" {
		return fmt.Errorf("占位缺少 key")
	}

	type placeAlias Place
	var alias placeAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*p = Place(alias)

	switch p.PlaceType {
	case PlaceSignature, PlaceInitials:
		if p.RecipientEmail == "" {
			return fmt.Errorf("占位 %s 缺少 recipient_email", p.Key)
		}
	case PlaceText:
		if p.Value == "" {
			return fmt.Errorf("占位 %s 缺少 value", p.Key)
		}
	case PlaceTextInput:
		if p.RecipientEmail == "" {
			return fmt.Errorf("占位 %s 缺少 recipient_email", p.Key)
		}
	case PlaceRecipientCompletedAt:
		if p.RecipientEmail == "" {
			return fmt.Errorf("占位 %s 缺少 recipient_email", p.Key)
		}
	case PlaceEnvelopeCompletedAt:
		// 无额外字段
	default:
		return fmt.Errorf("不支持的占位类型: %s", p.PlaceType)
	}
	return nil
}

// MarshalJSON 输出服务商要求的扁平结构
func (p Place) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"key":  p.Key,
		"type": p.PlaceType,
	}
	switch p.PlaceType {
	case PlaceSignature, PlaceInitials:
		out["recipient"] = p.RecipientEmail
	case PlaceText:
		out["value"] = p.Value
	case PlaceTextInput:
		out["recipient"] = p.RecipientEmail
		if p.Label != "" {
			out["label"] = p.Label
		}
		out["required"] = p.Required
	case PlaceRecipientCompletedAt:
		out["recipient"] = p.RecipientEmail
		if p.Timezone != "" {
			out["timezone"] = p.Timezone
		}
		if p.Format != "" {
			out["format"] = p.Format
		}
	case PlaceEnvelopeCompletedAt:
		if p.Timezone != "" {
			out["timezone"] = p.Timezone
		}
		if p.Format != "" {
			out["format"] = p.Format
		}
	}
	return json.Marshal(out)
}

// Recipient 信封接收人
type Recipient struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// EnvelopeInput 创建签名信封的入参
type EnvelopeInput struct {
	Title       string      `json:"title"`
	DocumentURL string      `json:"document_url"`
	Routing     string      `json:"routing,omitempty"`
	Places      []Place     `json:"places"`
	Recipients  []Recipient `json:"recipients"`
}

// SenderInfo 信封发件人信息
type SenderInfo struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
}

// envelopeDocument 服务商信封文档
type envelopeDocument struct {
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Places []Place `json:"places"`
	Format string  `json:"format"`
}

// envelopePayload 服务商信封请求体
type envelopePayload struct {
	Title      string             `json:"title"`
	Message    string             `json:"message"`
	Routing    string             `json:"routing"`
	Documents  []envelopeDocument `json:"documents"`
	Recipients []Recipient        `json:"recipients"`
	Sender     *SenderInfo        `json:"sender,omitempty"`
}

// BuildEnvelopePayload 组装服务商信封请求体
func BuildEnvelopePayload(in *EnvelopeInput, sender *SenderInfo) *envelopePayload {
	routing := in.Routing
	if routing == "" {
		routing = "parallel"
	}
	return &envelopePayload{
		Title:   in.Title,
		Message: "Please review and sign the attached contract.",
		Routing: routing,
		Documents: []envelopeDocument{
			{
				Title:  in.Title,
				URL:    in.DocumentURL,
				Places: in.Places,
				Format: "pdf",
			},
		},
		Recipients: in.Recipients,
		Sender:     sender,
	}
}

// SignatureClient 电子签名服务商客户端
type SignatureClient struct {
	client *resty.Client
}

// NewSignatureClient 创建签名服务商客户端
func NewSignatureClient(cfg *config.ESignConfig) *SignatureClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("X-API-Key", cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &SignatureClient{client: client}
}

// CreateEnvelope 创建签名信封，非 2xx 响应由调用方原样转发
func (c *SignatureClient) CreateEnvelope(payload *envelopePayload) (*resty.Response, error) {
	return c.client.R().
		SetBody(payload).
		Post("/envelopes")
}

// senderPayload 注册发件人请求体
type senderPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateSender 在服务商注册发件人
func (c *SignatureClient) CreateSender(email, name string) (*resty.Response, error) {
	return c.client.R().
		SetBody(&senderPayload{Email: email, Name: name}).
		Post("/senders")
}

// GetSender 查询发件人状态
func (c *SignatureClient) GetSender(senderID string) (*resty.Response, error) {
	return c.client.R().
		Get("/senders/" + senderID)
}
