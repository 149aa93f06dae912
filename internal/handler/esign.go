package handler

import (
	"encoding/json"

	"clm-server/internal/middleware"
	"clm-server/internal/pkg/response"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
)

type ESignHandler struct {
	esign *service.ESignService
}

func NewESignHandler(esign *service.ESignService) *ESignHandler {
	return &ESignHandler{esign: esign}
}

// EnvelopeRequest 创建签名信封请求
// places 按 place_type 区分形态，解码时校验各自的必填字段
type EnvelopeRequest struct {
	Title      string              `json:"title"`
	Routing    string              `json:"routing"`
	Places     []service.Place     `json:"places" binding:"required,min=1"`
	Recipients []service.Recipient `json:"recipients" binding:"required,min=1"`
}

// SendEnvelope 为合同发起签名流程
// 受理成功返回 202，合同进入 sign_pending 阶段；
// 服务商的非 2xx 响应原样转发，便于前端展示具体校验错误
func (h *ESignHandler) SendEnvelope(c *gin.Context) {
	var req EnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.esign.SendEnvelope(c.Request.Context(),
		middleware.GetOrganizationID(c), middleware.GetUserID(c), c.Param("id"),
		&service.EnvelopeInput{
			Title:      req.Title,
			Routing:    req.Routing,
			Places:     req.Places,
			Recipients: req.Recipients,
		})
	if err != nil {
		fail(c, err)
		return
	}

	if !resp.IsSuccess() {
		response.Upstream(c, resp.StatusCode(), resp.Body())
		return
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		response.ServerError(c, "解析服务商响应失败")
		return
	}
	response.Accepted(c, envelope)
}

// RegisterSender 注册当前用户为签名发件人
func (h *ESignHandler) RegisterSender(c *gin.Context) {
	resp, err := h.esign.RegisterSender(middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	response.Upstream(c, resp.StatusCode(), resp.Body())
}

// SenderStatus 查询当前用户的发件人状态
func (h *ESignHandler) SenderStatus(c *gin.Context) {
	resp, err := h.esign.SenderStatus(middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Upstream(c, resp.StatusCode(), resp.Body())
}
