package handler

import (
	"time"

	"clm-server/internal/middleware"
	"clm-server/internal/model"
	"clm-server/internal/pkg/response"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	contracts *service.ContractService
}

func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// CounterpartyRequest 合同相对方
type CounterpartyRequest struct {
	PartyName string `json:"party_name" binding:"required"`
	PartyType string `json:"party_type"`
	Email     string `json:"email" binding:"required,email"`
	IsPrimary *bool  `json:"is_primary"`
}

// ContractRequest 创建/更新合同请求
type ContractRequest struct {
	Title          string                `json:"title" binding:"required"`
	Description    string                `json:"description"`
	ContractType   string                `json:"contract_type"`
	Stage          string                `json:"stage"`
	EffectiveFrom  *time.Time            `json:"effective_from"`
	ExpiresOn      *time.Time            `json:"expires_on"`
	IsRenewable    bool                  `json:"is_renewable"`
	FilePath       string                `json:"file_path" binding:"required"`
	Counterparties []CounterpartyRequest `json:"counterparties"`
}

// UpdateContractRequest 更新合同请求，全部字段可选
type UpdateContractRequest struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ContractType  string     `json:"contract_type"`
	Stage         string     `json:"stage"`
	EffectiveFrom *time.Time `json:"effective_from"`
	ExpiresOn     *time.Time `json:"expires_on"`
}

// UpdateStageRequest 推进合同阶段请求
type UpdateStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// UploadURLRequest 生成上传链接请求
type UploadURLRequest struct {
	Key string `json:"key"`
}

// Create 创建合同
func (h *ContractHandler) Create(c *gin.Context) {
	var req ContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	in := service.ContractInput{
		Title:         req.Title,
		Description:   req.Description,
		ContractType:  req.ContractType,
		Stage:         model.ContractStage(req.Stage),
		EffectiveFrom: req.EffectiveFrom,
		ExpiresOn:     req.ExpiresOn,
		IsRenewable:   req.IsRenewable,
		FilePath:      req.FilePath,
	}
	for _, cp := range req.Counterparties {
		isPrimary := true
		if cp.IsPrimary != nil {
			isPrimary = *cp.IsPrimary
		}
		in.Counterparties = append(in.Counterparties, service.CounterpartyInput{
			PartyName: cp.PartyName,
			PartyType: cp.PartyType,
			Email:     cp.Email,
			IsPrimary: isPrimary,
		})
	}

	contract, err := h.contracts.Create(c.Request.Context(),
		middleware.GetOrganizationID(c), middleware.GetUserID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, contract)
}

// List 查询本组织合同，支持 ?stage= 过滤
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.contracts.List(middleware.GetOrganizationID(c),
		model.ContractStage(c.Query("stage")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, contracts)
}

// Get 查询合同详情
func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.contracts.Get(middleware.GetOrganizationID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, contract)
}

// Update 更新合同
func (h *ContractHandler) Update(c *gin.Context) {
	var req UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	contract, err := h.contracts.Update(middleware.GetOrganizationID(c), c.Param("id"),
		middleware.GetUserID(c), service.ContractInput{
			Title:         req.Title,
			Description:   req.Description,
			ContractType:  req.ContractType,
			Stage:         model.ContractStage(req.Stage),
			EffectiveFrom: req.EffectiveFrom,
			ExpiresOn:     req.ExpiresOn,
		})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, contract)
}

// UpdateStage 推进合同阶段
func (h *ContractHandler) UpdateStage(c *gin.Context) {
	var req UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	contract, err := h.contracts.UpdateStage(middleware.GetOrganizationID(c),
		c.Param("id"), model.ContractStage(req.Stage))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, contract)
}

// Delete 删除合同
func (h *ContractHandler) Delete(c *gin.Context) {
	err := h.contracts.Delete(c.Request.Context(), middleware.GetOrganizationID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "合同已删除", nil)
}

// UploadURL 生成文件上传链接
// key 为空时自动生成唯一对象键，创建合同时回填到 file_path
func (h *ContractHandler) UploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	target, err := h.contracts.PresignUpload(c.Request.Context(), req.Key)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, target)
}

// DownloadURL 生成合同文件下载链接
func (h *ContractHandler) DownloadURL(c *gin.Context) {
	url, err := h.contracts.PresignDownload(c.Request.Context(),
		middleware.GetOrganizationID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"url": url})
}

// AddCounterparty 新增合同相对方
func (h *ContractHandler) AddCounterparty(c *gin.Context) {
	var req CounterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	isPrimary := true
	if req.IsPrimary != nil {
		isPrimary = *req.IsPrimary
	}

	counterparty, err := h.contracts.AddCounterparty(middleware.GetOrganizationID(c),
		c.Param("id"), service.CounterpartyInput{
			PartyName: req.PartyName,
			PartyType: req.PartyType,
			Email:     req.Email,
			IsPrimary: isPrimary,
		})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, counterparty)
}

// RemoveCounterparty 删除合同相对方
func (h *ContractHandler) RemoveCounterparty(c *gin.Context) {
	err := h.contracts.RemoveCounterparty(middleware.GetOrganizationID(c),
		c.Param("id"), c.Param("counterparty_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "相对方已删除", nil)
}
