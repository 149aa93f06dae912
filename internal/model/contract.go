package model

import "time"

// Contract 合同 - 组织范围内的业务记录
// 文件本体存放在对象存储中，file_path 为全局唯一的对象键
type Contract struct {
	BaseModel
	Title            string        `gorm:"type:varchar(255);not null" json:"title"`
	Description      string        `gorm:"type:text" json:"description"`
	ContractType     string        `gorm:"type:varchar(255)" json:"contract_type"`
	OrganizationID   string        `gorm:"type:varchar(36);index;not null" json:"organization_id"`
	Stage            ContractStage `gorm:"type:varchar(50);default:draft" json:"stage"`
	EffectiveFrom    *time.Time    `json:"effective_from"`
	ExpiresOn        *time.Time    `json:"expires_on"`
	IsRenewable      bool          `gorm:"default:false" json:"is_renewable"`
	RenewalCount     uint          `gorm:"default:0" json:"renewal_count"`
	RenewedOn        *time.Time    `json:"renewed_on"`
	TerminatedAt     *time.Time    `json:"terminated_at"`
	TerminatedReason string        `gorm:"type:text" json:"terminated_reason"`
	CreatedByID      *string       `gorm:"type:varchar(36)" json:"created_by"`
	LastModifiedByID *string       `gorm:"type:varchar(36)" json:"last_modified_by"`
	FilePath         string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"file_path"`

	// 关联
	Organization   *Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	CreatedBy      *User          `gorm:"foreignKey:CreatedByID" json:"creator,omitempty"`
	Counterparties []Counterparty `gorm:"foreignKey:ContractID" json:"counterparties,omitempty"`
}

func (Contract) TableName() string {
	return "contracts"
}

// ContractStage 合同阶段
type ContractStage string

const (
	StageDraft          ContractStage = "draft"           // 起草
	StageDraftCompleted ContractStage = "draft_completed" // 起草完成
	StageNegotiation    ContractStage = "negotiation"     // 谈判
	StageReview         ContractStage = "review"          // 审查
	StageApproval       ContractStage = "approval"        // 审批
	StageExecution      ContractStage = "execution"       // 执行
	StageSignPending    ContractStage = "sign_pending"    // 等待签署
	StageMonitoring     ContractStage = "monitoring"      // 监控
	StageRenewal        ContractStage = "renewal"         // 续签
	StageTermination    ContractStage = "termination"     // 终止
)

// ValidStages 合同阶段枚举
var ValidStages = map[ContractStage]bool{
	StageDraft:          true,
	StageDraftCompleted: true,
	StageNegotiation:    true,
	StageReview:         true,
	StageApproval:       true,
	StageExecution:      true,
	StageSignPending:    true,
	StageMonitoring:     true,
	StageRenewal:        true,
	StageTermination:    true,
}

// Counterparty 合同相对方
type Counterparty struct {
	BaseModel
	PartyName  string `gorm:"type:varchar(255);not null" json:"party_name"`
	PartyType  string `gorm:"type:varchar(255)" json:"party_type"` // company / person
	ContractID string `gorm:"type:varchar(36);index;not null" json:"contract_id"`
	Email      string `gorm:"type:varchar(100);not null" json:"email"`
	IsPrimary  bool   `gorm:"default:true" json:"is_primary"`

	// 关联
	Contract *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
}

func (Counterparty) TableName() string {
	return "counterparties"
}
