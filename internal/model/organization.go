package model

// Organization 组织 - 租户隔离的顶层单位
type Organization struct {
	BaseModel
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`

	// 关联
	Domains []Domain `gorm:"foreignKey:OrganizationID" json:"domains,omitempty"`
	Roles   []Role   `gorm:"foreignKey:OrganizationID" json:"roles,omitempty"`
	Members []User   `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
}

func (Organization) TableName() string {
	return "organizations"
}

// Domain 邮箱域名 - 自助注册时通过邮箱后缀解析所属组织
// 域名在全系统范围内唯一，不允许两个组织注册同一个域名
type Domain struct {
	BaseModel
	Domain         string `gorm:"type:varchar(255);uniqueIndex;not null" json:"domain"`
	OrganizationID string `gorm:"type:varchar(36);index;not null" json:"organization_id"`

	// 关联
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Domain) TableName() string {
	return "domains"
}
