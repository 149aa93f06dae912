package model

// SenderProfile 电子签名发件人档案
// 记录用户在签名服务商处注册的发件人 ID，一个用户最多一条
type SenderProfile struct {
	BaseModel
	UserID      string `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	APISenderID string `gorm:"type:varchar(255);not null" json:"api_sender_id"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SenderProfile) TableName() string {
	return "sender_profiles"
}
