package models

// 用户角色
const (
	RoleCitizen  = "citizen"  // 市民（报警人）
	RoleFamily   = "family"   // 家庭成员
	RolePolice   = "police"   // 警察
	RoleHospital = "hospital" // 医院
	RoleFire     = "fire"     // 消防
	RoleAdmin    = "admin"    // 系统管理员
)

// 用户状态
const (
	UserStatusActive    = "active"    // 正常
	UserStatusInactive  = "inactive"  // 停用
	UserStatusSuspended = "suspended" // 封禁
)

// User 表示平台上的一个账号：市民、家庭成员、响应者（警察/医院/消防）或管理员
type User struct {
	BaseModel
	Name     string `gorm:"type:varchar(50);not null" json:"name"`
	Username string `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Password string `gorm:"type:varchar(100);not null" json:"-"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`
	Role     string `gorm:"type:varchar(20);not null;default:'citizen'" json:"role"`
	Status   string `gorm:"type:varchar(20);not null;default:'active'" json:"status"` // active/inactive/suspended，非active时拒绝登录

	// 最近上报的位置
	Address   string  `gorm:"type:varchar(200)" json:"address"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`

	// 家庭成员（市民账号使用），新警报会同时通知这些账号
	FamilyMembers []*User `gorm:"many2many:user_family_members" json:"family_members,omitempty"`
}

// IsResponder 判断用户是否为响应者角色
func (u *User) IsResponder() bool {
	return u.Role == RolePolice || u.Role == RoleHospital || u.Role == RoleFire
}

// IsActive 判断账号是否可用
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// ValidUserRole 校验角色取值
func ValidUserRole(role string) bool {
	switch role {
	case RoleCitizen, RoleFamily, RolePolice, RoleHospital, RoleFire, RoleAdmin:
		return true
	}
	return false
}

// ValidUserStatus 校验状态取值
func ValidUserStatus(status string) bool {
	switch status {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}
