package model

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleDeveloper      Role = "DEVELOPER"
	RoleQC             Role = "QC"
	RoleDesigner       Role = "DESIGNER"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleDeveloper, RoleQC, RoleDesigner:
		return true
	}
	return false
}

// UserModel 用户
type UserModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name       string  `json:"name" gorm:"not null"`
	Email      string  `json:"email" gorm:"not null;uniqueIndex"`
	Role       Role    `json:"role" gorm:"type:varchar(32);not null;default:'DEVELOPER'"`
	IsActive   bool    `json:"isActive" gorm:"not null"`
	HourlyRate float64 `json:"hourlyRate" gorm:"default:0"`
}

// TableName 自定义表名
func (UserModel) TableName() string {
	return "users"
}
