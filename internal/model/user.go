package model

import "time"

// User 账户资料的本地投影（账户系统本身不在本服务内）
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Handle      string    `json:"handle" gorm:"type:varchar(64);uniqueIndex;not null"`
	DisplayName string    `json:"displayName" gorm:"type:varchar(128)"`
	AvatarURL   string    `json:"avatarUrl" gorm:"type:varchar(512)"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// PublicProfile 对外公开的资料投影
type PublicProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Handle      string `json:"handle"`
	AvatarURL   string `json:"avatarUrl"`
}

func (u *User) Profile() PublicProfile {
	name := u.DisplayName
	if name == "" {
		name = u.Handle
	}
	return PublicProfile{ID: u.ID, DisplayName: name, Handle: u.Handle, AvatarURL: u.AvatarURL}
}
