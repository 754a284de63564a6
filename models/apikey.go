package models

import "time"

// ApiKeyPermission is the access level granted to a partner API key.
type ApiKeyPermission string

const (
	PermissionRead      ApiKeyPermission = "read"
	PermissionWrite     ApiKeyPermission = "write"
	PermissionReadWrite ApiKeyPermission = "read_write"
)

// Covers reports whether the key's permission level satisfies the
// permission a call requires. read_write covers both directions; read and
// write cover only themselves.
func (p ApiKeyPermission) Covers(required ApiKeyPermission) bool {
	if p == PermissionReadWrite {
		return required == PermissionRead || required == PermissionWrite || required == PermissionReadWrite
	}
	return p == required
}

type ApiKey struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	Key           string           `json:"key" gorm:"uniqueIndex;not null"`
	ServiceName   string           `json:"service_name" gorm:"not null"`
	ConsumerGroup string           `json:"consumer_group" gorm:"not null"`
	Permissions   ApiKeyPermission `json:"permissions" gorm:"not null;default:'read'"`
	IsActive      bool             `json:"is_active" gorm:"default:true"`
	UsageCount    int64            `json:"usage_count" gorm:"default:0"`
	LastUsed      *time.Time       `json:"last_used"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
