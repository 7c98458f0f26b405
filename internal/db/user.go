package db

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleAuthor    = "author"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User 定义了用户模型
// Roles 以逗号分隔保存，例如 "author,moderator"
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"unique;not null" json:"username"`
	Password    string    `gorm:"not null" json:"-"`
	DisplayName string    `gorm:"size:120" json:"display_name"`
	Roles       string    `gorm:"size:255" json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleList 返回去重后的角色列表
func (u User) RoleList() []string {
	return normalizeRoles(strings.Split(u.Roles, ","))
}

// HasRole 判断用户是否持有指定角色
func (u User) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range u.RoleList() {
		if r == role {
			return true
		}
	}
	return false
}

// JoinRoles 将角色列表规范化为存储格式
func JoinRoles(roles ...string) string {
	return strings.Join(normalizeRoles(roles), ",")
}

func normalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	result := make([]string, 0, len(roles))
	for _, raw := range roles {
		role := strings.ToLower(strings.TrimSpace(raw))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		result = append(result, role)
	}
	return result
}

// EnsureUser 存在性检查：若提供的用户名与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
// 已存在的账号只补充缺失的角色，不会覆盖密码。
func EnsureUser(gdb *gorm.DB, username, password string, roles ...string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := gdb.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return gdb.Create(&User{
			Username:    trimmedUser,
			Password:    string(hashed),
			DisplayName: trimmedUser,
			Roles:       JoinRoles(roles...),
		}).Error
	}

	merged := JoinRoles(append(existing.RoleList(), roles...)...)
	if merged == existing.Roles {
		return nil
	}
	return gdb.Model(&existing).Update("roles", merged).Error
}
