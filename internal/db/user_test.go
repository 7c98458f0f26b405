package db

import (
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

func TestUserRoleHelpers(t *testing.T) {
	tests := []struct {
		name  string
		roles string
		check string
		want  bool
	}{
		{name: "single role", roles: "author", check: "author", want: true},
		{name: "case insensitive", roles: "Author, MODERATOR", check: "moderator", want: true},
		{name: "missing role", roles: "author", check: "moderator", want: false},
		{name: "empty roles", roles: "", check: "author", want: false},
		{name: "blank entries", roles: ",,admin,", check: "admin", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{Roles: tt.roles}
			if got := user.HasRole(tt.check); got != tt.want {
				t.Fatalf("HasRole(%q) on %q = %v, want %v", tt.check, tt.roles, got, tt.want)
			}
		})
	}

	if got := JoinRoles("moderator", " Author", "moderator", ""); got != "moderator,author" {
		t.Fatalf("unexpected joined roles %q", got)
	}
}

func TestEnsureUserCreatesAndMergesRoles(t *testing.T) {
	dsn := fmt.Sprintf("file:ensure-user-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	if err := EnsureUser(gdb, "mia", "secret", RoleAuthor); err != nil {
		t.Fatalf("ensure user: %v", err)
	}

	var user User
	if err := gdb.Where("username = ?", "mia").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret")); err != nil {
		t.Fatalf("expected bcrypt hash, got %v", err)
	}
	if user.Roles != "author" {
		t.Fatalf("expected author role, got %q", user.Roles)
	}

	if err := EnsureUser(gdb, "mia", "other-password", RoleModerator); err != nil {
		t.Fatalf("ensure existing user: %v", err)
	}
	var reloaded User
	if err := gdb.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Password != user.Password {
		t.Fatalf("password must not be overwritten")
	}
	if !reloaded.HasRole(RoleAuthor) || !reloaded.HasRole(RoleModerator) {
		t.Fatalf("expected merged roles, got %q", reloaded.Roles)
	}

	if err := EnsureUser(gdb, "", "secret"); err != nil {
		t.Fatalf("blank username should be ignored, got %v", err)
	}
}
