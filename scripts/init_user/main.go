package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/articleflow/internal/config"
	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/logging"
	_ "github.com/joho/godotenv/autoload"
)

// 创建或更新用户：已存在的用户只合并角色，不修改密码。
//
//	go run ./scripts/init_user -username mod -password secret -roles moderator
func main() {
	username := flag.String("username", "admin", "用户名")
	password := flag.String("password", "", "密码，新建用户时必填")
	roles := flag.String("roles", db.RoleAdmin+","+db.RoleModerator, "逗号分隔的角色：author, moderator, admin")
	flag.Parse()

	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath, logging.GormLevel(cfg.LogLevel)); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	name := strings.TrimSpace(*username)
	if name == "" {
		log.Fatal("用户名不能为空")
	}

	var count int64
	db.DB.Model(&db.User{}).Where("username = ?", name).Count(&count)
	if count == 0 && strings.TrimSpace(*password) == "" {
		log.Fatal("新建用户需要 -password")
	}

	if err := db.EnsureUser(db.DB, name, *password, strings.Split(*roles, ",")...); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	var user db.User
	if err := db.DB.Where("username = ?", name).First(&user).Error; err != nil {
		log.Fatal("读取用户失败:", err)
	}

	if count == 0 {
		fmt.Println("用户创建成功")
	} else {
		fmt.Println("用户已存在，已合并角色")
	}
	fmt.Println("用户名:", user.Username)
	fmt.Println("角色:", strings.Join(user.RoleList(), ", "))
}
