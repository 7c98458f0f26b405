package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/articleflow/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	userIDKey      = "user_id"
	sessionUserKey = "user_id"
	sessionNameKey = "username"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          uint     `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
}

func newUserResponse(user db.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Roles:       user.RoleList(),
	}
}

// Login 校验用户名密码并写入会话
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	username := strings.TrimSpace(req.Username)
	var user db.User
	if err := a.db.WithContext(c.Request.Context()).Where("username = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			a.logRequestError(c, err)
		}
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	session.Set(sessionNameKey, user.Username)
	if err := session.Save(); err != nil {
		a.logRequestError(c, err)
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	a.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"request_id": c.GetString(requestIDKey),
	}).Info("user logged in")
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// Logout 清空会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = session.Save()
	c.Status(http.StatusNoContent)
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	var user db.User
	if err := a.db.WithContext(c.Request.Context()).First(&user, currentUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, "未登录")
			return
		}
		a.logRequestError(c, err)
		respondError(c, http.StatusServiceUnavailable, "store unavailable, please retry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// AuthRequired 要求已登录，并把用户 ID 放入上下文
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := sessionUserID(session.Get(sessionUserKey))
		if !ok {
			respondError(c, http.StatusUnauthorized, "未登录")
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// ModeratorRequired 只放行审核员与管理员，状态机内部仍会再次校验。
func (a *API) ModeratorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := a.authz.IsModerator(c.Request.Context(), currentUserID(c))
		if err != nil {
			a.respondServiceError(c, err)
			c.Abort()
			return
		}
		if !ok {
			respondError(c, http.StatusForbidden, "需要审核权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalUser 读取会话中的用户（如有），用于公开接口
func OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := sessionUserID(sessions.Default(c).Get(sessionUserKey)); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0
	}
	id, _ := value.(uint)
	return id
}

func sessionUserID(value interface{}) (uint, bool) {
	switch v := value.(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case uint64:
		return uint(v), v != 0
	default:
		return 0, false
	}
}
