package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"takeaway/internal/models"
)

// Context key the middlewares store the resolved user ID under.
const ContextUserID = "user_id"

const (
	guestCookieName   = "guest_id"
	guestCookieMaxAge = 60 * 60 * 24 * 30
)

// UserID reads the resolved user ID off the request context.
func UserID(c *gin.Context) uint {
	id, _ := c.Get(ContextUserID)
	uid, _ := id.(uint)
	return uid
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// RequireUser only admits requests with a valid bearer token.
func (s *Service) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Bearer token"})
			return
		}
		uid, err := s.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(ContextUserID, uid)
		c.Next()
	}
}

// UserOrGuest admits authenticated users and falls back to a
// cookie-backed guest identity, creating the synthetic guest account on
// first contact. QR-code walk-ins order without signing up.
func (s *Service) UserOrGuest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if uid, err := s.ParseToken(token); err == nil {
				c.Set(ContextUserID, uid)
				c.Next()
				return
			}
		}

		guestID, err := c.Cookie(guestCookieName)
		if err != nil || guestID == "" {
			guestID = uuid.New().String()
		}

		user, err := guestUser(db, guestID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not create guest session"})
			return
		}

		// refresh the cookie on every visit
		c.SetCookie(guestCookieName, guestID, guestCookieMaxAge, "/", "", false, true)
		c.Set(ContextUserID, user.ID)
		c.Next()
	}
}

func guestUser(db *gorm.DB, guestID string) (*models.User, error) {
	email := "guest+" + guestID + "@demo.local"

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err == nil {
		return &user, nil
	}

	// random password hash; guests never log in with it
	hash, err := HashPassword(uuid.New().String())
	if err != nil {
		return nil, err
	}
	user = models.User{
		Name:         "Guest",
		Email:        email,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
