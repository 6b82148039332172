package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"

	"takeaway/internal/auth"
	"takeaway/internal/menustore"
	"takeaway/internal/monitoring"
	"takeaway/internal/notify"
	"takeaway/internal/rewriter"
)

// Server represents the main API handler for the ordering service
type Server struct {
	Router  *gin.Engine
	db      *gorm.DB
	menus   *menustore.Store
	auth    *auth.Service
	rewrite *rewriter.Rewriter
	metrics *monitoring.Metrics
	emailer *notify.Emailer
	feeds   *FeedHub
}

// NewServer creates a new API server instance
func NewServer(db *gorm.DB, menus *menustore.Store, authSvc *auth.Service, rewrite *rewriter.Rewriter, metrics *monitoring.Metrics, emailer *notify.Emailer) *Server {
	router := gin.Default()

	s := &Server{
		Router:  router,
		db:      db,
		menus:   menus,
		auth:    authSvc,
		rewrite: rewrite,
		metrics: metrics,
		emailer: emailer,
		feeds:   NewFeedHub(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Takeaway API is running"})
	})

	authRoutes := s.Router.Group("/auth")
	{
		authRoutes.POST("/signup", s.Signup)
		authRoutes.POST("/login", s.Login)
	}

	// Per-restaurant surface; the slug selects the menu.
	restaurant := s.Router.Group("/r/:slug")
	{
		restaurant.GET("/health", s.RestaurantHealth)
		restaurant.GET("/menu", s.GetMenu)
		restaurant.POST("/chat", s.auth.UserOrGuest(s.db), s.Chat)
		restaurant.GET("/feed", s.Feed)
	}

	orders := s.Router.Group("/order", s.auth.RequireUser())
	{
		orders.POST("/reset", s.ResetOrder)
		orders.POST("/confirm", s.ConfirmOrder)
		orders.GET("/basket", s.GetBasket)
	}
}

// resolveSlug validates the slug in the URL against the menu store.
func (s *Server) resolveSlug(c *gin.Context) (string, bool) {
	slug := menustore.NormalizeSlug(c.Param("slug"))
	if _, ok := s.menus.Lookup(slug); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return "", false
	}
	return slug, true
}

// lookupMenu resolves the slug to its loaded menu entry.
func (s *Server) lookupMenu(c *gin.Context) (*menustore.Entry, string, bool) {
	slug := menustore.NormalizeSlug(c.Param("slug"))
	entry, ok := s.menus.Lookup(slug)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return nil, "", false
	}
	return entry, slug, true
}

// RestaurantHealth reports whether a restaurant's menu is loadable.
func (s *Server) RestaurantHealth(c *gin.Context) {
	slug, ok := s.resolveSlug(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "restaurant": slug})
}

// GetMenu returns the full menu document for a restaurant.
func (s *Server) GetMenu(c *gin.Context) {
	entry, _, ok := s.lookupMenu(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, entry.Doc)
}
