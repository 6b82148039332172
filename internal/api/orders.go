package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"takeaway/internal/auth"
	"takeaway/internal/database"
	"takeaway/internal/models"
	"takeaway/internal/ordering"
)

type chatRequest struct {
	Message string `json:"message"`
}

// Chat runs one conversational ordering turn against the caller's
// draft order for this restaurant.
func (s *Server) Chat(c *gin.Context) {
	start := time.Now()

	entry, slug, ok := s.lookupMenu(c)
	if !ok {
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := database.GetOrCreateDraft(s.db, auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load draft order"})
		return
	}

	// One draft per user: moving to a different restaurant starts over.
	state := ordering.LoadState(order.StateJSON)
	if state.RestaurantSlug != "" && state.RestaurantSlug != slug {
		order.ItemsJSON = "[]"
		state = ordering.State{}
	}
	state.RestaurantSlug = slug
	order.StateJSON = ordering.DumpState(state)

	message := req.Message
	if s.rewrite != nil {
		rewritten, rerr := s.rewrite.Rewrite(c.Request.Context(), message, entry.Doc, order.StateJSON)
		switch {
		case rerr != nil:
			s.metrics.RewriterFallbacks.Inc()
			log.Printf("Rewriter fallback for %q: %v", slug, rerr)
		case rewritten != "":
			message = rewritten
		}
	}

	linesBefore := len(ordering.LoadCart(order.ItemsJSON))
	reply, itemsJSON, stateJSON := ordering.HandleIndexed(message, order.ItemsJSON, entry.Index, order.StateJSON)

	cart := ordering.LoadCart(itemsJSON)
	summary, _ := ordering.BuildSummary(cart, entry.Index.CurrencySymbol())

	order.ItemsJSON = itemsJSON
	order.StateJSON = stateJSON
	order.SummaryText = summary
	if err := s.db.Save(order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save draft order"})
		return
	}

	if delta := len(cart) - linesBefore; delta > 0 {
		s.metrics.ItemsResolved.WithLabelValues(slug).Add(float64(delta))
	}
	s.metrics.ObserveChat(slug, "ok", start)

	c.JSON(http.StatusOK, gin.H{
		"reply":           reply,
		"order_id":        order.ID,
		"summary":         summary,
		"items":           json.RawMessage(itemsJSON),
		"restaurant_slug": slug,
	})
}

// ResetOrder empties the caller's draft basket, keeping the draft
// scoped to its restaurant.
func (s *Server) ResetOrder(c *gin.Context) {
	order, ok := database.LatestDraft(s.db, auth.UserID(c))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	state := ordering.LoadState(order.StateJSON)
	order.ItemsJSON = "[]"
	order.StateJSON = ordering.DumpState(ordering.State{RestaurantSlug: state.RestaurantSlug})
	order.SummaryText = ""
	if err := s.db.Save(order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not reset order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "order_id": order.ID})
}

// ConfirmOrder freezes the caller's draft, notifies the restaurant and
// pushes the order onto the staff feed.
func (s *Server) ConfirmOrder(c *gin.Context) {
	order, ok := database.LatestDraft(s.db, auth.UserID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No draft order to confirm"})
		return
	}

	cart := ordering.LoadCart(order.ItemsJSON)
	if len(cart) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your basket is empty"})
		return
	}

	state := ordering.LoadState(order.StateJSON)
	slug := state.RestaurantSlug

	currency := "£"
	if entry, found := s.menus.Lookup(slug); found {
		currency = entry.Index.CurrencySymbol()
	}
	summary, total := ordering.BuildSummary(cart, currency)

	order.Status = models.OrderStatusConfirmed
	order.SummaryText = summary
	order.StateJSON = "{}"
	if err := s.db.Save(order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not confirm order"})
		return
	}

	s.metrics.OrdersConfirmed.WithLabelValues(slug).Inc()

	var user models.User
	if err := s.db.First(&user, order.UserID).Error; err != nil {
		log.Printf("Could not load user %d for order email: %v", order.UserID, err)
	}

	if s.emailer.Enabled() {
		subject := fmt.Sprintf("New Takeaway Order (Order #%d)", order.ID)
		body := fmt.Sprintf("Customer: %s\nEmail: %s\nPhone: %s\n\n%s\n", user.Name, user.Email, user.Phone, summary)
		go func() {
			if err := s.emailer.SendOrderConfirmation(subject, body); err != nil {
				log.Printf("Order email failed: %v", err)
			}
		}()
	}

	s.feeds.Broadcast(slug, gin.H{
		"order_id":        order.ID,
		"restaurant_slug": slug,
		"status":          order.Status,
		"summary":         summary,
		"total":           total,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true, "order_id": order.ID, "status": order.Status})
}

// GetBasket returns the caller's current draft basket.
func (s *Server) GetBasket(c *gin.Context) {
	order, ok := database.LatestDraft(s.db, auth.UserID(c))
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"items":   json.RawMessage("[]"),
			"summary": "Your basket is empty.",
			"total":   0,
		})
		return
	}

	state := ordering.LoadState(order.StateJSON)
	currency := "£"
	if entry, found := s.menus.Lookup(state.RestaurantSlug); found {
		currency = entry.Index.CurrencySymbol()
	}

	cart := ordering.LoadCart(order.ItemsJSON)
	summary, total := ordering.BuildSummary(cart, currency)

	c.JSON(http.StatusOK, gin.H{
		"order_id":        order.ID,
		"items":           json.RawMessage(ordering.DumpCart(cart)),
		"summary":         summary,
		"total":           total,
		"restaurant_slug": state.RestaurantSlug,
	})
}
