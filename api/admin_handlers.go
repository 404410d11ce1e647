package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"dishdash/pkg/models"
	"dishdash/service"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleAdminListOrders(c *gin.Context) {
	limit, offset := pagination(c)
	orders, err := s.svc.Order().ListAll(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type adminCreateOrderRequest struct {
	createOrderRequest
	UserID int64 `json:"user_id"`
}

// handleAdminCreateOrder is the phone-order path: staff enters the order
// on the customer's behalf and it starts out already confirmed.
func (s *Server) handleAdminCreateOrder(c *gin.Context) {
	var req adminCreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	userID := req.UserID
	if userID == 0 {
		userID = currentUserID(c)
	}

	order, err := s.svc.Order().Create(c.Request.Context(), &service.CreateOrderInput{
		UserID:          userID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Type:            req.Type,
		DeliveryAddress: req.DeliveryAddress,
		Items:           req.Items,
		Tip:             req.Tip,
		PromoCode:       req.PromoCode,
		DistanceMiles:   req.DistanceMiles,
		PaymentMethod:   req.PaymentMethod,
		AdminCreated:    true,
		CreatedBy:       "admin:" + strconv.FormatInt(currentUserID(c), 10),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) handleAdminUpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	order, err := s.svc.Order().ChangeStatus(c.Request.Context(), id, req.Status, "admin:"+strconv.FormatInt(currentUserID(c), 10))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) handleAdminAssignDriver(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req struct {
		DriverID int64 `json:"driver_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	order, err := s.svc.Order().AssignDriver(c.Request.Context(), id, req.DriverID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// handleAdminSetPaymentStatus covers the cash path: staff marks the
// order paid when the customer settles at the counter or door.
func (s *Server) handleAdminSetPaymentStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if req.Status != models.PaymentStatusPending && req.Status != models.PaymentStatusPaid && req.Status != models.PaymentStatusFailed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, paid or failed"})
		return
	}
	if err := s.stg.Order().SetPaymentStatus(c.Request.Context(), id, req.Status); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminBulkDelete(c *gin.Context) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}

	deleted, err := s.svc.Order().BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// handleAdminStreamOrders pushes live order events to the dashboard as
// server-sent events until the client disconnects.
func (s *Server) handleAdminStreamOrders(c *gin.Context) {
	eventsCh, cancel, err := s.events.Subscribe(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-eventsCh:
			if !ok {
				return false
			}
			c.SSEvent("order", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) handleAdminStats(c *gin.Context) {
	stats, err := s.svc.Order().Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleAdminListMeals(c *gin.Context) {
	meals, err := s.stg.Meal().GetAll(c.Request.Context(), false)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if meals == nil {
		meals = []*models.Meal{}
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

type mealRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Available   bool    `json:"available"`
	ImageURL    *string `json:"image_url,omitempty"`
}

func (s *Server) handleAdminCreateMeal(c *gin.Context) {
	var req mealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if req.Name == "" || req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and a positive price are required"})
		return
	}

	meal, err := s.stg.Meal().Create(c.Request.Context(), &models.Meal{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Available:   req.Available,
		Active:      true,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

func (s *Server) handleAdminUpdateMeal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return
	}
	var req mealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if req.Name == "" || req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and a positive price are required"})
		return
	}

	meal, err := s.stg.Meal().Update(c.Request.Context(), &models.Meal{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Available:   req.Available,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (s *Server) handleAdminSetMealAvailability(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return
	}
	var req struct {
		Available bool `json:"available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if err := s.stg.Meal().SetAvailability(c.Request.Context(), id, req.Available); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminDeactivateMeal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return
	}
	if err := s.stg.Meal().Deactivate(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminListPromos(c *gin.Context) {
	promos, err := s.svc.Promotion().GetAll(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if promos == nil {
		promos = []*models.Promotion{}
	}
	c.JSON(http.StatusOK, gin.H{"promotions": promos})
}

type promoRequest struct {
	Code         string    `json:"code"`
	DiscountType string    `json:"discount_type"`
	Value        float64   `json:"value"`
	MinOrder     *float64  `json:"min_order,omitempty"`
	MaxDiscount  *float64  `json:"max_discount,omitempty"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidUntil   time.Time `json:"valid_until"`
	UsageLimit   *int      `json:"usage_limit,omitempty"`
	Active       bool      `json:"active"`
}

func (r *promoRequest) validate() string {
	if r.Code == "" {
		return "code is required"
	}
	if r.DiscountType != models.DiscountTypePercentage && r.DiscountType != models.DiscountTypeFixed {
		return "discount_type must be percentage or fixed"
	}
	if r.Value <= 0 {
		return "value must be positive"
	}
	if r.DiscountType == models.DiscountTypePercentage && r.Value > 100 {
		return "percentage value cannot exceed 100"
	}
	if !r.ValidUntil.After(r.ValidFrom) {
		return "valid_until must be after valid_from"
	}
	return ""
}

func (s *Server) handleAdminCreatePromo(c *gin.Context) {
	var req promoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	promo, err := s.svc.Promotion().Create(c.Request.Context(), &models.Promotion{
		Code:         req.Code,
		DiscountType: req.DiscountType,
		Value:        req.Value,
		MinOrder:     req.MinOrder,
		MaxDiscount:  req.MaxDiscount,
		ValidFrom:    req.ValidFrom,
		ValidUntil:   req.ValidUntil,
		UsageLimit:   req.UsageLimit,
		Active:       req.Active,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, promo)
}

func (s *Server) handleAdminUpdatePromo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion id"})
		return
	}
	var req promoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	promo, err := s.svc.Promotion().Update(c.Request.Context(), &models.Promotion{
		ID:           id,
		Code:         req.Code,
		DiscountType: req.DiscountType,
		Value:        req.Value,
		MinOrder:     req.MinOrder,
		MaxDiscount:  req.MaxDiscount,
		ValidFrom:    req.ValidFrom,
		ValidUntil:   req.ValidUntil,
		UsageLimit:   req.UsageLimit,
		Active:       req.Active,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, promo)
}

func (s *Server) handleAdminDeletePromo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion id"})
		return
	}
	if err := s.svc.Promotion().Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminListDrivers(c *gin.Context) {
	drivers, err := s.stg.Driver().GetAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if drivers == nil {
		drivers = []*models.Driver{}
	}
	c.JSON(http.StatusOK, gin.H{"drivers": drivers})
}

// handleAdminUpdateDriverStatus approves or rejects a driver
// application. Approval also grants the driver role.
func (s *Server) handleAdminUpdateDriverStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid driver id"})
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if req.Status != models.DriverStatusApproved && req.Status != models.DriverStatusRejected && req.Status != models.DriverStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, approved or rejected"})
		return
	}

	driver, err := s.stg.Driver().GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.stg.Driver().UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		s.respondError(c, err)
		return
	}
	if req.Status == models.DriverStatusApproved {
		if err := s.stg.User().UpdateRole(c.Request.Context(), driver.UserID, models.RoleDriver); err != nil {
			s.respondError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminListUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, err := s.stg.User().GetAll(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
