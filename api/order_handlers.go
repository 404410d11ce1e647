package api

import (
	"net/http"
	"strconv"

	"dishdash/pkg/models"
	"dishdash/pkg/pricing"
	"dishdash/service"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	CustomerName    string                    `json:"customer_name"`
	CustomerEmail   string                    `json:"customer_email"`
	CustomerPhone   string                    `json:"customer_phone"`
	Type            string                    `json:"type"`
	DeliveryAddress *string                   `json:"delivery_address,omitempty"`
	Items           []service.CreateOrderItem `json:"items"`
	Tip             float64                   `json:"tip"`
	PromoCode       string                    `json:"promo_code,omitempty"`
	DistanceMiles   *float64                  `json:"distance_miles,omitempty"`
	PaymentMethod   string                    `json:"payment_method"`
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	order, err := s.svc.Order().Create(c.Request.Context(), &service.CreateOrderInput{
		UserID:          currentUserID(c),
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
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) handleListMyOrders(c *gin.Context) {
	limit, offset := pagination(c)
	orders, err := s.svc.Order().ListUserOrders(c.Request.Context(), currentUserID(c), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) handleGetMyOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := s.svc.Order().GetForUser(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// handleTrackOrder looks an order up by its human-readable number.
func (s *Server) handleTrackOrder(c *gin.Context) {
	order, err := s.stg.Order().GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if order.UserID != currentUserID(c) && c.GetString("role") != models.RoleAdmin {
		s.respondError(c, service.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) handleCreatePaymentIntent(c *gin.Context) {
	var req struct {
		OrderID int64 `json:"order_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	order, err := s.svc.Order().GetForUser(c.Request.Context(), currentUserID(c), req.OrderID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if order.PaymentMethod != models.PaymentMethodCard {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order is not paid by card"})
		return
	}

	intent, err := s.svc.Payment().CreateIntent(c.Request.Context(), order.Total, order.Number, order.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

func (s *Server) handleListMeals(c *gin.Context) {
	meals, err := s.stg.Meal().GetAll(c.Request.Context(), true)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if meals == nil {
		meals = []*models.Meal{}
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

type validatePromoRequest struct {
	Code string `json:"code"`
	// OrderAmount (subtotal plus delivery fee) gates the minimum-order
	// check; Subtotal is the percentage-discount base, same as the
	// submission-time quote.
	OrderAmount float64 `json:"order_amount"`
	Subtotal    float64 `json:"subtotal"`
}

func (s *Server) handleValidatePromo(c *gin.Context) {
	var req validatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	promo, err := s.svc.Promotion().Validate(c.Request.Context(), req.Code, req.OrderAmount)
	if err != nil {
		s.respondError(c, err)
		return
	}

	base := req.Subtotal
	if base == 0 {
		base = req.OrderAmount
	}
	c.JSON(http.StatusOK, gin.H{
		"code":     promo.Code,
		"discount": pricing.PromoDiscount(promo, base),
	})
}

func (s *Server) handleDriverOrders(c *gin.Context) {
	driver, err := s.stg.Driver().GetByUserID(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	orders, err := s.stg.Order().GetDriverOrders(c.Request.Context(), driver.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) handleDriverUpdateStatus(c *gin.Context) {
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

	driver, err := s.stg.Driver().GetByUserID(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	order, err := s.svc.Order().GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if order.DriverID == nil || *order.DriverID != driver.ID {
		s.respondError(c, service.ErrForbidden)
		return
	}

	order, err = s.svc.Order().ChangeStatus(c.Request.Context(), id, req.Status, "driver:"+strconv.FormatInt(driver.ID, 10))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
