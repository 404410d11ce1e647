package api

import (
	"net/http"

	"dishdash/pkg/models"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	user, err := s.svc.User().Register(c.Request.Context(), req.Email, req.Password, req.FullName, req.Phone)
	if err != nil {
		s.respondError(c, err)
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	user, err := s.svc.User().Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) handleRegisterPushToken(c *gin.Context) {
	var req struct {
		PushToken *string `json:"push_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if err := s.svc.User().RegisterPushToken(c.Request.Context(), currentUserID(c), req.PushToken); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSetEmailOptOut(c *gin.Context) {
	var req struct {
		EmailOptOut bool `json:"email_opt_out"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if err := s.svc.User().SetEmailOptOut(c.Request.Context(), currentUserID(c), req.EmailOptOut); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListNotifications(c *gin.Context) {
	limit, offset := pagination(c)
	notifications, err := s.stg.Notification().GetUserNotifications(c.Request.Context(), currentUserID(c), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

type driverApplyRequest struct {
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	VehicleMake   string `json:"vehicle_make"`
	VehicleModel  string `json:"vehicle_model"`
	LicensePlate  string `json:"license_plate"`
	LicenseNumber string `json:"license_number"`
}

func (s *Server) handleDriverApply(c *gin.Context) {
	var req driverApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if req.FullName == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "full_name and phone are required"})
		return
	}

	driver, err := s.stg.Driver().Create(c.Request.Context(), &models.Driver{
		UserID:        currentUserID(c),
		FullName:      req.FullName,
		Phone:         req.Phone,
		Status:        models.DriverStatusPending,
		VehicleMake:   req.VehicleMake,
		VehicleModel:  req.VehicleModel,
		LicensePlate:  req.LicensePlate,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, driver)
}
