package service

import (
	"dishdash/config"
	"dishdash/pkg/events"
	"dishdash/pkg/logger"
	"dishdash/pkg/queue"
	"dishdash/storage"
)

type IServiceManager interface {
	User() UserService
	Order() OrderService
	Promotion() PromotionService
	Payment() PaymentService
}

type service struct {
	userService  UserService
	orderService OrderService
	promoService PromotionService
	payService   PaymentService
}

func New(stg storage.IStorage, q queue.IQueue, ev events.IPublisher, cfg config.Config, log logger.ILogger) IServiceManager {
	promoService := NewPromotionService(stg, log)
	return &service{
		userService:  NewUserService(stg, log),
		orderService: NewOrderService(stg, q, ev, promoService, cfg, log),
		promoService: promoService,
		payService:   NewPaymentService(cfg, log),
	}
}

func (s *service) User() UserService           { return s.userService }
func (s *service) Order() OrderService         { return s.orderService }
func (s *service) Promotion() PromotionService { return s.promoService }
func (s *service) Payment() PaymentService     { return s.payService }
