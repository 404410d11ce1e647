package main

import (
	"context"
	"fmt"

	"dishdash/config"
	"dishdash/pkg/logger"
	"dishdash/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	pg, err := postgres.New(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	defer pg.Close()

	// Meals and promotions are system data and survive the reset;
	// CASCADE cleans up the rows that reference users and orders.
	_, err = pg.GetPool().Exec(context.Background(),
		"TRUNCATE TABLE users, orders, drivers, notifications, order_sequences CASCADE")
	if err != nil {
		log.Error(fmt.Sprintf("failed to truncate tables: %v", err))
	} else {
		log.Info("truncated users, orders, drivers, notifications and order_sequences")
	}
}
