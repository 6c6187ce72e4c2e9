package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/edemonpore/caller"
)

func main() {
	cfg, err := caller.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Device.Driver = "sim"

	rt, err := caller.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("acquisition exited: %v", err)
	}
}
