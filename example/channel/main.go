package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/edemonpore/caller"
)

func main() {
	cfg, err := caller.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Device.Driver = "sim"

	sink, batches := caller.NewChannelSink("fanout", 32)

	go fanoutWorker("ingest", batches)

	rt, err := caller.NewRuntime(cfg, caller.WithSink(sink))
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("acquisition exited: %v", err)
	}
}

func fanoutWorker(name string, batches <-chan []caller.Frame) {
	for batch := range batches {
		fmt.Printf("[%s] forwarding %d frames at %s\n", name, len(batch), time.Now().Format(time.RFC3339))
	}
}
