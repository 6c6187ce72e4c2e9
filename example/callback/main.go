package main

import (
	"context"
	"fmt"
	"log"

	"github.com/edemonpore/caller"
)

func main() {
	cfg, err := caller.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Device.Driver = "sim"

	sink := caller.NewCallbackSink("stdout", func(batch []caller.Frame) error {
		for i, frame := range batch {
			fmt.Printf("frame %d: %v\n", i, frame)
		}
		return nil
	})

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
