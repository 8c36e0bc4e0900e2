package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gitlab.com/dirk.krummacker/contact-manager/internal/client"
)

// Blocks until the service reports a reachable store, so that scripts can start the integration
// tests only after the service is up.
//
// Usage example on the command line:
// > go run main.go -url=http://localhost:5000 -interval=5s -timeout=2m
func main() {
	url := flag.String("url", "http://localhost:5000", "the base URL of the contacts service")
	interval := flag.Duration("interval", 5*time.Second, "the pause between two attempts")
	timeout := flag.Duration("timeout", 0, "give up after this long, 0 waits forever")
	flag.Parse()

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	api := client.New(*url, nil)
	var totalWaitTime time.Duration
	for {
		err := api.Health(ctx)
		if err == nil {
			fmt.Println("service is available")
			return
		}
		fmt.Println(err)
		select {
		case <-ctx.Done():
			fmt.Println("giving up after", totalWaitTime)
			os.Exit(1)
		case <-time.After(*interval):
		}
		totalWaitTime += *interval
		fmt.Printf("Waiting %s\n", totalWaitTime)
	}
}
