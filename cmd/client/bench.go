package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/dirk.krummacker/contact-manager/internal/client"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
)

var benchContact = model.Draft{
	FirstName: "Marcus",
	LastName:  "Antonius",
	Email:     "marcus.antonius@example.com",
	PhoneNo:   "3999777555",
	Company:   "SPQR",
	JobTitle:  "Triumvir",
}

func newBenchCmd(a *app) *cobra.Command {
	var sizes []int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure the average duration of POST, PUT, GET and DELETE requests",
		Long: "Creates, updates, reads and deletes the given numbers of contacts and prints the " +
			"average duration of each request type in microseconds. The contacts are removed again.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), cmd.OutOrStdout(), a.api, sizes)
		},
	}
	cmd.Flags().IntSliceVar(&sizes, "sizes", []int{100, 500, 1000}, "numbers of contacts per round")
	return cmd
}

// runBench prints one row per size with the average request durations.
func runBench(ctx context.Context, w io.Writer, api *client.Client, sizes []int) error {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Elements      POST       PUT       GET    DELETE ")
	fmt.Fprintln(w, "---------------------------------------------------")
	for _, loops := range sizes {
		if loops <= 0 {
			continue
		}
		fmt.Fprintf(w, "%10d", loops)
		if err := benchRound(ctx, w, api, loops); err != nil {
			fmt.Fprintln(w)
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

// benchRound creates, updates, reads and deletes loops contacts. When a request fails, the
// contacts created so far are deleted before the error is returned.
func benchRound(ctx context.Context, w io.Writer, api *client.Client, loops int) (err error) {
	ids := make([]string, 0, loops)
	defer func() {
		if err != nil {
			removeAll(context.WithoutCancel(ctx), api, ids)
		}
	}()

	// POST requests
	var duration time.Duration
	for i := 0; i < loops; i++ {
		before := time.Now()
		contact, err := api.Create(ctx, benchContact)
		duration += time.Since(before)
		if err != nil {
			return err
		}
		ids = append(ids, contact.ID)
	}
	fmt.Fprintf(w, "%10d", average(duration, loops))

	// PUT requests
	err = callInLoop(w, ids, func(id string) error {
		_, err := api.Update(ctx, id, benchContact)
		return err
	})
	if err != nil {
		return err
	}

	// GET requests
	err = callInLoop(w, ids, func(id string) error {
		_, err := api.Get(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	// DELETE requests
	return callInLoop(w, ids, func(id string) error {
		_, err := api.Delete(ctx, id)
		return err
	})
}

// removeAll deletes the contacts with the given ids and ignores failures, including those of
// contacts that are already gone.
func removeAll(ctx context.Context, api *client.Client, ids []string) {
	for _, id := range ids {
		_, _ = api.Delete(ctx, id)
	}
}

// callInLoop calls f for every id in random order and prints the average duration.
func callInLoop(w io.Writer, ids []string, f func(id string) error) error {
	shuffled := append([]string(nil), ids...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration time.Duration
	for _, id := range shuffled {
		before := time.Now()
		if err := f(id); err != nil {
			return err
		}
		duration += time.Since(before)
	}
	fmt.Fprintf(w, "%10d", average(duration, len(ids)))
	return nil
}

func average(total time.Duration, n int) int64 {
	return total.Microseconds() / int64(n)
}
