package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
)

var (
	healthURL  string
	healthWait time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe a running server's health endpoint",
	Long:  "Probe GET /api/health on a running server. With --wait, retry with exponential backoff until the server is healthy or the wait elapses.",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&healthURL, "url", "http://localhost:8080", "Base URL of the server")
	healthCmd.Flags().DurationVar(&healthWait, "wait", 0, "Keep retrying for up to this long")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	status, err := pollHealth(cmd.Context(), http.DefaultClient, healthURL, healthWait)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", strings.TrimRight(healthURL, "/"), status) //nolint:errcheck
	return nil
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// pollHealth polls baseURL/api/health until it reports ok. A zero wait checks once.
func pollHealth(ctx context.Context, client *http.Client, baseURL string, wait time.Duration) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	url := strings.TrimRight(baseURL, "/") + "/api/health"

	var status string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health check returned %d", resp.StatusCode)
		}
		var body healthResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("invalid health response: %w", err))
		}
		if body.Status != "ok" {
			return fmt.Errorf("server reported status %q", body.Status)
		}
		status = body.Status
		return nil
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if wait > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = 100 * time.Millisecond
		exp.MaxElapsedTime = wait
		policy = exp
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return "", fmt.Errorf("server not healthy: %w", err)
	}
	return status, nil
}
