// Package main provides a container HEALTHCHECK probe for the liveness
// endpoint.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/esi/esi-bot/internal/config"
)

func main() {
	if err := probe(livezURL(os.Getenv(config.EnvPort))); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func livezURL(port string) string {
	if port == "" {
		port = "10000"
	}
	return fmt.Sprintf("http://localhost:%s/livez", port)
}

func probe(url string) error {
	client := &http.Client{Timeout: 8 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: %s", resp.Status)
	}
	return nil
}
