package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/mfatlas/pkg/config"
	"github.com/wonny/mfatlas/pkg/httputil"
	"github.com/wonny/mfatlas/pkg/logger"
)

// Example_getJSON demonstrates decoding a provider JSON response
func Example_getJSON() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	// Create HTTP client (SSOT)
	client := httputil.New(cfg, log)

	var schemes []struct {
		SchemeCode int    `json:"schemeCode"`
		SchemeName string `json:"schemeName"`
	}
	if err := client.GetJSON(context.Background(), "https://api.mfapi.in/mf", &schemes); err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}

	fmt.Printf("Schemes: %d\n", len(schemes))
}

// Example_withRetry demonstrates retry and throttling configuration
func Example_withRetry() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	// 5 retries, 2s initial delay, 2 requests/second
	client := httputil.New(cfg, log).
		WithRetry(5, 2*time.Second).
		WithLocalLimit(2)

	body, err := client.GetBody(context.Background(), "https://www.amfiindia.com/spages/NAVAll.txt")
	if err != nil {
		fmt.Printf("Request failed after retries: %v\n", err)
		return
	}

	fmt.Printf("Downloaded %d bytes\n", len(body))
}

// Example_disableRetry demonstrates disabling retry
func Example_disableRetry() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := httputil.NewWithTimeout(cfg, log, 5*time.Second).DisableRetry()

	resp, err := client.Get(context.Background(), "https://api.kuvera.in/mf/api/v4/fund_schemes/list.json")
	if err != nil {
		fmt.Printf("Request failed (no retry): %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request succeeded on first attempt")
}
