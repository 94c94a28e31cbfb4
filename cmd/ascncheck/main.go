package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/park285/ascn-convert/internal/httpapi"
)

// ascncheck pings a running ascnd and optionally round-trips a sample file.
func main() {
	baseURL := os.Getenv("ASCND_BASE_URL")
	sample := os.Getenv("ASCND_SAMPLE")
	requestID := os.Getenv("ASCND_REQUEST_ID")
	attempts := 3
	if v := os.Getenv("ASCND_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Fatalf("ASCND_ATTEMPTS must be a positive integer, got %q", v)
		}
		attempts = n
	}

	if baseURL == "" {
		log.Fatal("ASCND_BASE_URL is required")
	}

	headers := func() map[string]string {
		m := map[string]string{}
		if requestID != "" {
			m["X-Request-Id"] = requestID
		}
		return m
	}

	client := httpapi.NewClient(baseURL,
		httpapi.WithHeaderProvider(headers),
		httpapi.WithTimeout(8*time.Second),
		httpapi.WithRetry(attempts),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	log.Println("/healthz ok")

	if sample == "" {
		log.Println("ASCND_SAMPLE not set; skipping round trip")
		return
	}
	data, err := os.ReadFile(sample)
	if err != nil {
		log.Fatalf("read sample: %v", err)
	}

	if strings.EqualFold(filepath.Ext(sample), ".ascn") {
		pgnResp, err := client.ConvertASCN(ctx, data)
		if err != nil {
			log.Fatalf("convert ascn: %v", err)
		}
		log.Printf("ascn->pgn ok: plies=%d result=%s", pgnResp.Summary.Plies, pgnResp.Summary.Result)
		data = pgnResp.Body
	}

	ascnResp, err := client.ConvertPGN(ctx, data)
	if err != nil {
		log.Fatalf("convert pgn: %v", err)
	}
	log.Printf("pgn->ascn ok: plies=%d result=%s bytes=%d cached=%t",
		ascnResp.Summary.Plies, ascnResp.Summary.Result, len(ascnResp.Body), ascnResp.Summary.Cached)

	back, err := client.ConvertASCN(ctx, ascnResp.Body)
	if err != nil {
		log.Fatalf("convert ascn back: %v", err)
	}
	if back.Summary.Plies != ascnResp.Summary.Plies {
		log.Fatalf("round trip mismatch: %d plies became %d", ascnResp.Summary.Plies, back.Summary.Plies)
	}
	log.Printf("round trip ok: plies=%d", back.Summary.Plies)
}
