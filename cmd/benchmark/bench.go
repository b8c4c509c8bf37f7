// Command benchmark load-tests POST /v1/generate in-process against a mock
// OpenAI-compatible upstream.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nulzo/epoch/internal/config"
	"github.com/nulzo/epoch/internal/gateway"
	"github.com/nulzo/epoch/internal/journal"
	"github.com/nulzo/epoch/internal/llm/factory"
	"github.com/nulzo/epoch/internal/server"
	"github.com/nulzo/epoch/internal/store/sqlite"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"
)

var completion = []byte(`{"id":"bench-123","choices":[{"message":{"role":"assistant","content":"{\"ok\": true}"}}]}`)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	upstreamDelay := flag.Duration("upstream-delay", 10*time.Millisecond, "Simulated model latency")
	rejectFormat := flag.Bool("reject-format", false, "Make the upstream reject response_format so every call takes the fallback path")
	journalDSN := flag.String("journal", "", "sqlite DSN for the generation journal, empty to disable")
	flag.Parse()

	var upstreamCalls atomic.Int64
	upstream := httptest.NewServer(mockUpstream(*upstreamDelay, *rejectFormat, &upstreamCalls))
	defer upstream.Close()

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "production"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1e6, Burst: 1e6},
		LLM:       config.LLMConfig{Provider: string(config.ProviderLMProxy), Timeout: 30 * time.Second},
		LMProxy:   config.EndpointSettings{BaseURL: upstream.URL + "/v1", Model: "lmproxy/bench"},
	}

	logger := zap.NewNop()
	f := factory.New(config.NewResolverFrom(cfg), factory.WithHTTPClient(&http.Client{
		Timeout:   30 * time.Second,
		Transport: &http.Transport{MaxIdleConnsPerHost: 256},
	}))

	var ingestor journal.Ingestor = journal.Discard{}
	svc := gateway.NewService(logger, f, nil, ingestor, cfg.LLM.Timeout)
	if *journalDSN != "" {
		repo, err := sqlite.NewSQLiteStorage(*journalDSN, logger)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		defer repo.Close()
		ingestor = journal.NewIngestor(logger, repo, journal.WithBufferSize(*rate*int(duration.Seconds()+1)))
		ingestor.Start(context.Background())
		defer ingestor.Stop()
		svc = gateway.NewService(logger, f, repo, ingestor, cfg.LLM.Timeout)
	}

	app := httptest.NewServer(server.New(cfg, logger, svc).Handler())
	defer app.Close()

	body := `{"prompt":"Hello","preset":"log"}`
	targeter := vegeta.NewStaticTargeter(vegeta.Target{
		Method: http.MethodPost,
		URL:    app.URL + "/v1/generate",
		Body:   []byte(body),
		Header: http.Header{"Content-Type": []string{"application/json"}},
	})

	fmt.Printf("Running benchmark: %s duration, %d req/s (reject-format=%v)\n", *duration, *rate, *rejectFormat)

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Printf("Upstream calls:  %d for %d requests\n", upstreamCalls.Load(), metrics.Requests)
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")
		seen := make(map[string]bool)
		for _, msg := range metrics.Errors {
			if !seen[msg] && len(seen) < 5 {
				fmt.Println(msg)
				seen[msg] = true
			}
		}
	}
}

func mockUpstream(delay time.Duration, rejectFormat bool, calls *atomic.Int64) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&req)

		if _, ok := req["response_format"]; ok && rejectFormat {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported parameter: response_format"}}`))
			return
		}

		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(completion)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.TrimPrefix(r.URL.Path, "/")+" not mocked", http.StatusNotFound)
	})
	return mux
}
