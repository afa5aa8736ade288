package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/pkg/worker"
	"github.com/valyala/fasthttp"
)

// Seeds the API with already-due messages so a running scheduler has work.
// The sweep throughput shows up in the scheduler's delivery metrics.

type LoadTestConfig struct {
	BaseURL           string
	RequestsPerSecond int
	DurationSeconds   int
	ConcurrentWorkers int
	JWTSecret         string
	UserID            uuid.UUID
}

type Stats struct {
	successCount  atomic.Int64
	errorCount    atomic.Int64
	responseTimes []float64
	mu            sync.Mutex
}

func (s *Stats) addResponseTime(d time.Duration) {
	s.mu.Lock()
	s.responseTimes = append(s.responseTimes, d.Seconds())
	s.mu.Unlock()
}

func (s *Stats) sortedResponseTimes() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]float64(nil), s.responseTimes...)
	sort.Float64s(out)
	return out
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	i := int(float64(len(sorted)) * p)
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}

type client struct {
	http  *fasthttp.Client
	base  string
	token string
}

func (c *client) post(path string, body []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.SetBody(body)

	if err := c.http.DoTimeout(req, resp, 10*time.Second); err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}

func mintToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}).SignedString([]byte(secret))
}

func createChild(c *client) (string, error) {
	status, body, err := c.post("/api/children", []byte(`{"name":"Load Test","birth_date":"2018-01-01"}`))
	if err != nil {
		return "", err
	}
	if status != fasthttp.StatusCreated {
		return "", fmt.Errorf("create child: status %d: %s", status, body)
	}
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	return out.Data.ID, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func main() {
	config := LoadTestConfig{
		BaseURL:           getEnvOrDefault("TARGET_URL", "http://localhost:8080"),
		RequestsPerSecond: getEnvIntOrDefault("REQUESTS_PER_SECOND", 200),
		DurationSeconds:   getEnvIntOrDefault("DURATION_SECONDS", 10),
		ConcurrentWorkers: getEnvIntOrDefault("CONCURRENT_WORKERS", 50),
		JWTSecret:         getEnvOrDefault("AUTH_JWT_SECRET", ""),
		UserID:            uuid.New(),
	}
	if config.JWTSecret == "" {
		fmt.Println("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	token, err := mintToken(config.JWTSecret, config.UserID, time.Hour)
	if err != nil {
		panic(err)
	}
	c := &client{
		http:  &fasthttp.Client{MaxConnsPerHost: config.ConcurrentWorkers},
		base:  strings.TrimRight(config.BaseURL, "/"),
		token: token,
	}

	childID, err := createChild(c)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	payload, err := json.Marshal(map[string]string{
		"child_id":      childID,
		"title":         "Load test",
		"content":       "Delivered by the next sweep",
		"type":          "text",
		"delivery_date": time.Now().Add(-time.Minute).UTC().Format(time.RFC3339),
	})
	if err != nil {
		panic(err)
	}

	total := config.RequestsPerSecond * config.DurationSeconds
	fmt.Println("Starting load test...")
	fmt.Printf("Target: %s\n", c.base)
	fmt.Printf("Total requests: %d at %d rps with %d workers\n", total, config.RequestsPerSecond, config.ConcurrentWorkers)
	fmt.Println(strings.Repeat("-", 50))

	stats := &Stats{}
	wm := worker.NewWorkerManager(config.RequestsPerSecond, config.ConcurrentWorkers)
	wm.SetWorker(func(ctx context.Context, _ int, _ interface{}) {
		start := time.Now()
		status, _, err := c.post("/api/messages", payload)
		stats.addResponseTime(time.Since(start))
		if err != nil || status != fasthttp.StatusCreated {
			stats.errorCount.Add(1)
			return
		}
		stats.successCount.Add(1)
	})

	ctx := context.Background()
	wm.Start(ctx)

	startTime := time.Now()
	ticker := time.NewTicker(time.Second)
	for i := 0; i < config.DurationSeconds; i++ {
		for j := 0; j < config.RequestsPerSecond; j++ {
			if err := wm.Enqueue(ctx, struct{}{}); err != nil {
				break
			}
		}
		<-ticker.C
	}
	ticker.Stop()
	wm.Wait()
	elapsed := time.Since(startTime)

	times := stats.sortedResponseTimes()
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Duration:   %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Successful: %d\n", stats.successCount.Load())
	fmt.Printf("Failed:     %d\n", stats.errorCount.Load())
	fmt.Printf("Actual RPS: %.1f\n", float64(len(times))/elapsed.Seconds())
	fmt.Printf("p50 %.3fs  p95 %.3fs  p99 %.3fs\n", percentile(times, 0.50), percentile(times, 0.95), percentile(times, 0.99))
	fmt.Printf("Child %s now has %d due messages\n", childID, stats.successCount.Load())
}
