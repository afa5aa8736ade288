package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DeliveryEvent is the body the scheduler's webhook channel posts.
type DeliveryEvent struct {
	MessageID    string    `json:"message_id" binding:"required"`
	UserID       string    `json:"user_id" binding:"required"`
	ChildID      string    `json:"child_id" binding:"required"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Type         string    `json:"type" binding:"required"`
	MediaURL     *string   `json:"media_url,omitempty"`
	DeliveryDate time.Time `json:"delivery_date"`
	DeliveredAt  time.Time `json:"delivered_at"`
}

type received struct {
	DeliveryEvent
	ReceivedAt time.Time `json:"received_at"`
	Attempts   int       `json:"attempts"`
}

// Inbox is a stand-in for the push provider that would reach the child's
// device. It keeps the most recent deliveries in memory and can be told to
// fail a share of requests so retries on the sender side can be observed.
type Inbox struct {
	mu       sync.Mutex
	byID     map[string]*received
	order    []string
	capacity int

	failureRate float64
	rng         *rand.Rand
}

func NewInbox(capacity int, failureRate float64) *Inbox {
	return &Inbox{
		byID:        make(map[string]*received),
		capacity:    capacity,
		failureRate: failureRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (in *Inbox) shouldFail() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.rng.Float64() < in.failureRate
}

// Accept stores ev and reports whether it was seen before.
func (in *Inbox) Accept(ev DeliveryEvent) (duplicate bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if r, ok := in.byID[ev.MessageID]; ok {
		r.Attempts++
		return true
	}

	in.byID[ev.MessageID] = &received{DeliveryEvent: ev, ReceivedAt: time.Now(), Attempts: 1}
	in.order = append(in.order, ev.MessageID)
	if len(in.order) > in.capacity {
		delete(in.byID, in.order[0])
		in.order = in.order[1:]
	}
	return false
}

func (in *Inbox) List(limit int) []received {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]received, 0, limit)
	for i := len(in.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *in.byID[in.order[i]])
	}
	return out
}

func (in *Inbox) Get(id string) (received, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	r, ok := in.byID[id]
	if !ok {
		return received{}, false
	}
	return *r, true
}

func (in *Inbox) SetFailureRate(rate float64) {
	in.mu.Lock()
	in.failureRate = rate
	in.mu.Unlock()
}

func (in *Inbox) FailureRate() float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.failureRate
}

type Handler struct {
	inbox *Inbox
}

func (h *Handler) Receive(c *gin.Context) {
	var ev DeliveryEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery", "details": err.Error()})
		return
	}

	if h.inbox.shouldFail() {
		log.Warn().Str("message_id", ev.MessageID).Msg("simulated delivery failure")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "device unreachable"})
		return
	}

	dup := h.inbox.Accept(ev)
	log.Info().
		Str("message_id", ev.MessageID).
		Str("child_id", ev.ChildID).
		Str("type", ev.Type).
		Bool("duplicate", dup).
		Msg("delivery received")

	c.JSON(http.StatusOK, gin.H{"message_id": ev.MessageID, "duplicate": dup})
}

func (h *Handler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	c.JSON(http.StatusOK, h.inbox.List(limit))
}

func (h *Handler) Get(c *gin.Context) {
	r, ok := h.inbox.Get(c.Param("message_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "delivery not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var req struct {
		FailureRate *float64 `json:"failure_rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if req.FailureRate != nil && *req.FailureRate >= 0 && *req.FailureRate <= 1 {
		h.inbox.SetFailureRate(*req.FailureRate)
		log.Info().Float64("rate", *req.FailureRate).Msg("updated failure rate")
	}
	c.JSON(http.StatusOK, gin.H{"failure_rate": h.inbox.FailureRate()})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

func SetupRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	router.POST("/deliveries", h.Receive)
	router.GET("/deliveries", h.List)
	router.GET("/deliveries/:message_id", h.Get)
	router.PUT("/config", h.UpdateConfig)
	router.GET("/health", h.Health)
	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8081")
	failureRate := getEnvFloat("FAILURE_RATE", 0)
	capacity := getEnvInt("INBOX_CAPACITY", 10_000)

	log.Info().
		Str("port", port).
		Float64("failure_rate", failureRate).
		Int("capacity", capacity).
		Msg("starting delivery receiver")

	h := &Handler{inbox: NewInbox(capacity, failureRate)}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      SetupRouter(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}
