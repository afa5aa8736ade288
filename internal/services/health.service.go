package services

import (
	"context"
	"time"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	db HealthChecker
}

func NewHealthService(db HealthChecker) *HealthService {
	return &HealthService{db: db}
}

func (s *HealthService) Get() error {
	if s.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.db.Ping(ctx)
}
