package server

import (
	"context"
	"time"

	"blogapp/internal/database"

	"github.com/gofiber/fiber/v2"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// LivenessCheck handles liveness probe requests
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,time=string}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
// Redis is optional: without a client the check reports it as disabled.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,checks=object}
// @Failure 503 {object} object{status=string,checks=object}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := statusHealthy
	if s.db == nil {
		dbStatus = statusUnhealthy
	} else if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = statusUnhealthy
	}

	redisStatus := statusDisabled
	if s.redis != nil {
		redisStatus = statusHealthy
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = statusUnhealthy
		}
	}

	status := fiber.StatusOK
	overallStatus := statusHealthy
	if dbStatus == statusUnhealthy || redisStatus == statusUnhealthy {
		status = fiber.StatusServiceUnavailable
		overallStatus = statusUnhealthy
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
