package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"rollcall-stats-go/config"
	"rollcall-stats-go/models"
)

const (
	reportsKey         = "reports" // Set: Stores all report IDs
	reportInfoPrefix   = "report:" // Hash prefix: report:{id} -> stores report details
	classReportsPrefix = "class:"  // Set prefix: class:{id}:reports -> stores report IDs for a class
)

// RedisService keeps generated reports in Redis
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context // Base context
	logger *slog.Logger
	newID  func() string
}

// NewRedisService creates a new RedisService instance. A nil logger discards output.
func NewRedisService(client *redis.Client, logger *slog.Logger) *RedisService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RedisService{
		Client: client,
		Ctx:    context.Background(), // Use a background context as base
		logger: logger.With(slog.String("component", "report_store")),
		newID:  uuid.NewString,
	}
}

// Helper to generate report info key
func getReportInfoKey(reportID string) string {
	return reportInfoPrefix + reportID
}

// Helper to generate class reports set key
func getClassReportsKey(classID string) string {
	return classReportsPrefix + classID + ":reports"
}

// --- Report Operations ---

// SaveReport stores a report under a fresh ID and returns that ID. The report's ID
// field is updated in place.
func (s *RedisService) SaveReport(report *models.Report) (string, error) {
	if report == nil {
		return "", errors.New("report cannot be nil")
	}
	if report.ClassID == "" {
		return "", errors.New("report class ID cannot be empty")
	}

	report.ID = s.newID()
	payload, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	pipe := s.Client.Pipeline()
	// Add report ID to the global set and to the class's set
	pipe.SAdd(s.Ctx, reportsKey, report.ID)
	pipe.SAdd(s.Ctx, getClassReportsKey(report.ClassID), report.ID)
	// Store report details in a Hash
	pipe.HMSet(s.Ctx, getReportInfoKey(report.ID), map[string]interface{}{
		"id":        report.ID,
		"classId":   report.ClassID,
		"createdAt": report.CreatedAt.Format(time.RFC3339Nano),
		"payload":   string(payload),
	})

	if _, err := pipe.Exec(s.Ctx); err != nil {
		s.logger.Error("Error saving report",
			slog.String("class_id", report.ClassID),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to save report to Redis: %w", err)
	}
	s.logger.Info("Saved report",
		slog.String("report_id", report.ID),
		slog.String("class_id", report.ClassID),
		slog.Int("students", len(report.Results)))
	return report.ID, nil
}

// GetReport retrieves a report by its ID. A missing report yields nil, nil.
func (s *RedisService) GetReport(reportID string) (*models.Report, error) {
	payload, err := s.Client.HGet(s.Ctx, getReportInfoKey(reportID), "payload").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get report from Redis: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", reportID, err)
	}
	return &report, nil
}

// GetReportsByClassID retrieves all reports of a class, newest first
func (s *RedisService) GetReportsByClassID(classID string) ([]models.Report, error) {
	reportIDs, err := s.Client.SMembers(s.Ctx, getClassReportsKey(classID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Report{}, nil
		}
		return nil, fmt.Errorf("failed to get report IDs from Redis for class %s: %w", classID, err)
	}

	reports := make([]models.Report, 0, len(reportIDs))
	for _, id := range reportIDs {
		report, err := s.GetReport(id)
		if err != nil {
			// Log the error but continue trying to fetch others
			s.logger.Warn("Error fetching report",
				slog.String("report_id", id),
				slog.String("class_id", classID),
				slog.String("error", err.Error()))
			continue
		}
		if report != nil {
			reports = append(reports, *report)
		}
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// ReportCount returns how many reports are stored
func (s *RedisService) ReportCount() (int64, error) {
	count, err := s.Client.SCard(s.Ctx, reportsKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Ping Redis to check connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
