package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"lecturer-feedback/internal/storage"
)

// ReportOptions locates exported reports in object storage.
type ReportOptions struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

// ExportedReport describes an uploaded analytics snapshot.
type ExportedReport struct {
	Key      string
	Location string
	URL      string
}

// ReportService snapshots the analytics into object storage.
type ReportService interface {
	Export(ctx context.Context) (*ExportedReport, error)
	List(ctx context.Context) ([]storage.ObjectInfo, error)
}

type reportDocument struct {
	GeneratedAt    time.Time          `json:"generatedAt"`
	AverageRatings []reportRating     `json:"averageRatings"`
	RatingTrends   []reportTrendPoint `json:"ratingTrends"`
}

type reportRating struct {
	LecturerName  string  `json:"lecturerName"`
	AverageRating float64 `json:"averageRating"`
	FeedbackCount int     `json:"feedbackCount"`
}

type reportTrendPoint struct {
	LecturerName  string  `json:"lecturerName"`
	Date          string  `json:"date"`
	AverageRating float64 `json:"averageRating"`
}

type reportService struct {
	analytics AnalyticsService
	store     storage.Service
	opts      ReportOptions
	now       func() time.Time
}

func NewReportService(analytics AnalyticsService, store storage.Service, opts ReportOptions) ReportService {
	if opts.URLTTL <= 0 {
		opts.URLTTL = 15 * time.Minute
	}
	return &reportService{
		analytics: analytics,
		store:     store,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *reportService) Export(ctx context.Context) (*ExportedReport, error) {
	ratings, err := s.analytics.AverageRatings(ctx, 0)
	if err != nil && !errors.Is(err, ErrNoRatings) {
		return nil, err
	}
	trends, err := s.analytics.RatingTrends(ctx, "")
	if err != nil {
		return nil, err
	}

	generatedAt := s.now().UTC()
	doc := reportDocument{
		GeneratedAt:    generatedAt,
		AverageRatings: make([]reportRating, len(ratings)),
		RatingTrends:   make([]reportTrendPoint, len(trends)),
	}
	for i, r := range ratings {
		doc.AverageRatings[i] = reportRating(r)
	}
	for i, t := range trends {
		doc.RatingTrends[i] = reportTrendPoint(t)
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	key := path.Join(s.reportsPrefix(), fmt.Sprintf("%s-%s.json", generatedAt.Format("20060102T150405Z"), uuid.NewString()))
	location, err := s.store.PutObject(ctx, s.opts.Bucket, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, fmt.Errorf("upload report: %w", err)
	}
	url, err := s.store.GetObjectURL(ctx, s.opts.Bucket, key, s.opts.URLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign report: %w", err)
	}

	return &ExportedReport{Key: key, Location: location, URL: url}, nil
}

func (s *reportService) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	return s.store.ListObjects(ctx, s.opts.Bucket, s.reportsPrefix()+"/")
}

func (s *reportService) reportsPrefix() string {
	return path.Join(strings.Trim(s.opts.KeyPrefix, "/"), "reports")
}
