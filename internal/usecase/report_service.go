package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"marketingops/internal/aggregation"
	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"
)

const reportSystemPrompt = `You are a B2B marketing operations analyst. Answer using only the JSON data provided.
Write GitHub-flavored Markdown with short sections and tables where they help.
Amounts are in the workspace currency. Null ratios mean the denominator was zero or the channel is not paid.`

// ReportService turns the current dashboard into a natural-language report.
type ReportService struct {
	dashboards *DashboardService
	platforms  *PlatformService
	generator  domain.ReportGenerator
	logger     *logger.Logger
	metrics    *metrics.Metrics
	timeout    time.Duration
	now        func() time.Time
}

func NewReportService(dashboards *DashboardService, platforms *PlatformService, generator domain.ReportGenerator, logger *logger.Logger, metrics *metrics.Metrics) *ReportService {
	return &ReportService{
		dashboards: dashboards,
		platforms:  platforms,
		generator:  generator,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// WithTimeout bounds each generator call; zero leaves only the request deadline.
func (s *ReportService) WithTimeout(d time.Duration) *ReportService {
	s.timeout = d
	return s
}

type ReportRequest struct {
	Instruction string        `json:"instruction"`
	Window      domain.Window `json:"window"`
}

type Report struct {
	Markdown    string        `json:"markdown"`
	Model       string        `json:"model"`
	Window      domain.Window `json:"window"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Generate makes one generator call; failures are returned, not retried.
func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (*Report, error) {
	if s.generator == nil {
		return nil, domain.ErrReportsDisabled
	}
	instruction := strings.TrimSpace(req.Instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is required", domain.ErrValidation)
	}

	dashboard, err := s.dashboards.Dashboard(ctx, req.Window)
	if err != nil {
		return nil, err
	}
	platforms, err := s.platforms.List(ctx)
	if err != nil {
		return nil, err
	}

	reportContext, err := json.Marshal(struct {
		Dashboard *aggregation.Dashboard       `json:"dashboard"`
		Platforms []aggregation.ParsedPlatform `json:"platforms"`
	}{dashboard, platforms})
	if err != nil {
		return nil, fmt.Errorf("failed to encode report context: %w", err)
	}

	log := s.logger.WithContext(ctx).WithField("model", s.generator.Model())
	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	markdown, err := s.generator.Generate(genCtx, domain.ReportPrompt{
		System:      reportSystemPrompt,
		Context:     reportContext,
		Instruction: instruction,
	})
	if err != nil {
		log.WithError(err).Error("Report generation failed")
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	log.WithField("context_bytes", len(reportContext)).Info("Generated report")
	return &Report{
		Markdown:    markdown,
		Model:       s.generator.Model(),
		Window:      req.Window,
		GeneratedAt: s.now().UTC(),
	}, nil
}
