package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kube-rca/rca-rag/internal/extract"
	"github.com/kube-rca/rca-rag/internal/metrics"
	"github.com/kube-rca/rca-rag/internal/model"
)

const (
	StatusSuccess = "success"

	notifyTimeout = 30 * time.Second
)

var dataTypeRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// Notifier - 분석 완료 알림 (Slack)
type Notifier interface {
	IsConfigured() bool
	SendAnalysis(ctx context.Context, resp model.AnalyzeResponse) error
}

// Retriever - RcaService가 사용하는 RAG 기능
type Retriever interface {
	StoreTelemetry(ctx context.Context, analysisID string, bundle model.TelemetryBundle, extra map[string]any) (string, error)
	GetRelevantContext(ctx context.Context, bundle model.TelemetryBundle) model.RelevantContext
	StoreResult(ctx context.Context, analysisID, rcaText string, original *model.TelemetryBundle) error
	BulkStore(ctx context.Context, dataType string, data any) (int, error)
}

type RcaOptions struct {
	// RAGEnabled가 false면 유사 사례 검색을 건너뛰고 빈 컨텍스트로 분석
	RAGEnabled      bool
	Recommendations bool
}

// RcaService - 분석 파이프라인
//
// received -> stored -> retrieved -> generated -> persisted 순서로 진행한다.
// 실패하면 해당 단계를 담은 StageError를 반환하고 이후 단계는 실행하지 않는다.
type RcaService struct {
	rag      Retriever
	gen      Generator
	notifier Notifier
	opts     RcaOptions
	logger   *zap.Logger
	now      func() time.Time
}

func NewRcaService(rag Retriever, gen Generator, notifier Notifier, opts RcaOptions, logger *zap.Logger) *RcaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RcaService{
		rag:      rag,
		gen:      gen,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// ValidateBundle - logs/metrics/traces가 모두 비어 있으면 ErrValidation
func ValidateBundle(b model.TelemetryBundle) error {
	if strings.TrimSpace(b.Logs) == "" && strings.TrimSpace(b.Metrics) == "" && strings.TrimSpace(b.Traces) == "" {
		return fmt.Errorf("%w: at least one of logs, metrics, traces is required", ErrValidation)
	}
	return nil
}

// Analyze - 텔레메트리 저장, 컨텍스트 검색, RCA 생성, 결과 저장
func (s *RcaService) Analyze(ctx context.Context, req model.AnalyzeRequest) (model.AnalyzeResponse, error) {
	start := time.Now()
	stage := StageReceived
	resp, err := s.analyze(ctx, req, &stage)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
		s.logger.Error("analysis failed", zap.String("stage", stage), zap.Error(err))
	}
	metrics.ObserveAnalysis(time.Since(start), outcome, stage)
	if err != nil {
		return model.AnalyzeResponse{}, err
	}

	s.logger.Info("analysis completed",
		zap.String("analysis_id", resp.AnalysisID),
		zap.Int("similar_cases", len(resp.SimilarCases)),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.notify(resp)
	return resp, nil
}

func (s *RcaService) analyze(ctx context.Context, req model.AnalyzeRequest, stage *string) (model.AnalyzeResponse, error) {
	now := s.now()
	bundle := req.Bundle(now)
	if err := ValidateBundle(bundle); err != nil {
		return model.AnalyzeResponse{}, stageError(StageReceived, ErrValidation, err)
	}
	analysisID := extract.NewAnalysisID(now)

	step := func(name string, fn func() error) error {
		*stage = name
		t := time.Now()
		err := fn()
		metrics.ObserveStage(name, time.Since(t))
		return err
	}

	if err := step(StageStored, func() error {
		_, err := s.rag.StoreTelemetry(ctx, analysisID, bundle, req.Metadata)
		return err
	}); err != nil {
		return model.AnalyzeResponse{}, stageError(StageStored, ErrStorage, err)
	}

	relevant := emptyContext()
	if s.opts.RAGEnabled {
		_ = step(StageRetrieved, func() error {
			relevant = s.rag.GetRelevantContext(ctx, bundle)
			return nil
		})
	}

	var rcaText string
	if err := step(StageGenerated, func() error {
		var err error
		rcaText, err = s.gen.AnalyzeObservability(ctx, bundle.Logs, bundle.Metrics, bundle.Traces, relevant.SimilarCases)
		return err
	}); err != nil {
		return model.AnalyzeResponse{}, stageError(StageGenerated, ErrGeneration, err)
	}

	record := model.AnalysisRecord{AnalysisID: analysisID, Telemetry: bundle, RCAResult: rcaText}
	if err := step(StagePersisted, func() error {
		return s.rag.StoreResult(ctx, record.AnalysisID, record.RCAResult, &record.Telemetry)
	}); err != nil {
		return model.AnalyzeResponse{}, stageError(StagePersisted, ErrStorage, err)
	}
	record.CreatedAt = s.now().UTC()

	resp := record.Response(StatusSuccess, relevant.SimilarCases)
	if score, ok := extract.Confidence(rcaText); ok {
		resp.ConfidenceScore = &score
	}
	signals := extract.Signals(bundle)
	resp.Signals = &signals

	if s.opts.Recommendations {
		recs, err := s.gen.GenerateRecommendations(ctx, rcaText)
		resp.Recommendations = degrade(s.logger, "recommendations", recs, err, nil)
	}
	return resp, nil
}

// notify - 알림은 요청과 분리된 context로 비동기 전송 (실패는 로그만)
func (s *RcaService) notify(resp model.AnalyzeResponse) {
	if s.notifier == nil || !s.notifier.IsConfigured() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.SendAnalysis(ctx, resp); err != nil {
			s.logger.Warn("analysis notification failed", zap.String("analysis_id", resp.AnalysisID), zap.Error(err))
		}
	}()
}

// ValidateDataType - bulk data type은 소문자/숫자/밑줄만 허용 (컬렉션 이름에 그대로 사용)
func ValidateDataType(dataType string) error {
	if !dataTypeRe.MatchString(dataType) {
		return fmt.Errorf("%w: invalid data type %q", ErrValidation, dataType)
	}
	return nil
}

// BulkIngest - 항목들을 observability_<dataType>에 저장하고 저장된 수 반환
func (s *RcaService) BulkIngest(ctx context.Context, dataType string, data any) (int, error) {
	if err := ValidateDataType(dataType); err != nil {
		return 0, err
	}
	n, err := s.rag.BulkStore(ctx, dataType, data)
	if err != nil {
		s.logger.Error("bulk ingest failed", zap.String("data_type", dataType), zap.Int("stored", n), zap.Error(err))
		return n, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	s.logger.Info("bulk ingest completed", zap.String("data_type", dataType), zap.Int("stored", n))
	return n, nil
}
