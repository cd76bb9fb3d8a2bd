package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kube-rca/rca-rag/internal/ingest"
	"github.com/kube-rca/rca-rag/internal/model"
	"github.com/kube-rca/rca-rag/internal/service"
)

// 업로드 파일 1개 최대 크기
const maxUploadBytes = 32 << 20

// bulk 업로드 form field -> data type
var bulkFields = []struct {
	field    string
	dataType string
}{
	{"logs_file", model.DataTypeLogs},
	{"metrics_file", model.DataTypeMetrics},
	{"traces_file", model.DataTypeTraces},
	{"rca_file", "rca"},
}

type analyzer interface {
	Analyze(ctx context.Context, req model.AnalyzeRequest) (model.AnalyzeResponse, error)
	BulkIngest(ctx context.Context, dataType string, data any) (int, error)
}

type RcaHandler struct {
	svc    analyzer
	logger *zap.Logger
}

func NewRcaHandler(svc analyzer, logger *zap.Logger) *RcaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RcaHandler{svc: svc, logger: logger}
}

// Analyze godoc
// @Summary Analyze observability data
// @Description Stores telemetry, retrieves similar historical cases and generates an RCA report.
// @Tags rca
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.AnalyzeRequest true "Logs, metrics and traces"
// @Success 200 {object} model.AnalyzeResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/analyze [post]
func (h *RcaHandler) Analyze(c *gin.Context) {
	var req model.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	resp, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Analysis failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// BulkUpload godoc
// @Summary Bulk upload telemetry files
// @Description Accepts .json, .csv, .xlsx, .yaml or plain text files per data type.
// @Tags rca
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param logs_file formData file false "Logs file"
// @Param metrics_file formData file false "Metrics file"
// @Param traces_file formData file false "Traces file"
// @Param rca_file formData file false "RCA reports file"
// @Success 200 {object} model.BulkUploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.BulkUploadResponse
// @Router /api/bulk-upload [post]
func (h *RcaHandler) BulkUpload(c *gin.Context) {
	resp := model.BulkUploadResponse{UploadedFiles: []model.UploadedFile{}}
	attempted := 0
	storageFailed := false

	for _, f := range bulkFields {
		fh, err := c.FormFile(f.field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid multipart form: " + err.Error()})
			return
		}
		attempted++

		uploaded, err := h.ingestFile(c.Request.Context(), f.dataType, fh)
		if err != nil {
			if !errors.Is(err, ingest.ErrUnsupportedFormat) && !errors.Is(err, service.ErrValidation) {
				storageFailed = true
			}
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		resp.UploadedFiles = append(resp.UploadedFiles, uploaded)
		resp.TotalProcessed += uploaded.Processed
	}

	if attempted == 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "at least one of logs_file, metrics_file, traces_file, rca_file is required"})
		return
	}

	switch {
	case len(resp.Errors) == 0:
		resp.Status = "success"
	case len(resp.UploadedFiles) > 0:
		resp.Status = "partial"
	default:
		resp.Status = "failed"
		code := http.StatusBadRequest
		if storageFailed {
			code = http.StatusInternalServerError
		}
		c.JSON(code, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RcaHandler) ingestFile(ctx context.Context, dataType string, fh *multipart.FileHeader) (model.UploadedFile, error) {
	if fh.Size > maxUploadBytes {
		return model.UploadedFile{}, fmt.Errorf("%w: file exceeds %d bytes", service.ErrValidation, maxUploadBytes)
	}
	file, err := fh.Open()
	if err != nil {
		return model.UploadedFile{}, err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return model.UploadedFile{}, err
	}

	data, err := ingest.Parse(fh.Filename, content)
	if err != nil {
		return model.UploadedFile{}, err
	}

	n, err := h.svc.BulkIngest(ctx, dataType, data)
	if err != nil {
		h.logger.Warn("bulk upload file failed", zap.String("file", fh.Filename), zap.String("data_type", dataType), zap.Error(err))
		return model.UploadedFile{}, err
	}
	return model.UploadedFile{
		Type:      dataType,
		Filename:  fh.Filename,
		Size:      len(content),
		Processed: n,
		Skipped:   max(ingest.Count(data)-n, 0),
	}, nil
}
