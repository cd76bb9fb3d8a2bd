// Package cli는 rca-rag 실행 파일의 cobra 명령 정의
//
//   - serve: HTTP API 서버
//   - analyze: 파일로 받은 텔레메트리를 1회 분석
//   - ingest: 파일을 bulk 저장
//   - search: 유사 사례 검색
//   - stats: 컬렉션별 문서 수
//   - token: API bearer 토큰 발급
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kube-rca/rca-rag/internal/config"
	"github.com/kube-rca/rca-rag/internal/handler"
	"github.com/kube-rca/rca-rag/internal/ingest"
	"github.com/kube-rca/rca-rag/internal/logger"
	"github.com/kube-rca/rca-rag/internal/model"
	"github.com/kube-rca/rca-rag/internal/service"
)

const shutdownTimeout = 15 * time.Second

// NewRootCmd - 최상위 명령. 설정은 환경변수(.env 포함)에서 읽는다
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rca-rag",
		Short:         "Root cause analysis over logs, metrics and traces with historical case retrieval",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newAnalyzeCmd(),
		newIngestCmd(),
		newSearchCmd(),
		newStatsCmd(),
		newTokenCmd(),
	)
	return root
}

// withApp - 설정/로거/App 조립 후 fn 실행, 종료 시 정리
func withApp(ctx context.Context, fn func(ctx context.Context, a *App) error) error {
	cfg := config.Load()
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close vector store", zap.Error(err))
		}
	}()
	return fn(ctx, a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd() *cobra.Command {
	var requireModel bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, func(ctx context.Context, a *App) error {
				return serve(ctx, a, requireModel)
			})
		},
	}
	cmd.Flags().BoolVar(&requireModel, "require-model", false, "exit when the configured LLM model cannot be found or pulled")
	return cmd
}

func serve(ctx context.Context, a *App, requireModel bool) error {
	if err := a.LLM.EnsureModelAvailable(ctx); err != nil {
		if requireModel {
			return err
		}
		a.Logger.Warn("llm model is not available, analysis requests will fail until it is", zap.String("model", a.LLM.Model()), zap.Error(err))
	}

	routerCfg := handler.RouterConfig{
		Analyzer:    a.RCA,
		Searcher:    a.RAG,
		Gatherer:    a.Registry,
		CORSOrigins: strings.Split(a.Config.Server.CORSAllowedOrigins, ","),
		Logger:      a.Logger.Named("http"),
	}
	if a.Auth != nil {
		routerCfg.Auth = a.Auth
	} else {
		a.Logger.Warn("API_JWT_SECRET not set, /api endpoints are unauthenticated")
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.Config.Server.Host, a.Config.Server.Port),
		Handler:           handler.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newAnalyzeCmd() *cobra.Command {
	var logsFile, metricsFile, tracesFile, systemID, environment string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze telemetry files once and print the RCA result as JSON",
		Example: `  rca-rag analyze --logs app.log --metrics metrics.txt
  rca-rag analyze --traces traces.json --system-id checkout`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req model.AnalyzeRequest
			var err error
			if req.Logs, err = readOptional(logsFile); err != nil {
				return err
			}
			if req.Metrics, err = readOptional(metricsFile); err != nil {
				return err
			}
			if req.Traces, err = readOptional(tracesFile); err != nil {
				return err
			}
			req.SystemID = systemID
			req.Environment = environment

			return withApp(cmd.Context(), func(ctx context.Context, a *App) error {
				resp, err := a.RCA.Analyze(ctx, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().StringVar(&logsFile, "logs", "", "path to a logs file")
	cmd.Flags().StringVar(&metricsFile, "metrics", "", "path to a metrics file")
	cmd.Flags().StringVar(&tracesFile, "traces", "", "path to a traces file")
	cmd.Flags().StringVar(&systemID, "system-id", "", "system identifier stored with the telemetry")
	cmd.Flags().StringVar(&environment, "environment", "", "environment name (default production)")
	return cmd
}

func newIngestCmd() *cobra.Command {
	var dataType string
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Bulk store .json, .csv, .xlsx, .yaml or text files into observability_<type>",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := service.ValidateDataType(dataType); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *App) error {
				resp := model.BulkUploadResponse{UploadedFiles: []model.UploadedFile{}, Status: "success"}
				for _, path := range args {
					content, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					data, err := ingest.Parse(path, content)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					n, err := a.RCA.BulkIngest(ctx, dataType, data)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					resp.UploadedFiles = append(resp.UploadedFiles, model.UploadedFile{
						Type: dataType, Filename: path, Size: len(content), Processed: n,
						Skipped: max(ingest.Count(data)-n, 0),
					})
					resp.TotalProcessed += n
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().StringVarP(&dataType, "type", "t", model.DataTypeLogs, "data type (lowercase letters, digits, underscore)")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search similar historical cases",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd.Context(), func(ctx context.Context, a *App) error {
				return writeJSON(cmd.OutOrStdout(), model.SearchSimilarResponse{
					SimilarCases: a.RAG.SearchSimilarCases(ctx, query, limit),
				})
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum number of cases")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the document count per collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *App) error {
				return writeJSON(cmd.OutOrStdout(), model.StatsResponse{Collections: a.RAG.DatabaseStats(ctx)})
			})
		},
	}
}

func newTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with API_JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			auth, err := service.NewAuthService(config.Load().Server.JWTSecret)
			if err != nil {
				return err
			}
			token, expiresAt, err := auth.IssueToken(subject, ttl)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"access_token": token,
				"expires_at":   expiresAt.UTC(),
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (client name)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
