package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kube-rca/rca-rag/internal/model"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	ansiColorRe  = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// CleanLogEntry removes ANSI color codes and normalizes whitespace.
func CleanLogEntry(entry string) string {
	entry = ansiColorRe.ReplaceAllString(entry, "")
	entry = whitespaceRe.ReplaceAllString(entry, " ")
	return strings.TrimSpace(entry)
}

// FormatDuration renders milliseconds as ms / s / m / h.
func FormatDuration(ms float64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%.1fms", ms)
	case ms < 60000:
		return fmt.Sprintf("%.1fs", ms/1000)
	case ms < 3600000:
		return fmt.Sprintf("%.1fm", ms/60000)
	default:
		return fmt.Sprintf("%.1fh", ms/3600000)
	}
}

// Hash returns the first 16 hex chars of the SHA-256 of text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

// NewAnalysisID - RCA_<YYYYMMDD>_<HHMMSS>_<uuid 앞 8자리>
func NewAnalysisID(now time.Time) string {
	return fmt.Sprintf("RCA_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])
}

// Signals - 번들 전체에서 구조화 신호 추출
func Signals(b model.TelemetryBundle) model.Signals {
	kv := KeyValuePairs(b.Logs)
	for k, v := range KeyValuePairs(b.Metrics) {
		kv[k] = v
	}
	return model.Signals{
		ErrorPatterns: ErrorPatterns(b.Logs),
		Metrics:       MetricsSummary(b.Metrics),
		Traces:        TraceSummary(b.Traces),
		Timestamps:    Timestamps(b.Logs),
		KeyValues:     kv,
	}
}
