// Package extract는 텍스트 텔레메트리에서 구조화 신호를 뽑아내는 순수 함수 모음
//
// 모든 함수는 상태가 없고 정규식 기반 휴리스틱이다.
//   - ErrorPatterns: 로그의 에러 패턴 (HTTP/DB/네트워크/메모리/디스크)
//   - MetricsSummary: cpu/memory/disk/network/error/response 수치 요약
//   - TraceSummary: spans JSON 요약 (텍스트 fallback)
//   - Timestamps, KeyValuePairs: 타임스탬프 / key=value 추출
package extract

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/kube-rca/rca-rag/internal/model"
)

type errorPatternDef struct {
	name        string
	description string
	re          *regexp.Regexp
}

var errorPatternDefs = []errorPatternDef{
	{"HTTP_ERROR", "HTTP status codes", regexp.MustCompile(`(?i)HTTP (\d{3})`)},
	{"EXCEPTION", "General exceptions and errors", regexp.MustCompile(`(?i)(Exception|Error|Failed|Timeout)`)},
	{"DATABASE_ERROR", "Database related errors", regexp.MustCompile(`(?i)(database|sql|connection|query).*?(error|failed|timeout)`)},
	{"NETWORK_ERROR", "Network connectivity issues", regexp.MustCompile(`(?i)(network|connection|socket).*?(error|failed|refused|timeout)`)},
	{"MEMORY_ERROR", "Memory related issues", regexp.MustCompile(`(?i)(memory|heap|oom|out of memory)`)},
	{"DISK_ERROR", "Disk and storage issues", regexp.MustCompile(`(?i)(disk|storage|filesystem).*?(full|error|failed)`)},
}

// ErrorPatterns returns every known error pattern that matches text, in a fixed order.
func ErrorPatterns(text string) []model.ErrorPattern {
	found := make([]model.ErrorPattern, 0)
	for _, def := range errorPatternDefs {
		matches := def.re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		found = append(found, model.ErrorPattern{
			Name:        def.name,
			Description: def.description,
			Matches:     matches,
			Count:       len(matches),
		})
	}
	return found
}

var metricPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"cpu", regexp.MustCompile(`(?i)cpu[_\s]*usage?[:\s]*(\d+\.?\d*)%?`)},
	{"memory", regexp.MustCompile(`(?i)memory[_\s]*usage?[:\s]*(\d+\.?\d*)%?`)},
	{"disk", regexp.MustCompile(`(?i)disk[_\s]*io[:\s]*(\d+\.?\d*)`)},
	{"network", regexp.MustCompile(`(?i)network[_\s]*io[:\s]*(\d+\.?\d*)`)},
	{"error", regexp.MustCompile(`(?i)error[_\s]*rate[:\s]*(\d+\.?\d*)%?`)},
	{"response", regexp.MustCompile(`(?i)response[_\s]*time[:\s]*(\d+\.?\d*)`)},
}

// MetricsSummary extracts per-kind values with avg/max/min. Kinds without values are omitted.
func MetricsSummary(text string) map[string]model.MetricStat {
	summary := make(map[string]model.MetricStat)
	for _, p := range metricPatterns {
		var values []float64
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}
		stat := model.MetricStat{Values: values, Max: values[0], Min: values[0]}
		sum := 0.0
		for _, v := range values {
			sum += v
			if v > stat.Max {
				stat.Max = v
			}
			if v < stat.Min {
				stat.Min = v
			}
		}
		stat.Avg = sum / float64(len(values))
		summary[p.kind] = stat
	}
	return summary
}

var timestampPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T\s]\d{2}:\d{2}:\d{2}`), // ISO
	regexp.MustCompile(`\d{2}/\d{2}/\d{4}\s\d{2}:\d{2}:\d{2}`),    // US
	regexp.MustCompile(`\d{2}-\d{2}-\d{4}\s\d{2}:\d{2}:\d{2}`),    // EU
	regexp.MustCompile(`\w{3}\s\d{1,2}\s\d{2}:\d{2}:\d{2}`),       // syslog
}

// Timestamps returns the distinct timestamps found in text, sorted.
func Timestamps(text string) []string {
	seen := make(map[string]struct{})
	for _, re := range timestampPatterns {
		for _, m := range re.FindAllString(text, -1) {
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for ts := range seen {
		out = append(out, ts)
	}
	sort.Strings(out)
	return out
}

var keyValueRe = regexp.MustCompile(`(\w+)=([^\s,]+)`)

// KeyValuePairs extracts key=value pairs. Later occurrences of a key win.
func KeyValuePairs(text string) map[string]string {
	pairs := make(map[string]string)
	for _, m := range keyValueRe.FindAllStringSubmatch(text, -1) {
		pairs[m[1]] = m[2]
	}
	return pairs
}

var confidenceRe = regexp.MustCompile(`(?i)confidence[^0-9\n]{0,40}(\d+(?:\.\d+)?)\s*(/\s*10)?`)

// Confidence parses a "confidence ... N/10" rating from an RCA report into [0,1].
func Confidence(report string) (float64, bool) {
	for _, m := range confidenceRe.FindAllStringSubmatch(report, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v < 0 || v > 10 {
			continue
		}
		return v / 10, true
	}
	return 0, false
}
