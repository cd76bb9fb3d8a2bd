// Slack RCA 분석 결과 메시지 관련 메서드 정의

package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kube-rca/rca-rag/internal/extract"
	"github.com/kube-rca/rca-rag/internal/model"
	"github.com/kube-rca/rca-rag/internal/template"
)

// Slack attachment text 길이 제한 (3000자)보다 여유 있게 자름
const slackTextLimit = 2900

// 분석 결과를 Slack으로 전송
//
// 본문은 SLACK_MESSAGE_TEMPLATE이 있으면 템플릿 렌더링 결과, 없으면 RCA 결과 원문.
// 전송 후 권장 조치가 있으면 같은 쓰레드에 답글로 전송
func (c *SlackClient) SendAnalysis(ctx context.Context, resp model.AnalyzeResponse) error {
	if !c.IsConfigured() {
		return fmt.Errorf("slack bot token or channel ID not configured")
	}

	data := template.AnalysisDataFromResponse(resp)
	body := resp.RCAResult
	if c.messageTemplate != "" {
		body = template.RenderBody(c.messageTemplate, &data)
	}
	body = extract.Truncate(toSlackMarkdown(body), slackTextLimit)

	patterns := "-"
	if len(data.ErrorPatterns) > 0 {
		patterns = strings.Join(data.ErrorPatterns, ", ")
	}
	fields := []SlackField{
		{Title: "Status", Value: resp.Status, Short: true},
		{Title: "Confidence", Value: template.FormatConfidence(resp.ConfidenceScore), Short: true},
		{Title: "Similar Cases", Value: strconv.Itoa(data.SimilarCases), Short: true},
		{Title: "Error Patterns", Value: patterns, Short: true},
	}
	if len(data.SlowSpans) > 0 {
		fields = append(fields, SlackField{Title: "Slow Spans", Value: strings.Join(data.SlowSpans, "\n"), Short: false})
	}

	msg := SlackMessage{
		Channel: c.channelID,
		Attachments: []SlackAttachment{
			{
				Color:    colorByConfidence(resp.ConfidenceScore),
				Title:    fmt.Sprintf("🔍 RCA 분석 완료: %s", resp.AnalysisID),
				Text:     body,
				Fields:   fields,
				Footer:   "rca-rag",
				Ts:       time.Now().Unix(),
				MrkdwnIn: []string{"text"},
			},
		},
	}

	sent, err := c.send(ctx, msg)
	if err != nil {
		return err
	}

	if len(resp.Recommendations) == 0 || sent.TS == "" {
		return nil
	}
	lines := make([]string, 0, len(resp.Recommendations)+1)
	lines = append(lines, "**Recommendations**")
	for i, r := range resp.Recommendations {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, r))
	}
	return c.SendToThread(ctx, sent.TS, strings.Join(lines, "\n"))
}

// - 신뢰도 >= 0.7: #36a64f (초록)
// - 신뢰도 >= 0.4: #ffc107 (노랑)
// - 그 외/없음: #6f42c1 (보라)
func colorByConfidence(score *float64) string {
	switch {
	case score == nil:
		return "#6f42c1"
	case *score >= 0.7:
		return "#36a64f"
	case *score >= 0.4:
		return "#ffc107"
	default:
		return "#6f42c1"
	}
}
