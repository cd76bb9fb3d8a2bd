package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseJSON(t *testing.T) {
	data, err := Parse("logs.json", []byte(`[{"msg":"a"},{"msg":"b"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, Count(data))

	data, err = Parse("one.JSON", []byte(`{"msg":"a","code":503}`))
	require.NoError(t, err)
	assert.Equal(t, 1, Count(data))
	assert.Equal(t, map[string]any{"msg": "a", "code": float64(503)}, data)

	_, err = Parse("bad.json", []byte(`{"msg":`))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseCSV(t *testing.T) {
	content := "\ufeffservice, latency_ms ,status,note\ncheckout,120,500,timeout\npayments,85.5,200,\n,,,\n"
	data, err := Parse("metrics.csv", []byte(content))
	require.NoError(t, err)

	rows, ok := data.([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{
		"service":    "checkout",
		"latency_ms": int64(120),
		"status":     int64(500),
		"note":       "timeout",
	}, rows[0])
	assert.Equal(t, map[string]any{
		"service":    "payments",
		"latency_ms": 85.5,
		"status":     int64(200),
	}, rows[1])

	_, err = Parse("broken.csv", []byte("a,b\n\"unterminated,1\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"service", "errors"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"checkout", 12}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"payments", 0}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := Parse("traces.xlsx", buf.Bytes())
	require.NoError(t, err)
	rows, ok := data.([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"service": "checkout", "errors": int64(12)}, rows[0])
	assert.Equal(t, map[string]any{"service": "payments", "errors": int64(0)}, rows[1])

	_, err = Parse("traces.xlsx", []byte("not a zip"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Parse("old.xls", []byte("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseYAML(t *testing.T) {
	content := "- service: checkout\n  labels:\n    tier: web\n- service: payments\n"
	data, err := Parse("rca.yaml", []byte(content))
	require.NoError(t, err)
	rows, ok := data.([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"service": "checkout", "labels": map[string]any{"tier": "web"}}, rows[0])

	_, err = Parse("bad.yml", []byte("a: [1, 2"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseTextFallback(t *testing.T) {
	data, err := Parse("app.log", []byte("line 1\nline 2\n"))
	require.NoError(t, err)
	assert.Equal(t, "line 1\nline 2\n", data)
	assert.Equal(t, 1, Count(data))

	_, err = Parse("app.log", []byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(nil))
	assert.Equal(t, 3, Count([]any{1, 2, 3}))
	assert.Equal(t, 1, Count("x"))
}
