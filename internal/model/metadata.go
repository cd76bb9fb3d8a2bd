package model

import "time"

// 시스템 metadata 키 (사용자 확장 키와 충돌하면 user_ 접두어로 저장)
const (
	MetaAnalysisID      = "analysis_id"
	MetaDataType        = "data_type"
	MetaTimestamp       = "timestamp"
	MetaBulkUpload      = "bulk_upload"
	MetaHasOriginalData = "has_original_data"
)

var reservedMetaKeys = map[string]struct{}{
	MetaAnalysisID:      {},
	MetaDataType:        {},
	MetaTimestamp:       {},
	MetaBulkUpload:      {},
	MetaHasOriginalData: {},
}

// Metadata - 고정 시스템 필드 + 확장 맵
type Metadata struct {
	AnalysisID      string
	DataType        string
	Timestamp       time.Time
	BulkUpload      bool
	HasOriginalData bool
	Extra           map[string]any
}

// IsReservedKey reports whether key is owned by the system fields.
func IsReservedKey(key string) bool {
	_, ok := reservedMetaKeys[key]
	return ok
}

// Flatten - 저장용 map으로 변환
//
// 확장 키를 먼저 쓰고 시스템 키를 나중에 써서 항상 시스템 값이 남음
func (m Metadata) Flatten() map[string]any {
	out := make(map[string]any, len(m.Extra)+5)
	for k, v := range m.Extra {
		if IsReservedKey(k) {
			out["user_"+k] = v
			continue
		}
		out[k] = v
	}

	if m.AnalysisID != "" {
		out[MetaAnalysisID] = m.AnalysisID
	}
	if m.DataType != "" {
		out[MetaDataType] = m.DataType
	}
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	out[MetaTimestamp] = ts.Format(time.RFC3339Nano)
	if m.BulkUpload {
		out[MetaBulkUpload] = true
	}
	if m.HasOriginalData {
		out[MetaHasOriginalData] = true
	}
	return out
}
