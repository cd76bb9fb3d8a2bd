package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation - 필수 텔레메트리 누락, 잘못된 data type 등 입력 오류
	ErrValidation = errors.New("validation failed")
	// ErrStorage - 컬렉션 생성/저장/조회 실패
	ErrStorage = errors.New("storage failure")
	// ErrGeneration - LLM 백엔드 호출 실패, 모델 없음, 빈 응답
	ErrGeneration = errors.New("generation failure")
)

// 분석 파이프라인 단계 이름
const (
	StageReceived  = "received"
	StageStored    = "stored"
	StageRetrieved = "retrieved"
	StageGenerated = "generated"
	StagePersisted = "persisted"
)

// StageError - 분석 실패 단계와 원인
//
// errors.Is(err, ErrStorage) 처럼 Kind로도, 원래 cause로도 비교할 수 있다.
type StageError struct {
	Stage string
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func stageError(stage string, kind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
