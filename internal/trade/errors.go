package trade

import (
	"errors"
	"fmt"
)

// 拒绝原因
var (
	ErrSelfTrade           = errors.New("SELF_TRADE")
	ErrInsufficientBalance = errors.New("INSUFFICIENT_BALANCE")
	ErrNotOwned            = errors.New("NOT_OWNED")
	ErrInvalidPrice        = errors.New("INVALID_PRICE")
)

// Rejection 校验拒绝（未发生任何网络调用）
type Rejection struct {
	Reason error
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return "trade rejected: " + r.Reason.Error()
	}
	return fmt.Sprintf("trade rejected: %s (%s)", r.Reason, r.Detail)
}

// Is 支持 errors.Is(err, ErrSelfTrade) 等判断
func (r *Rejection) Is(target error) bool {
	return r.Reason == target
}

func reject(reason error, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Stage 提交失败阶段
type Stage string

const (
	StageSigningFailed Stage = "SIGNING_FAILED"
	StageAPIFailure    Stage = "API_FAILURE"
)

// SubmissionError 签名或提交阶段的失败
type SubmissionError struct {
	Stage Stage
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("trade submission failed at %s: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsRejection 是否为校验拒绝
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// StageOf 返回提交失败阶段，非 SubmissionError 时为空
func StageOf(err error) Stage {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
