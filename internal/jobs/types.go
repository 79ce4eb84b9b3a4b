// Package jobs は Asynq による定期メンテナンスジョブと、その実行記録の管理を提供します。
package jobs

import "time"

// Status はジョブの実行状態を表します。
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "done"
	StatusFailed    Status = "error"
)

// ErrorInfo はジョブ失敗時のエラー情報を保持します。
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Record はタスク種別ごとの直近の実行結果です。
type Record struct {
	TaskID     string     `json:"taskId,omitempty"`
	Type       string     `json:"type"`
	Status     Status     `json:"status"`
	Removed    int        `json:"removed"`
	Error      *ErrorInfo `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
}
