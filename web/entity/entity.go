// Package entity defines data structures shared by the web layer.
package entity

import "pulmoscan/storage"

// Msg represents a standard API response message with success status,
// message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// DashboardView is the view model for the dashboard page after an upload.
type DashboardView struct {
	Result   *storage.AnalysisResult
	Filename string
}

// HistoryView is the view model for the role-filtered history page.
type HistoryView struct {
	Entries []storage.HistoryEntry
}
