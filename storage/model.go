// Package storage implements the durable state of the portal: a credential
// store and a capped analysis history log, both persisted as flat JSON files.
//
// Mutations rewrite the whole file. There is no locking and no transaction
// boundary, so two concurrent writers can race and the later full-file
// rewrite silently discards the earlier update. The stores are plain objects
// handed to the web layer, so a locking strategy can be injected later
// without touching the handlers.
package storage

// Account roles. Doctors see every history entry, patients only their own.
const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// Severity tiers derived from the pneumonia probability.
const (
	SeverityLow      = "Low"
	SeverityModerate = "Moderate"
	SeverityHigh     = "High"
)

// Account is a registered portal user, keyed by username in the store.
// Accounts are never mutated after signup.
type Account struct {
	Username     string `json:"-"`
	PasswordHash string `json:"password"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
}

// AnalysisResult is the outcome of one upload run through the pipeline.
//
// Invariants: Normal + Pneumonia == 100 (within rounding), Confidence is the
// larger of the two, HasPneumonia iff Pneumonia > 50, and Severity is High
// iff Pneumonia > 80, Moderate iff > 50, Low otherwise.
type AnalysisResult struct {
	Normal       float64 `json:"normal"`
	Pneumonia    float64 `json:"pneumonia"`
	HasPneumonia bool    `json:"has_pneumonia"`
	Confidence   float64 `json:"confidence"`
	Severity     string  `json:"severity"`
	Timestamp    string  `json:"timestamp"`
	Filename     string  `json:"filename"`
}

// HistoryEntry ties an analysis result to the session identity that
// produced it.
type HistoryEntry struct {
	ID     string         `json:"id"`
	User   string         `json:"user"`
	UserID string         `json:"user_id"`
	Result AnalysisResult `json:"result"`
}
