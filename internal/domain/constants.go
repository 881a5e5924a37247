package domain

// Job status constants
const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Company record status constants
const (
	RecordStatusSuccess = "success"
	RecordStatusFailed  = "failed"
)

// Match types reported by the resolver
const (
	MatchExact       MatchType = "exact"
	MatchFuzzySingle MatchType = "fuzzy_single"
	MatchFuzzyBest   MatchType = "fuzzy_best"
	MatchNone        MatchType = "none"
)

// Progress messages written to async jobs as they advance
const (
	ProgressStarted    = "Starting company analysis..."
	ProgressChecking   = "Checking existing records..."
	ProgressGenerating = "Generating AI analysis..."
	ProgressSaving     = "Saving analysis to database..."
	ProgressCompleted  = "Analysis completed successfully"
	ProgressFailed     = "Analysis failed"
)

// MaxAlternatives caps the alternative names returned with a fuzzy_best match.
const MaxAlternatives = 5
