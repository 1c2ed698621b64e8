package domain

type OutcomeStatus string

const (
	OutcomeCreated             OutcomeStatus = "created"
	OutcomeSkippedExists       OutcomeStatus = "skipped_exists"
	OutcomeSkippedNoTranscript OutcomeStatus = "skipped_no_transcript"
	OutcomeSkippedLeased       OutcomeStatus = "skipped_leased"
	OutcomeFailed              OutcomeStatus = "failed"
)

// Outcome is the result of one conversion attempt. Err is set only for
// OutcomeFailed.
type Outcome struct {
	SourceKey string        `json:"sourceKey"`
	TargetKey string        `json:"targetKey"`
	Status    OutcomeStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Err       error         `json:"-"`
}

type SyncReport struct {
	RunID    string    `json:"runId"`
	Outcomes []Outcome `json:"outcomes"`
}

func (r SyncReport) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

type DocumentEntry struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// ListingView groups rendered documents by category label.
type ListingView map[string][]DocumentEntry

type ScheduleSlot struct {
	StartHour int    `json:"startHour" yaml:"start"`
	EndHour   int    `json:"endHour" yaml:"end"`
	Label     string `json:"label" yaml:"label"`
}

const (
	SourceExtension   = ".json"
	TargetExtension   = ".pdf"
	TargetContentType = "application/pdf"
	CategoryFallback  = "Uncategorized"
)
