package dto

import "time"

// JobRunSummary is the outcome of one batch-job run. Item failures are
// counted and sampled rather than aborting the run; one bad item must never
// sink the batch.
type JobRunSummary struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Processed  int       `json:"processed"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Errors     []string  `json:"errors,omitempty"`
}

// RecordSuccess counts one successfully processed item.
func (s *JobRunSummary) RecordSuccess() {
	s.Processed++
	s.Succeeded++
}

// RecordFailure counts one failed item, keeping a bounded error sample.
func (s *JobRunSummary) RecordFailure(err error) {
	s.Processed++
	s.Failed++
	if len(s.Errors) < 20 {
		s.Errors = append(s.Errors, err.Error())
	}
}
