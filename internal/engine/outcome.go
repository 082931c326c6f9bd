package engine

// Outcome classifies how a single candidate fared in a batch.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// BatchOutcome is one candidate's result within a batch.
type BatchOutcome struct {
	// Name is the candidate's display name (the URL, or the file name).
	Name    string
	Outcome Outcome
	// Reason explains rejections and failures; empty otherwise.
	Reason string
}

// Failure names a candidate that was rejected or whose persistence failed.
type Failure struct {
	Name   string
	Reason string
}

// Summary aggregates a batch. Partial failure is normal and always
// reported, never escalated to total failure.
type Summary struct {
	Succeeded  int
	Duplicates int
	Failed     []Failure
	// Outcomes lists every candidate's result, grouped by how the batch
	// settled them (rejections and duplicates first, then persisted
	// candidates in input order), not interleaved in input order.
	Outcomes []BatchOutcome
}

func summarize(outcomes []BatchOutcome) *Summary {
	s := &Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Outcome {
		case OutcomeSucceeded:
			s.Succeeded++
		case OutcomeDuplicate:
			s.Duplicates++
		case OutcomeRejected, OutcomeFailed:
			s.Failed = append(s.Failed, Failure{Name: o.Name, Reason: o.Reason})
		}
	}
	return s
}
