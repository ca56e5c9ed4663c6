// Package report collects check outcomes for one page-load cycle.
package report

import (
	"encoding/json"
	"maps"
	"time"
)

// Category labels what aspect of a region a check looked at.
type Category string

const (
	Presence       Category = "PRESENCE"
	Position       Category = "POSITION"
	Visibility     Category = "VISIBILITY"
	Dimensions     Category = "DIMENSIONS"
	Content        Category = "CONTENT"
	Functionality  Category = "FUNCTIONALITY"
	Accessibility  Category = "ACCESSIBILITY"
	Structure      Category = "STRUCTURE"
	Organization   Category = "ORGANIZATION"
	Responsiveness Category = "RESPONSIVENESS"
	Loading        Category = "LOADING"
)

// Categories lists every category in reporting order.
var Categories = []Category{
	Presence, Position, Visibility, Dimensions, Content, Functionality,
	Accessibility, Structure, Organization, Responsiveness, Loading,
}

// Status is the verdict of a single check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"

	// StatusSkip is informational: the check could not apply (optional
	// region absent, no layout, presence already failed). It never fails
	// the report.
	StatusSkip Status = "skip"
)

// Outcome is one recorded check. Treat it as a value; Record copies it.
type Outcome struct {
	Region   string             `json:"region"`
	Category Category           `json:"category"`
	Status   Status             `json:"status"`
	Reason   string             `json:"reason"`
	Evidence map[string]float64 `json:"evidence,omitempty"`
}

// Pass, Fail and Skip build outcomes.
func Pass(region string, c Category, reason string) Outcome {
	return Outcome{Region: region, Category: c, Status: StatusPass, Reason: reason}
}

func Fail(region string, c Category, reason string) Outcome {
	return Outcome{Region: region, Category: c, Status: StatusFail, Reason: reason}
}

func Skip(region string, c Category, reason string) Outcome {
	return Outcome{Region: region, Category: c, Status: StatusSkip, Reason: reason}
}

// Verdict is Pass when ok holds and Fail otherwise.
func Verdict(ok bool, region string, c Category, reason string) Outcome {
	if ok {
		return Pass(region, c, reason)
	}
	return Fail(region, c, reason)
}

// With returns a copy of o carrying one more evidence value.
func (o Outcome) With(key string, v float64) Outcome {
	ev := make(map[string]float64, len(o.Evidence)+1)
	maps.Copy(ev, o.Evidence)
	ev[key] = v
	o.Evidence = ev
	return o
}

// Failed reports whether the outcome is a hard failure.
func (o Outcome) Failed() bool { return o.Status == StatusFail }

func (o Outcome) clone() Outcome {
	if o.Evidence != nil {
		o.Evidence = maps.Clone(o.Evidence)
	}
	return o
}

// Summary counts outcomes by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Report is an append-only list of outcomes. It has a single writer (the
// validator) and is not safe for concurrent Record calls.
type Report struct {
	URL       string
	Title     string
	CheckedAt time.Time

	outcomes []Outcome
}

// New creates an empty report for url.
func New(url, title string) *Report {
	return &Report{URL: url, Title: title, CheckedAt: time.Now().UTC()}
}

// Record appends o.
func (r *Report) Record(o Outcome) {
	r.outcomes = append(r.outcomes, o.clone())
}

// Outcomes returns a copy of every recorded outcome in record order.
func (r *Report) Outcomes() []Outcome {
	return r.filter(func(Outcome) bool { return true })
}

// AllPassed is true when no outcome failed. Skips do not count as failures.
func (r *Report) AllPassed() bool {
	for _, o := range r.outcomes {
		if o.Failed() {
			return false
		}
	}
	return true
}

// Failures returns the failed outcomes.
func (r *Report) Failures() []Outcome {
	return r.filter(func(o Outcome) bool { return o.Status == StatusFail })
}

// Skipped returns the informational outcomes.
func (r *Report) Skipped() []Outcome {
	return r.filter(func(o Outcome) bool { return o.Status == StatusSkip })
}

func (r *Report) ByCategory(c Category) []Outcome {
	return r.filter(func(o Outcome) bool { return o.Category == c })
}

func (r *Report) ByRegion(region string) []Outcome {
	return r.filter(func(o Outcome) bool { return o.Region == region })
}

// Summary counts the outcomes by status.
func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.outcomes)}
	for _, o := range r.outcomes {
		switch o.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusSkip:
			s.Skipped++
		}
	}
	return s
}

func (r *Report) filter(keep func(Outcome) bool) []Outcome {
	out := make([]Outcome, 0, len(r.outcomes))
	for _, o := range r.outcomes {
		if keep(o) {
			out = append(out, o.clone())
		}
	}
	return out
}

type reportJSON struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	Passed    bool      `json:"passed"`
	Summary   Summary   `json:"summary"`
	Outcomes  []Outcome `json:"outcomes"`
}

// MarshalJSON renders the report with its derived verdict and summary.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		URL:       r.URL,
		Title:     r.Title,
		CheckedAt: r.CheckedAt,
		Passed:    r.AllPassed(),
		Summary:   r.Summary(),
		Outcomes:  r.Outcomes(),
	})
}

// UnmarshalJSON restores a report rendered by MarshalJSON. The derived
// fields are recomputed, not trusted.
func (r *Report) UnmarshalJSON(data []byte) error {
	var aux reportJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.URL, r.Title, r.CheckedAt = aux.URL, aux.Title, aux.CheckedAt
	r.outcomes = nil
	for _, o := range aux.Outcomes {
		r.Record(o)
	}
	return nil
}
