// Package region turns a page snapshot into check outcomes, one region at a
// time. Every region follows the same ladder: presence (structural match or
// keyword evidence in the source), then position, visibility, dimensions,
// content, functionality and structure checks on the located node. Checks
// that need a node are skipped, not failed, when presence rested on keyword
// evidence alone or failed outright.
package region

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/dom"
	"github.com/use-agent/sitecheck/locator"
	"github.com/use-agent/sitecheck/report"
)

// Session is the read-only page handle a validator works on. *dom.Snapshot
// implements it.
type Session interface {
	Root() *dom.Node
	Source() string
	URL() string
	Title() string
	Viewport() dom.Size
	HasLayout() bool

	// Pending returns the error of a capture-time await for region, or nil.
	Pending(region string) error
}

var _ Session = (*dom.Snapshot)(nil)

// Region names, in evaluation order.
const (
	Header      = "header"
	Navigation  = "navigation"
	Action      = "action"
	Events      = "events"
	News        = "news"
	Footer      = "footer"
	Social      = "social"
	Images      = "images"
	Search      = "search"
	FooterLinks = "footer-links"
	Academics   = "academics"
	Contact     = "contact"
	Responsive  = "responsive"
	Title       = "title"
	Forms       = "forms"
	Tables      = "tables"
	Lists       = "lists"
)

type regionFunc func(*Validator, *check) error

var registry = map[string]regionFunc{
	Header:      (*Validator).header,
	Navigation:  (*Validator).navigation,
	Action:      (*Validator).action,
	Events:      (*Validator).events,
	News:        (*Validator).news,
	Footer:      (*Validator).footer,
	Social:      (*Validator).social,
	Images:      (*Validator).images,
	Search:      (*Validator).search,
	FooterLinks: (*Validator).footerLinks,
	Academics:   (*Validator).academics,
	Contact:     (*Validator).contact,
	Responsive:  (*Validator).responsive,
	Title:       (*Validator).title,
	Forms:       (*Validator).forms,
	Tables:      (*Validator).tables,
	Lists:       (*Validator).lists,
}

// All returns every region name in evaluation order.
func All() []string {
	return []string{
		Header, Navigation, Action, Events, News, Footer, Social, Images,
		Search, FooterLinks, Academics, Contact, Responsive, Title, Forms,
		Tables, Lists,
	}
}

// Known reports whether name is a region the validator can evaluate.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Validator evaluates regions against a site profile. It holds no per-page
// state and is safe to share between goroutines; each Run owns its report.
type Validator struct {
	loc     *locator.Locator
	profile config.Profile
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithLocator replaces the default role table.
func WithLocator(l *locator.Locator) Option {
	return func(v *Validator) { v.loc = l }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// WithClock fixes the clock used for footer year tokens.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New creates a Validator for profile p.
func New(p config.Profile, opts ...Option) *Validator {
	v := &Validator{
		profile: p,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	if v.loc == nil {
		v.loc = locator.Default(p.Institution.Tokens...)
	}
	return v
}

// Profile returns the profile the validator was built with.
func (v *Validator) Profile() config.Profile { return v.profile }

// Run evaluates regions (all of them when none are named) in order and
// returns the report. A region that errors contributes one failed outcome
// and evaluation moves on. Cancellation is honored between regions only;
// the partial report is returned with the context error.
func (v *Validator) Run(ctx context.Context, s Session, regions ...string) (*report.Report, error) {
	if len(regions) == 0 {
		regions = All()
	}
	for _, r := range regions {
		if !Known(r) {
			return nil, fmt.Errorf("unknown region %q", r)
		}
	}

	rep := report.New(s.URL(), s.Title())
	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("validation interrupted before %s: %w", r, err)
		}
		v.runRegion(s, rep, r)
	}

	sum := rep.Summary()
	v.logger.Info("validation finished",
		"url", s.URL(),
		"passed", rep.AllPassed(),
		"checks", sum.Total,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
	)
	return rep, nil
}

func (v *Validator) runRegion(s Session, rep *report.Report, name string) {
	c := &check{s: s, region: name, rep: rep}
	start := time.Now()

	if err := registry[name](v, c); err != nil {
		c.fail(report.Presence, "%s could not be evaluated: %v", name, err)
	}

	for _, o := range rep.ByRegion(name) {
		if o.Failed() {
			v.logger.Info("check failed", "region", name, "category", o.Category, "reason", o.Reason)
		}
	}
	v.logger.Debug("region evaluated", "region", name, "outcomes", c.n, "elapsed", time.Since(start))
}
