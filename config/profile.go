package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Profile describes the site under test: who it belongs to, which words
// identify its regions, and how strict the layout heuristics are.
type Profile struct {
	Name        string      `mapstructure:"name" yaml:"name"`
	Institution Institution `mapstructure:"institution" yaml:"institution"`
	Keywords    Keywords    `mapstructure:"keywords" yaml:"keywords"`
	Thresholds  Thresholds  `mapstructure:"thresholds" yaml:"thresholds"`
}

// Institution identifies the site owner.
type Institution struct {
	// Tokens are short lower-case identifiers ("rwth", "aachen").
	Tokens []string `mapstructure:"tokens" yaml:"tokens"`

	// FullNames count as header evidence when found in the page source.
	FullNames []string `mapstructure:"full_names" yaml:"full_names"`

	// Domain is the site's domain token ("rwth-aachen.de").
	Domain string `mapstructure:"domain" yaml:"domain"`

	// Email is the mail-address token ("@rwth").
	Email string `mapstructure:"email" yaml:"email"`

	City string `mapstructure:"city" yaml:"city"`

	// Years expected in the footer. Empty means the current and the
	// previous calendar year.
	Years []string `mapstructure:"years" yaml:"years,omitempty"`
}

// Keywords are the bilingual word lists regions look for. Matching is
// case-insensitive.
type Keywords struct {
	Events         []string `mapstructure:"events" yaml:"events"`
	News           []string `mapstructure:"news" yaml:"news"`
	Academics      []string `mapstructure:"academics" yaml:"academics"`
	Contact        []string `mapstructure:"contact" yaml:"contact"`
	Title          []string `mapstructure:"title" yaml:"title"`
	Search         []string `mapstructure:"search" yaml:"search"`
	Copyright      []string `mapstructure:"copyright" yaml:"copyright"`
	Legal          []string `mapstructure:"legal" yaml:"legal"`
	FooterFallback []string `mapstructure:"footer_fallback" yaml:"footer_fallback"`
}

// Thresholds holds every layout and counting heuristic. The defaults are
// tuned to the RWTH Aachen site.
type Thresholds struct {
	HeaderMaxTop    float64 `mapstructure:"header_max_top" yaml:"header_max_top"`
	HeaderMinWidth  float64 `mapstructure:"header_min_width" yaml:"header_min_width"`
	HeaderMinHeight float64 `mapstructure:"header_min_height" yaml:"header_min_height"`

	// FooterMinTopRatio is the fraction of the viewport height the footer
	// must start below.
	FooterMinTopRatio   float64 `mapstructure:"footer_min_top_ratio" yaml:"footer_min_top_ratio"`
	FooterMinWidth      float64 `mapstructure:"footer_min_width" yaml:"footer_min_width"`
	FooterMinHeight     float64 `mapstructure:"footer_min_height" yaml:"footer_min_height"`
	FooterMinScore      float64 `mapstructure:"footer_min_score" yaml:"footer_min_score"`
	FooterMinWidthRatio float64 `mapstructure:"footer_min_width_ratio" yaml:"footer_min_width_ratio"`

	// FooterMinLinks is exclusive: the footer needs more links than this.
	FooterMinLinks        int `mapstructure:"footer_min_links" yaml:"footer_min_links"`
	FooterMinLabeledLinks int `mapstructure:"footer_min_labeled_links" yaml:"footer_min_labeled_links"`

	ImageMinWidth    float64 `mapstructure:"image_min_width" yaml:"image_min_width"`
	ImageMinHeight   float64 `mapstructure:"image_min_height" yaml:"image_min_height"`
	ImageMinAltRatio float64 `mapstructure:"image_min_alt_ratio" yaml:"image_min_alt_ratio"`

	NavMinValidLinks int `mapstructure:"nav_min_valid_links" yaml:"nav_min_valid_links"`

	ListMinItems        int     `mapstructure:"list_min_items" yaml:"list_min_items"`
	ListMinContentRatio float64 `mapstructure:"list_min_content_ratio" yaml:"list_min_content_ratio"`
	TableMinRows        int     `mapstructure:"table_min_rows" yaml:"table_min_rows"`

	ViewportDirective string `mapstructure:"viewport_directive" yaml:"viewport_directive"`
}

// DefaultProfile returns the RWTH Aachen profile.
func DefaultProfile() Profile {
	return Profile{
		Name: "rwth",
		Institution: Institution{
			Tokens:    []string{"rwth", "aachen", "rheinisch"},
			FullNames: []string{"RWTH Aachen", "Rheinisch-Westfälische"},
			Domain:    "rwth-aachen.de",
			Email:     "@rwth",
			City:      "Aachen",
		},
		Keywords: Keywords{
			Events:         []string{"events", "calendar", "veranstaltung", "kalender"},
			News:           []string{"news", "aktuelles", "nachrichten"},
			Academics:      []string{"studium", "fakultät", "studiengänge", "education", "faculty"},
			Contact:        []string{"kontakt", "contact"},
			Title:          []string{"rwth", "aachen", "technische hochschule"},
			Search:         []string{"search", "suche"},
			Copyright:      []string{"copyright", "©"},
			Legal:          []string{"impressum", "datenschutz"},
			FooterFallback: []string{"impressum", "datenschutz", "copyright", "©", "imprint", "privacy"},
		},
		Thresholds: DefaultThresholds(),
	}
}

// DefaultThresholds returns the stock heuristics.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeaderMaxTop:          200,
		HeaderMinWidth:        50,
		HeaderMinHeight:       20,
		FooterMinTopRatio:     0.5,
		FooterMinWidth:        200,
		FooterMinHeight:       50,
		FooterMinScore:        2,
		FooterMinWidthRatio:   0.8,
		FooterMinLinks:        3,
		FooterMinLabeledLinks: 3,
		ImageMinWidth:         20,
		ImageMinHeight:        20,
		ImageMinAltRatio:      0.5,
		NavMinValidLinks:      2,
		ListMinItems:          2,
		ListMinContentRatio:   0.5,
		TableMinRows:          2,
		ViewportDirective:     "width=device-width",
	}
}

// ContactKeywords is the contact section's keyword set: the generic words
// plus the institution's domain, mail token and city.
func (p Profile) ContactKeywords() []string {
	out := append([]string(nil), p.Keywords.Contact...)
	for _, s := range []string{p.Institution.Domain, p.Institution.Email, p.Institution.City} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FooterYears returns the configured years or, when none are set, the year
// of now and the one before.
func (p Profile) FooterYears(now time.Time) []string {
	if len(p.Institution.Years) > 0 {
		return p.Institution.Years
	}
	y := now.Year()
	return []string{fmt.Sprint(y), fmt.Sprint(y - 1)}
}

// LoadProfile reads a site profile. The defaults are layered first, then the
// file at path (if any), then SITECHECK_PROFILE_* environment variables,
// e.g. SITECHECK_PROFILE_THRESHOLDS_HEADER_MAX_TOP=250.
func LoadProfile(path string) (*Profile, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	base, err := yaml.Marshal(DefaultProfile())
	if err != nil {
		return nil, fmt.Errorf("marshal default profile: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, fmt.Errorf("read default profile: %w", err)
	}

	if path != "" {
		// A separate reader picks the format from the file extension.
		f := viper.New()
		f.SetConfigFile(path)
		if err := f.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read profile %s: %w", path, err)
		}
		if err := v.MergeConfigMap(f.AllSettings()); err != nil {
			return nil, fmt.Errorf("merge profile %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("SITECHECK_PROFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	p := DefaultProfile()
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate rejects profiles that would make every check meaningless.
func (p Profile) Validate() error {
	t := p.Thresholds
	switch {
	case len(p.Institution.Tokens) == 0:
		return fmt.Errorf("profile %q: institution.tokens must not be empty", p.Name)
	case t.FooterMinTopRatio < 0 || t.FooterMinTopRatio > 1:
		return fmt.Errorf("profile %q: footer_min_top_ratio must be within [0,1]", p.Name)
	case t.FooterMinWidthRatio < 0 || t.FooterMinWidthRatio > 1:
		return fmt.Errorf("profile %q: footer_min_width_ratio must be within [0,1]", p.Name)
	case t.ListMinContentRatio < 0 || t.ListMinContentRatio > 1:
		return fmt.Errorf("profile %q: list_min_content_ratio must be within [0,1]", p.Name)
	case t.ImageMinAltRatio < 0 || t.ImageMinAltRatio > 1:
		return fmt.Errorf("profile %q: image_min_alt_ratio must be within [0,1]", p.Name)
	}
	return nil
}
