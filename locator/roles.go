package locator

import "github.com/use-agent/sitecheck/dom"

// Role names registered by Default.
const (
	RoleHeader        = "header"
	RoleLogoLink      = "logo-link"
	RoleNavLink       = "nav-link"
	RoleActionButton  = "action-button"
	RoleFooter        = "footer"
	RoleFooterLink    = "footer-link"
	RoleFooterSection = "footer-section"
	RoleSocialLink    = "social-link"
	RoleImage         = "image"
	RoleSearchInput   = "search-input"
	RoleSearchButton  = "search-button"
	RoleForm          = "form"
	RoleFormInput     = "form-input"
	RoleTextInput     = "text-input"
	RoleButton        = "button"
	RoleLabel         = "label"
	RoleTable         = "table"
	RoleTableHeader   = "table-header"
	RoleTableRow      = "table-row"
	RoleTableCaption  = "table-caption"
	RoleListUnordered = "list-ul"
	RoleListOrdered   = "list-ol"
	RoleListItem      = "list-item"
	RoleViewportMeta  = "viewport-meta"
	RoleConsentButton = "consent-button"
)

var (
	searchWords  = []string{"search", "suche"}
	actionWords  = []string{"learn more", "read more", "get started", "mehr erfahren", "weiterlesen"}
	consentWords = []string{"akzeptieren", "accept", "i agree", "zustimmen"}
	socialHosts  = []string{"facebook", "twitter", "instagram", "linkedin", "tiktok", "youtube", "mastodon", "x.com/"}
)

// ConsentWords returns the button texts that identify a cookie consent
// dialog's accept button.
func ConsentWords() []string {
	return append([]string(nil), consentWords...)
}

// Default returns the standard role table. brand lists lower-case tokens
// that identify the site's own logo in an img alt text (e.g. "rwth").
func Default(brand ...string) *Locator {
	logoAlt := append([]string{"logo"}, brand...)

	return New(map[string]Spec{
		RoleHeader: {
			Union{
				Tag{Tags: []string{"header"}},
				ClassKeyword{Keywords: []string{"header", "navbar", "site-header"}},
			},
			Union{
				AttrContains{Tags: []string{"img"}, Attrs: []string{"alt"}, Keywords: logoAlt},
				AttrEquals{Tags: []string{"a"}, Attr: "href", Value: "/"},
				ClassKeyword{Keywords: []string{"logo"}},
			},
		},
		RoleLogoLink: {
			Union{
				Select{Sel: dom.MustXPath(logoLinkXPath(logoAlt))},
				Select{Sel: dom.MustXPath("//a[@href='/']/img")},
			},
		},
		RoleNavLink: {
			Select{Sel: dom.MustCSS("nav a, header a, .navigation a, .navbar a")},
		},
		RoleActionButton: {
			TextContains{Tags: []string{"a"}, Keywords: actionWords},
		},
		RoleFooter: {
			Tag{Tags: []string{"footer"}},
			AttrEquals{Attr: "role", Value: "contentinfo"},
			Union{
				AttrContains{Tags: []string{"div", "section"}, Attrs: []string{"id"}, Keywords: []string{"footer"}},
				AttrContains{Tags: []string{"div", "section"}, Attrs: []string{"class"}, Keywords: []string{"footer"}},
			},
		},
		RoleFooterLink:    {Tag{Tags: []string{"a"}}},
		RoleFooterSection: {Select{Sel: dom.MustCSS("div, section, ul, ol")}},
		RoleSocialLink: {
			AttrContains{Tags: []string{"a"}, Attrs: []string{"href"}, Keywords: socialHosts},
		},
		RoleImage: {Tag{Tags: []string{"img"}}},
		RoleSearchInput: {
			Select{Sel: dom.MustCSS("input[type=search]")},
			AttrContains{Tags: []string{"input"}, Attrs: []string{"placeholder"}, Keywords: searchWords},
			AttrContains{Tags: []string{"input"}, Attrs: []string{"name", "id"}, Keywords: searchWords},
		},
		RoleSearchButton: {
			Union{
				TextContains{Tags: []string{"button", "a"}, Keywords: searchWords},
				AttrContains{Tags: []string{"button", "a"}, Attrs: []string{"title", "aria-label"}, Keywords: searchWords},
			},
		},
		RoleForm:      {Tag{Tags: []string{"form"}}},
		RoleFormInput: {Select{Sel: dom.MustCSS("input, textarea, select")}},
		RoleTextInput: {
			Select{Sel: dom.MustCSS("input[type=text], input[type=email], input[type=search]")},
		},
		RoleButton: {
			Select{Sel: dom.MustCSS("input[type=submit], input[type=button], button")},
		},
		RoleLabel:         {Tag{Tags: []string{"label"}}},
		RoleTable:         {Tag{Tags: []string{"table"}}},
		RoleTableHeader:   {Tag{Tags: []string{"th"}}},
		RoleTableRow:      {Tag{Tags: []string{"tr"}}},
		RoleTableCaption:  {Tag{Tags: []string{"caption"}}},
		RoleListUnordered: {Tag{Tags: []string{"ul"}}},
		RoleListOrdered:   {Tag{Tags: []string{"ol"}}},
		RoleListItem:      {Tag{Tags: []string{"li"}}},
		RoleViewportMeta:  {Select{Sel: dom.MustCSS("meta[name=viewport]")}},
		RoleConsentButton: {
			TextContains{Tags: []string{"button"}, Keywords: consentWords},
		},
	})
}

// logoLinkXPath builds "//a[img[contains(lower(@alt),'k1') or ...]]".
// XPath 1.0 has no lower-case(), hence translate().
func logoLinkXPath(keywords []string) string {
	const lower = "translate(@alt, 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz')"
	expr := "//a[img["
	for i, kw := range keywords {
		if i > 0 {
			expr += " or "
		}
		expr += "contains(" + lower + ", '" + xpathEscape(Normalize(kw)) + "')"
	}
	return expr + "]]"
}

// xpathEscape drops single quotes; brand tokens never need them.
func xpathEscape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r != '\'' {
			out = append(out, r)
		}
	}
	return string(out)
}
