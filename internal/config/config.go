// Package config parses the bot configuration page into a BotConfig.
//
// The page carries a YAML document (optionally wrapped in a <syntaxhighlight>,
// <source> or <pre> block) declaring chain-data sources and leaderboards.
// Unknown sections are ignored; required fields are strict.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"blue-railroad-bot/internal/domain"
)

// DefaultConfigPage is the wiki page holding the bot configuration.
const DefaultConfigPage = "PickiPedia:BlueRailroadConfig"

// DefaultGallerySize is the number of recent videos shown on a leaderboard.
const DefaultGallerySize = 10

// SortMode selects leaderboard ordering.
type SortMode string

const (
	SortCount  SortMode = "count"
	SortNewest SortMode = "newest"
	SortOldest SortMode = "oldest"
)

// BotConfig is the typed bot configuration for one run.
type BotConfig struct {
	Sources      []domain.SourceDecl // processing order
	Leaderboards []Leaderboard
}

// Leaderboard describes one leaderboard page.
type Leaderboard struct {
	Page        string
	Title       string
	Description string
	SourceKeys  []string // resolved; every entry references a declared source
	Filter      *Filter  // nil matches all tokens
	Sort        SortMode
	Gallery     int // recent videos to show, 0 disables
}

// Source returns the declared source with the given key.
func (c *BotConfig) Source(key string) (domain.SourceDecl, bool) {
	for _, s := range c.Sources {
		if s.Key == key {
			return s, true
		}
	}
	return domain.SourceDecl{}, false
}

// document mirrors the YAML payload.
type document struct {
	Sources      []sourceDoc      `yaml:"sources" validate:"required,min=1,dive"`
	Leaderboards []leaderboardDoc `yaml:"leaderboards" validate:"omitempty,dive"`
}

type sourceDoc struct {
	Key       string `yaml:"key" validate:"required"`
	Version   string `yaml:"version" validate:"required,oneof=V1 V2"`
	Name      string `yaml:"name"`
	NetworkID string `yaml:"network_id"`
	Contract  string `yaml:"contract"`
}

type leaderboardDoc struct {
	Page        string   `yaml:"page" validate:"required"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Sources     []string `yaml:"sources" validate:"omitempty,dive,required"`
	Filter      string   `yaml:"filter"`
	Sort        string   `yaml:"sort" validate:"omitempty,oneof=count newest oldest"`
	Gallery     *int     `yaml:"gallery" validate:"omitempty,min=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report YAML key names in error sections.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse parses a configuration page into a BotConfig.
// Every failure is a *ParseError.
func Parse(text string) (*BotConfig, error) {
	payload := ExtractPayload(text)
	if strings.TrimSpace(payload) == "" {
		return nil, parseErrorf("", "configuration document is empty")
	}

	var doc document
	if err := yaml.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, parseErrorf("", "invalid YAML: %v", err)
	}

	for i := range doc.Sources {
		doc.Sources[i].Key = strings.TrimSpace(doc.Sources[i].Key)
		doc.Sources[i].Version = strings.ToUpper(strings.TrimSpace(doc.Sources[i].Version))
	}
	for i := range doc.Leaderboards {
		doc.Leaderboards[i].Page = strings.TrimSpace(doc.Leaderboards[i].Page)
		doc.Leaderboards[i].Sort = strings.ToLower(strings.TrimSpace(doc.Leaderboards[i].Sort))
	}

	if err := validate.Struct(&doc); err != nil {
		return nil, validationError(err)
	}

	return build(&doc)
}

func build(doc *document) (*BotConfig, error) {
	cfg := &BotConfig{}

	seen := make(map[string]bool, len(doc.Sources))
	for i, s := range doc.Sources {
		if seen[s.Key] {
			return nil, parseErrorf(fmt.Sprintf("sources[%d]", i), "duplicate source key %q", s.Key)
		}
		seen[s.Key] = true
		cfg.Sources = append(cfg.Sources, domain.SourceDecl{
			Key:       s.Key,
			Name:      s.Name,
			Version:   domain.Version(s.Version),
			NetworkID: s.NetworkID,
			Contract:  s.Contract,
		})
	}

	pages := make(map[string]bool, len(doc.Leaderboards))
	for i, lb := range doc.Leaderboards {
		section := fmt.Sprintf("leaderboards[%d]", i)
		if pages[lb.Page] {
			return nil, parseErrorf(section, "duplicate leaderboard page %q", lb.Page)
		}
		pages[lb.Page] = true

		l, err := buildLeaderboard(cfg, section, lb)
		if err != nil {
			return nil, err
		}
		cfg.Leaderboards = append(cfg.Leaderboards, l)
	}

	return cfg, nil
}

func buildLeaderboard(cfg *BotConfig, section string, lb leaderboardDoc) (Leaderboard, error) {
	if err := checkPageTitle(lb.Page); err != nil {
		return Leaderboard{}, parseErrorf(section+".page", "%v", err)
	}

	l := Leaderboard{
		Page:        lb.Page,
		Title:       lb.Title,
		Description: strings.TrimSpace(lb.Description),
		Sort:        SortMode(lb.Sort),
		Gallery:     DefaultGallerySize,
	}
	if l.Title == "" {
		l.Title = l.Page
	}
	if l.Sort == "" {
		l.Sort = SortCount
	}
	if lb.Gallery != nil {
		l.Gallery = *lb.Gallery
	}

	keys := lb.Sources
	if len(keys) == 0 {
		for _, s := range cfg.Sources {
			keys = append(keys, s.Key)
		}
	}
	versions := make(map[domain.Version]bool)
	for _, key := range keys {
		src, ok := cfg.Source(strings.TrimSpace(key))
		if !ok {
			return Leaderboard{}, parseErrorf(section+".sources", "references undeclared source %q", key)
		}
		l.SourceKeys = append(l.SourceKeys, src.Key)
		versions[src.Version] = true
	}

	// newest/oldest compare orderings, which only exist within one version.
	if l.Sort != SortCount && len(versions) > 1 {
		return Leaderboard{}, parseErrorf(section+".sort",
			"sort %q needs sources of a single contract version", l.Sort)
	}

	filter, err := ParseFilter(lb.Filter)
	if err != nil {
		return Leaderboard{}, parseErrorf(section+".filter", "%v", err)
	}
	l.Filter = filter

	return l, nil
}

// maxTitleBytes is the MediaWiki limit on page title length.
const maxTitleBytes = 255

// checkPageTitle rejects titles the wiki would refuse as invalid.
func checkPageTitle(title string) error {
	if len(title) > maxTitleBytes {
		return fmt.Errorf("page title longer than %d bytes", maxTitleBytes)
	}
	if i := strings.IndexAny(title, "#<>[]|{}"); i >= 0 {
		return fmt.Errorf("page title %q contains %q", title, title[i])
	}
	if strings.Contains(title, "~~~") {
		return fmt.Errorf("page title %q contains a signature", title)
	}
	for _, r := range title {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("page title %q contains a control character", title)
		}
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return parseErrorf("", "%v", err)
	}
	fe := verrs[0]
	section := strings.TrimPrefix(fe.Namespace(), "document.")
	switch fe.Tag() {
	case "required":
		return parseErrorf(section, "required field is missing")
	case "min":
		return parseErrorf(section, "must have at least %s entries", fe.Param())
	case "oneof":
		return parseErrorf(section, "value %v is not one of [%s]", fe.Value(), fe.Param())
	default:
		return parseErrorf(section, "failed %q validation", fe.Tag())
	}
}
