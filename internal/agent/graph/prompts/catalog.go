package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	errx "github.com/health-assistant-core/server/internal/core/error"
)

//go:embed template/catalog.yaml
var catalogYAML []byte

// Catalog holds the fixed, non-generated messages of the assistant.
type Catalog struct {
	Clarification struct {
		Intro     string   `yaml:"intro"`
		Questions []string `yaml:"questions"`
	} `yaml:"clarification"`
	Rephrase   string    `yaml:"rephrase"`
	RoundLimit string    `yaml:"round_limit"`
	Fallback   Fallbacks `yaml:"fallback"`
}

type Fallbacks struct {
	Default    string `yaml:"default"`
	Timeout    string `yaml:"timeout"`
	Extraction string `yaml:"extraction"`
}

// LoadCatalog parses the embedded catalogue.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	switch {
	case len(c.Clarification.Questions) == 0:
		return nil, fmt.Errorf("prompt catalog: clarification questions are empty")
	case c.Rephrase == "":
		return nil, fmt.Errorf("prompt catalog: rephrase message is empty")
	case c.RoundLimit == "":
		return nil, fmt.Errorf("prompt catalog: round_limit message is empty")
	case c.Fallback.Default == "":
		return nil, fmt.Errorf("prompt catalog: default fallback is empty")
	}
	return &c, nil
}

// ClarificationMessage is the intro followed by one "- question" line each.
func (c *Catalog) ClarificationMessage() string {
	lines := make([]string, 0, len(c.Clarification.Questions))
	for _, q := range c.Clarification.Questions {
		lines = append(lines, "- "+q)
	}
	return c.Clarification.Intro + "\n" + strings.Join(lines, "\n")
}

// FallbackFor picks the reply used when a turn fails with err.
func (c *Catalog) FallbackFor(err error) string {
	var reply string
	switch {
	case errors.Is(err, errx.ErrTurnTimeout):
		reply = c.Fallback.Timeout
	case errors.Is(err, errx.ErrExtraction):
		reply = c.Fallback.Extraction
	case errors.Is(err, errx.ErrMaxRoundsExceeded):
		reply = c.RoundLimit
	}
	if reply == "" {
		reply = c.Fallback.Default
	}
	return reply
}
