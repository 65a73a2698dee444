// Package generator turns a topic and a hook style into short opening lines by
// calling OpenAI-compatible chat completion providers.
package generator

import (
	"context"
	"errors"
)

// ErrGenerationFailed is returned for any provider, transport or parse failure.
// Its message is safe to show to end users.
var ErrGenerationFailed = errors.New("failed to generate viral hooks, please try again")

type Style string

const (
	StyleBoldStatement  Style = "bold-statement"
	StyleRelatablePain  Style = "relatable-pain"
	StyleCuriosity      Style = "curiosity"
	StyleTransformation Style = "transformation"
	StyleStorytelling   Style = "storytelling"
)

var styleDescriptions = map[Style]string{
	StyleBoldStatement:  "Bold Statement - Start with a controversial or attention-grabbing statement",
	StyleRelatablePain:  "Relatable Pain - Address common struggles or frustrations your audience faces",
	StyleCuriosity:      "Curiosity - Create mystery or intrigue that makes viewers want to know more",
	StyleTransformation: "Transformation - Show before/after scenarios or promise change",
	StyleStorytelling:   "Storytelling - Begin with a personal story or narrative",
}

func ValidStyle(s string) bool {
	_, ok := styleDescriptions[Style(s)]
	return ok
}

// Description returns the prompt text for the style, falling back to bold-statement.
func (s Style) Description() string {
	if d, ok := styleDescriptions[s]; ok {
		return d
	}
	return styleDescriptions[StyleBoldStatement]
}

// PlatformAll targets every supported short-form platform.
const PlatformAll = "all"

var platformNames = map[string]string{
	"tiktok":    "TikTok",
	"instagram": "Instagram Reels",
	"youtube":   "YouTube Shorts",
}

// ValidPlatform reports whether p is empty, "all", or a known platform.
func ValidPlatform(p string) bool {
	if p == "" || p == PlatformAll {
		return true
	}
	_, ok := platformNames[p]
	return ok
}

func platformLabel(p string) string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return "TikTok/Instagram Reels"
}

type Request struct {
	Topic    string
	Style    Style
	Platform string
	Count    int
}

// Hook is one normalized provider result.
type Hook struct {
	Style   Style
	Content string
}

// Generator produces up to req.Count hooks. Implementations either return at
// least one hook or an error wrapping ErrGenerationFailed, never both.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Hook, error)
}
