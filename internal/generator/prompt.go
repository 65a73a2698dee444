package generator

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a viral content expert specializing in TikTok and Instagram Reels hooks. " +
	"Generate engaging, attention-grabbing hooks that drive maximum engagement. Respond only with valid JSON."

func buildUserPrompt(req Request) string {
	desc := req.Style.Description()
	return fmt.Sprintf(`Generate %d viral hooks for %s.

Niche/Topic: %s
Hook Style: %s

Requirements:
- Keep each hook under 12 words
- Make them viral and engaging
- Focus on %s
- Return a JSON object with format: {"hooks": [{"style": "%s", "content": "hook text"}]}

Examples of good viral hooks:
- "POV: You've been doing this wrong your whole life"
- "The secret nobody tells you about..."
- "When you realize everyone lied to you about..."
- "This changed everything for me..."
- "Nobody talks about this but..."

Generate %d hooks now:`,
		req.Count, platformLabel(req.Platform), req.Topic, desc, strings.ToLower(desc), req.Style, req.Count)
}
