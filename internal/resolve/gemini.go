package resolve

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when the configuration names no model.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiMatcher implements the AI-assisted tier against the Gemini API.
type GeminiMatcher struct {
	client *genai.Client
	model  string
}

// NewGeminiMatcher creates a matcher with the given API key.
func NewGeminiMatcher(ctx context.Context, apiKey, model string) (*GeminiMatcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiMatcher{client: client, model: model}, nil
}

// Match asks the model to pick the roster name the raw name refers to.
// The reply is trusted only if, after trimming, it equals one candidate;
// anything else (including "NO_MATCH") means no match.
func (m *GeminiMatcher) Match(ctx context.Context, rawName string, candidates []string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model,
		genai.Text(matchPrompt(rawName, candidates)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	answer := strings.Trim(strings.TrimSpace(resp.Text()), "\"'`")
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.EqualFold(answer, "NO_MATCH") {
		return "", nil
	}
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c), answer) {
			return c, nil
		}
	}
	return "", nil
}

func matchPrompt(rawName string, candidates []string) string {
	var b strings.Builder
	b.WriteString("You are matching a student attendance name to a class roster.\n")
	b.WriteString("The roster holds full names in \"Last Name, First Name Middle Name\" format.\n\n")
	fmt.Fprintf(&b, "Attendance name: %q\n", rawName)
	b.WriteString("Roster names:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString(`
The attendance name may be partial or reordered:
- "Natasha Budiman" (first + last, missing middle)
- "Budiman, Natasha" (last + first, missing middle)
- "Natasha C Budiman" (first + middle initial + last)

First and last name must match; a missing middle name is still a match, but a
middle initial present in both must agree.

Return ONLY the matching roster name exactly as listed, or NO_MATCH. No explanation.`)
	return b.String()
}
