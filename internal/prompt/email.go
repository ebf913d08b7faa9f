package prompt

import (
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultTone      = "professional"
	DefaultEmailType = "newsletter"
	fallbackType     = "custom"
)

// EmailTemplate describes one email type.
type EmailTemplate struct {
	Subject   string `json:"subject"`
	Structure string `json:"structure"`
	Purpose   string `json:"purpose"`
}

var EmailTypes = map[string]EmailTemplate{
	"newsletter": {
		Subject:   "Your Weekly Newsletter",
		Structure: "newsletter with sections, engaging headlines, and call-to-action",
		Purpose:   "inform and engage subscribers with valuable content",
	},
	"marketing": {
		Subject:   "Special Offer Just for You",
		Structure: "marketing email with compelling offer, benefits, and strong CTA",
		Purpose:   "promote products/services and drive sales",
	},
	"announcement": {
		Subject:   "Important Announcement",
		Structure: "clear announcement with details and next steps",
		Purpose:   "communicate important business updates or news",
	},
	"promotional": {
		Subject:   "Limited Time Offer",
		Structure: "promotional email with discount/offer details and urgency",
		Purpose:   "drive immediate action with special offers",
	},
	"welcome": {
		Subject:   "Welcome to Our Community",
		Structure: "welcoming new customers/subscribers with next steps",
		Purpose:   "onboard new customers and build relationships",
	},
	"followup": {
		Subject:   "Following Up on Your Interest",
		Structure: "follow-up email with additional value and next steps",
		Purpose:   "nurture leads and maintain engagement",
	},
	"custom": {
		Subject:   "Custom Email",
		Structure: "custom email based on user prompt",
		Purpose:   "address specific business needs",
	},
}

// Tones maps a tone name to its style guidance.
var Tones = map[string]string{
	"professional": "formal, business-like, respectful, authoritative",
	"casual":       "friendly, relaxed, conversational, approachable",
	"friendly":     "warm, approachable, helpful, personal",
	"formal":       "dignified, proper, official, traditional",
	"enthusiastic": "energetic, exciting, motivational, passionate",
	"trustworthy":  "reliable, honest, credible, reassuring",
}

type EmailRequest struct {
	Topic string `json:"prompt"`
	Tone  string `json:"tone"`
	Type  string `json:"emailType"`
}

// Normalize trims the topic and applies defaults and fallbacks. The
// returned request always names a known tone and type.
func (r EmailRequest) Normalize() EmailRequest {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Tone = strings.ToLower(strings.TrimSpace(r.Tone))
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if r.Tone == "" {
		r.Tone = DefaultTone
	}
	if _, ok := Tones[r.Tone]; !ok {
		r.Tone = DefaultTone
	}
	if r.Type == "" {
		r.Type = DefaultEmailType
	}
	if _, ok := EmailTypes[r.Type]; !ok {
		r.Type = fallbackType
	}
	return r
}

// BuildEmailPrompt renders the email generation prompt with its JSON contract.
func BuildEmailPrompt(req EmailRequest) (string, error) {
	req = req.Normalize()
	if req.Topic == "" {
		return "", ErrTopicRequired
	}
	tpl := EmailTypes[req.Type]

	var sb strings.Builder
	sb.WriteString("Act as an Elite Copywriter.\n")
	fmt.Fprintf(&sb, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&sb, "Tone: %s (%s)\n", req.Tone, Tones[req.Tone])
	fmt.Fprintf(&sb, "Type: %s\n", req.Type)
	fmt.Fprintf(&sb, "Structure: %s\n", tpl.Structure)
	fmt.Fprintf(&sb, "Purpose: %s\n", tpl.Purpose)
	sb.WriteString(`
CRITICAL DESIGN SPECIFICATION:
- The email MUST be clearly visible.
- Use a dark container (#1a1a2e) with bright white or gold text for high contrast.
- Center the content in a 600px wide card with 40px padding.
- Use large, bold headings.
- Ensure the Call-to-Action button is a vibrant blue (#3b82f6) with white text.
- Use inline CSS only and do not include script tags.

Return ONLY a JSON object:
{
  "subject": "Compelling subject line",
  "html": "Full HTML string with inline CSS for dark mode visibility",
  "plainText": "Clean text version"
}`)
	return sb.String(), nil
}

// TemplateCatalog lists what /api/templates exposes.
type TemplateCatalog struct {
	Types map[string]EmailTemplate `json:"available_types"`
	Tones map[string]string        `json:"available_tones"`
	// Names keep a stable order for clients that render pickers.
	TypeNames []string `json:"type_names"`
	ToneNames []string `json:"tone_names"`
}

func Catalog() TemplateCatalog {
	return TemplateCatalog{
		Types:     EmailTypes,
		Tones:     Tones,
		TypeNames: sortedKeys(EmailTypes),
		ToneNames: sortedKeys(Tones),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
