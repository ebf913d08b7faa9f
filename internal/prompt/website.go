// Package prompt turns typed user input into the natural-language
// instructions sent to generation providers.
//
// Input is interpolated verbatim. Nothing here defends against prompt
// injection: a description like "ignore previous instructions" reaches the
// model unchanged.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBusinessNameRequired = errors.New("business name is required")
	ErrTopicRequired        = errors.New("prompt is required")
	ErrMessageRequired      = errors.New("message is required")
)

var DesignStyles = []string{
	"Modern & Clean",
	"Classic & Professional",
	"Creative & Bold",
	"Elegant & Sophisticated",
}

var ColorSchemes = []string{
	"Professional Blue",
	"Nature Green",
	"Creative Purple",
	"Energetic Orange",
	"Elegant Rose",
	"Tech Dark",
}

var Sections = []string{"Hero", "About", "Services", "Testimonials", "Contact", "Gallery"}

const (
	DefaultDesignStyle = "Modern & Clean"
	DefaultColorScheme = "Professional Blue"
)

// DefaultSections are included when a brief selects none.
var DefaultSections = []string{"Hero", "About", "Services", "Contact"}

// WebsiteBrief is the structured website form.
type WebsiteBrief struct {
	BusinessName string   `json:"businessName"`
	Tagline      string   `json:"tagline"`
	Description  string   `json:"businessDescription"`
	DesignStyle  string   `json:"designStyle"`
	ColorScheme  string   `json:"colorScheme"`
	Sections     []string `json:"websiteSections"`
	ContactEmail string   `json:"contactEmail"`
	Phone        string   `json:"phoneNumber"`
	Instagram    string   `json:"instagram"`
	Facebook     string   `json:"facebook"`
}

// BuildWebsitePrompt renders a brief into the user prompt for /generate.
// Style and color values outside the known lists are passed through as-is.
func BuildWebsitePrompt(b WebsiteBrief) (string, error) {
	if strings.TrimSpace(b.BusinessName) == "" {
		return "", ErrBusinessNameRequired
	}
	style := b.DesignStyle
	if style == "" {
		style = DefaultDesignStyle
	}
	color := b.ColorScheme
	if color == "" {
		color = DefaultColorScheme
	}
	sections := b.Sections
	if len(sections) == 0 {
		sections = DefaultSections
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a website for a business named \"%s\" with the tagline \"%s\".\n", b.BusinessName, b.Tagline)
	fmt.Fprintf(&sb, "Description: \"%s\".\n", b.Description)
	fmt.Fprintf(&sb, "Design style: %s, Color scheme: %s.\n", style, color)
	fmt.Fprintf(&sb, "Include sections: %s.\n", strings.Join(sections, ", "))
	fmt.Fprintf(&sb, "Contact: Email - %s, Phone - %s, Instagram - %s, Facebook - %s.\n",
		b.ContactEmail, b.Phone, b.Instagram, b.Facebook)
	sb.WriteString("Make the layout responsive, clean, and visually appealing.")
	return sb.String(), nil
}

// WebsiteUserPrompt wraps a free-form description for the website model.
func WebsiteUserPrompt(description string) string {
	return "Generate a beautiful, responsive website based on: " + description
}

// WebsiteSystemPrompt fixes the {html, css} output contract.
const WebsiteSystemPrompt = `You are an expert web designer and developer.
Your task is to generate a complete and visually appealing one-page website as a JSON object with this format:
{
  "html": "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"UTF-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\"><title>Digital Spark</title></head><body><header class=\"hero\"><div class=\"container\"><h1>Welcome to Digital Spark</h1><p>Creative solutions for a digital world</p><a href=\"#contact\" class=\"btn\">Get in Touch</a></div></header><section id=\"about\" class=\"section about\"><div class=\"container\"><h2>About Us</h2><p>We are a full-service digital agency.</p></div></section><section id=\"contact\" class=\"section contact\"><div class=\"container\"><h2>Contact Us</h2><form><input type=\"email\" placeholder=\"Email\" required><button type=\"submit\">Send</button></form></div></section><footer class=\"footer\"><div class=\"container\"><p>&copy; Digital Spark Agency</p></div></footer></body></html>",
  "css": "body{margin:0;font-family:'Roboto',sans-serif;background:#f4f4f4;color:#333;}.container{width:90%;max-width:1200px;margin:0 auto;padding:20px;}.hero{background:#0f172a;color:#fff;text-align:center;padding:100px 20px;}.btn{display:inline-block;padding:10px 25px;background:#3b82f6;color:#fff;border-radius:5px;text-decoration:none;}.btn:hover{background:#2563eb;}.section{padding:60px 0;text-align:center;}.footer{background:#1e293b;color:#fff;text-align:center;padding:20px 0;}"
}
Guidelines:
- Do NOT include any markdown or explanations.
- Only return raw, valid JSON.
- Use attractive color schemes and matching fonts.
- Ensure the site is mobile responsive (use Flexbox/Grid and media queries).
- Add hover effects or smooth transitions where appropriate.
- Design should reflect the business type and style (e.g., modern, elegant, bold).
- Include section-specific IDs/classes for better styling.
- Use Google Fonts (via <link> if needed).
Example sections to include: hero, about, services, testimonials, contact, depending on the input.
Do not output anything else except valid JSON`
