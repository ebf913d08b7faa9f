package prompt

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWebsitePrompt(t *testing.T) {
	got, err := BuildWebsitePrompt(WebsiteBrief{
		BusinessName: "Sunrise Bakery",
		Tagline:      "Fresh every morning",
		Description:  `Family bakery, "since 1990"`,
		Sections:     []string{"Hero", "Gallery"},
		ContactEmail: "hi@sunrise.test",
		Phone:        "555-0100",
	})
	require.NoError(t, err)

	want := `Create a website for a business named "Sunrise Bakery" with the tagline "Fresh every morning".
Description: "Family bakery, "since 1990"".
Design style: Modern & Clean, Color scheme: Professional Blue.
Include sections: Hero, Gallery.
Contact: Email - hi@sunrise.test, Phone - 555-0100, Instagram - , Facebook - .
Make the layout responsive, clean, and visually appealing.`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("prompt mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWebsitePrompt_DefaultSections(t *testing.T) {
	got, err := BuildWebsitePrompt(WebsiteBrief{BusinessName: "X", DesignStyle: "Tech Noir"})
	require.NoError(t, err)
	assert.Contains(t, got, "Include sections: Hero, About, Services, Contact.")
	assert.Contains(t, got, "Design style: Tech Noir", "unknown styles pass through")
}

func TestBuildWebsitePrompt_RequiresName(t *testing.T) {
	_, err := BuildWebsitePrompt(WebsiteBrief{BusinessName: "  "})
	assert.ErrorIs(t, err, ErrBusinessNameRequired)
}

func TestWebsiteUserPrompt(t *testing.T) {
	assert.Equal(t, "Generate a beautiful, responsive website based on: a yoga studio", WebsiteUserPrompt("a yoga studio"))
}

func TestEmailRequest_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   EmailRequest
		want EmailRequest
	}{
		{"defaults", EmailRequest{Topic: " sale "}, EmailRequest{Topic: "sale", Tone: "professional", Type: "newsletter"}},
		{"unknown tone", EmailRequest{Topic: "t", Tone: "sarcastic", Type: "welcome"}, EmailRequest{Topic: "t", Tone: "professional", Type: "welcome"}},
		{"unknown type", EmailRequest{Topic: "t", Tone: "Casual", Type: "invoice"}, EmailRequest{Topic: "t", Tone: "casual", Type: "custom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestBuildEmailPrompt(t *testing.T) {
	got, err := BuildEmailPrompt(EmailRequest{Topic: "Spring sale", Tone: "enthusiastic", Type: "promotional"})
	require.NoError(t, err)

	assert.Contains(t, got, "Topic: Spring sale\n")
	assert.Contains(t, got, "Tone: enthusiastic (energetic, exciting, motivational, passionate)")
	assert.Contains(t, got, "Structure: promotional email with discount/offer details and urgency")
	assert.Contains(t, got, "Purpose: drive immediate action with special offers")
	assert.Contains(t, got, `"plainText": "Clean text version"`)

	_, err = BuildEmailPrompt(EmailRequest{Topic: "   "})
	assert.ErrorIs(t, err, ErrTopicRequired)
}

func TestBuildChatPrompt(t *testing.T) {
	got, err := BuildChatPrompt("  How do I price cupcakes? ")
	require.NoError(t, err)
	assert.Contains(t, got, "You are BizBot")
	assert.True(t, strings.HasSuffix(got, "\nUser Question: How do I price cupcakes?"))

	_, err = BuildChatPrompt("")
	assert.ErrorIs(t, err, ErrMessageRequired)
}

func TestCatalog(t *testing.T) {
	c := Catalog()
	assert.Len(t, c.Types, 7)
	assert.Len(t, c.Tones, 6)
	assert.Equal(t, []string{"casual", "enthusiastic", "formal", "friendly", "professional", "trustworthy"}, c.ToneNames)
	assert.Equal(t, []string{"announcement", "custom", "followup", "marketing", "newsletter", "promotional", "welcome"}, c.TypeNames)
}
