package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerificationTemplate(t *testing.T) {
	body, err := renderTemplate(verificationTemplate, verificationData{
		Name:  "Ann",
		Email: "ann@x.com",
		Code:  "482913",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Ann")
	assert.Contains(t, body, "482913")
	assert.Contains(t, body, "MindWell")
	assert.Contains(t, body, "10 minutes")
}

func TestRenderPasswordResetTemplate(t *testing.T) {
	link := "https://app.mindwell.com/reset-password?token=abc123"
	body, err := renderTemplate(passwordResetTemplate, passwordResetData{
		Name:      "Ann",
		Email:     "ann@x.com",
		ResetLink: link,
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Ann")
	assert.Contains(t, body, link)
	assert.Contains(t, body, "MindWell")
}

func TestRenderTemplateEscapesHTML(t *testing.T) {
	body, err := renderTemplate(verificationTemplate, verificationData{
		Name:  "<script>alert(1)</script>",
		Email: "ann@x.com",
		Code:  "482913",
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}
