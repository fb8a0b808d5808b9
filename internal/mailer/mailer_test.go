package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBodyAlternative(t *testing.T) {
	body, ctype, err := buildBody(Message{HTML: "<p>hi</p>", Text: "hi"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ctype, "multipart/alternative; boundary="))
	assert.Contains(t, body, "<p>hi</p>")
	assert.Contains(t, body, "text/plain")
	assert.Contains(t, body, "text/html")
	// text part must come before the html part
	assert.Less(t, strings.Index(body, "text/plain"), strings.Index(body, "text/html"))
}

func TestBuildBodySinglePart(t *testing.T) {
	body, ctype, err := buildBody(Message{Text: "plain only"})
	require.NoError(t, err)
	assert.Equal(t, `text/plain; charset="utf-8"`, ctype)
	assert.Contains(t, body, "plain only")

	body, ctype, err = buildBody(Message{HTML: "<b>html only</b>"})
	require.NoError(t, err)
	assert.Equal(t, `text/html; charset="utf-8"`, ctype)
	assert.Contains(t, body, "<b>html only</b>")
}

func TestBuildBodyEmpty(t *testing.T) {
	_, _, err := buildBody(Message{})
	assert.Error(t, err)
}

func TestSendRequiresConfiguration(t *testing.T) {
	m := &SMTP{}
	err := m.Send(Message{To: "a@b.c", Subject: "x", Text: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration missing")
}
