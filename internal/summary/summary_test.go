package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	testCases := []struct {
		name        string
		html        string
		contains    []string
		notContains []string
	}{
		{
			name:     "Headings and emphasis",
			html:     `<h1>Title</h1><p>Hello <strong>world</strong></p>`,
			contains: []string{"# Title", "Hello **world**"},
		},
		{
			name:     "Lists",
			html:     `<ul><li>one</li><li>two</li></ul>`,
			contains: []string{"- one", "- two"},
		},
		{
			name: "Macro parameters are dropped",
			html: `<p>Intro</p><ac:structured-macro ac:name="info">` +
				`<ac:parameter ac:name="title">HIDDEN-PARAM</ac:parameter>` +
				`<ac:rich-text-body><p>Body text</p></ac:rich-text-body></ac:structured-macro>`,
			contains:    []string{"Intro", "Body text"},
			notContains: []string{"HIDDEN-PARAM"},
		},
		{
			name: "Code macro body is kept",
			html: `<p>Run this:</p><ac:structured-macro ac:name="code">` +
				`<ac:parameter ac:name="language">bash</ac:parameter>` +
				`<ac:plain-text-body><![CDATA[make deploy ENV=prod && echo <done>]]></ac:plain-text-body>` +
				`</ac:structured-macro><p>Then wait.</p>`,
			contains:    []string{"Run this:", "```", "make deploy ENV=prod && echo <done>", "Then wait."},
			notContains: []string{"CDATA"},
		},
		{
			name:     "Page link renders its title",
			html:     `<p>Link <ac:link><ri:page ri:content-title="Runbook"/></ac:link> end</p>`,
			contains: []string{"Link Runbook end"},
		},
		{
			name:     "Attachment link renders its file name",
			html:     `<p>See <ac:link><ri:attachment ri:filename="diagram.png"/></ac:link> here</p>`,
			contains: []string{"See diagram.png here"},
		},
		{
			name: "Link body wins over the target title",
			html: `<p>Read <ac:link><ri:page ri:content-title="Runbook"/>` +
				`<ac:plain-text-link-body><![CDATA[the runbook]]></ac:plain-text-link-body></ac:link> first</p>`,
			contains:    []string{"Read the runbook first"},
			notContains: []string{"Runbook"},
		},
		{
			name:     "Self-closed resource does not swallow text",
			html:     `<p>Before <ri:user ri:account-id="123"/> after</p><p>Next</p>`,
			contains: []string{"Before", "after", "Next"},
		},
	}

	summarizer := New(0)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := summarizer.Summarize(tc.html)
			require.NoError(t, err)
			for _, want := range tc.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tc.notContains {
				assert.NotContains(t, out, unwanted)
			}
			assert.NotContains(t, out, "\n\n\n")
		})
	}
}

func TestSummarizeEmpty(t *testing.T) {
	out, err := New(0).Summarize("   ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSummarizeTruncates(t *testing.T) {
	out, err := New(10).Summarize(`<p>abcdefghijklmnop</p>`)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij…", out)

	out, err = New(100).Summarize(`<p>short</p>`)
	require.NoError(t, err)
	assert.Equal(t, "short", out)
}
