package prompts

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// HistoryLine is one rendered line of the conversation transcript.
type HistoryLine struct {
	Speaker string // "Employee" or "AI"
	Content string
}

// RenderQueryRewriterPrompt renders the instructions, few-shot examples,
// serialized conversation and the current query for the search-query rewrite.
func RenderQueryRewriterPrompt(history []HistoryLine, query string) (string, error) {
	data := struct {
		History []HistoryLine
		Query   string
	}{
		History: history,
		Query:   query,
	}

	return render("templates/query_rewriter.md", data)
}

// RenderAnswerSystemPrompt renders the grounded-answer system prompt around the packed context.
func RenderAnswerSystemPrompt(orgName, context string) (string, error) {
	data := struct {
		OrgName string
		Context string
	}{
		OrgName: orgName,
		Context: context,
	}

	return render("templates/answer_system.md", data)
}

func render(templatePath string, data any) (string, error) {
	content, err := templatesFS.ReadFile(templatePath)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(templatePath).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
