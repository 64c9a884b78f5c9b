package ai

import (
	"context"
	"log"
	"strings"
)

// SyntaxTypes is the fixed set of markdown constructs the suggestions
// operation knows how to explain.
var SyntaxTypes = map[string]struct{}{
	"table":      {},
	"link":       {},
	"code_block": {},
	"list":       {},
	"heading":    {},
	"blockquote": {},
}

func ValidSyntaxType(syntaxType string) bool {
	_, ok := SyntaxTypes[syntaxType]
	return ok
}

// markdownHelpRoutes maps request keywords to suggestion syntax types.
// Order matters: the first matching keyword wins, so a request mentioning
// both "table" and "link" always resolves to table. Existing clients depend
// on this order.
var markdownHelpRoutes = []struct {
	keyword    string
	syntaxType string
}{
	{"table", "table"},
	{"link", "link"},
	{"code", "code_block"},
	{"list", "list"},
	{"header", "heading"},
	{"heading", "heading"},
	{"quote", "blockquote"},
}

// Orchestrator is a stateless dispatcher from named intents to prompt
// templates. Every operation absorbs oracle failures and returns a benign
// default instead of an error.
type Orchestrator struct {
	oracle Completer
}

func NewOrchestrator(oracle Completer) *Orchestrator {
	return &Orchestrator{oracle: oracle}
}

// GenerateTags asks the oracle for 3-7 tags describing the content and
// parses its comma-separated reply. Any failure yields an empty list.
func (o *Orchestrator) GenerateTags(ctx context.Context, content string) []string {
	reply, err := o.oracle.Complete(ctx, Request{
		System:      tagSystem,
		Prompt:      tagPrompt(content),
		Temperature: 0.3,
		MaxTokens:   100,
	})
	if err != nil {
		log.Printf("ai: generate tags: %v", err)
		return []string{}
	}
	return parseTagList(reply)
}

// WritingAssistance splits the content at the cursor offset so the prompt
// carries before/after context.
func (o *Orchestrator) WritingAssistance(ctx context.Context, content string, cursor int, userQuery string) string {
	before, after := splitAtCursor(content, cursor)
	reply, err := o.oracle.Complete(ctx, Request{
		System:      writingSystem,
		Prompt:      writingPrompt(before, after, userQuery),
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		log.Printf("ai: writing assistance: %v", err)
		return fallbackAssistance
	}
	return reply
}

func (o *Orchestrator) MarkdownSuggestions(ctx context.Context, contextText, syntaxType string) string {
	reply, err := o.oracle.Complete(ctx, Request{
		System:      suggestionsSystem,
		Prompt:      suggestionsPrompt(contextText, syntaxType),
		Temperature: 0.3,
		MaxTokens:   300,
	})
	if err != nil {
		log.Printf("ai: markdown suggestions: %v", err)
		return fallbackSuggestions
	}
	return reply
}

func (o *Orchestrator) Summarize(ctx context.Context, content string) string {
	reply, err := o.oracle.Complete(ctx, Request{
		System:      summarySystem,
		Prompt:      summaryPrompt(content),
		Temperature: 0.3,
		MaxTokens:   150,
	})
	if err != nil {
		log.Printf("ai: summarize: %v", err)
		return fallbackSummary
	}
	return reply
}

// Rephrase rewrites content in the requested style; style defaults to
// "clear" when empty.
func (o *Orchestrator) Rephrase(ctx context.Context, content, style string) string {
	if strings.TrimSpace(style) == "" {
		style = "clear"
	}
	reply, err := o.oracle.Complete(ctx, Request{
		System:      rephraseSystem,
		Prompt:      rephrasePrompt(content, style),
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		log.Printf("ai: rephrase: %v", err)
		return fallbackRephrase
	}
	return reply
}

// ChatAssistant answers a free-form message, grounding the prompt in the
// current note content when one is supplied.
func (o *Orchestrator) ChatAssistant(ctx context.Context, message, noteContent string) string {
	reply, err := o.oracle.Complete(ctx, Request{
		System:      chatSystem,
		Prompt:      chatPrompt(message, noteContent),
		Temperature: 0.7,
		MaxTokens:   400,
	})
	if err != nil {
		log.Printf("ai: chat assistant: %v", err)
		return fallbackChat
	}
	return reply
}

func (o *Orchestrator) AnalyzeContent(ctx context.Context, content string) string {
	reply, err := o.oracle.Complete(ctx, Request{
		System:      analyzeSystem,
		Prompt:      analyzePrompt(content),
		Temperature: 0.5,
		MaxTokens:   250,
	})
	if err != nil {
		log.Printf("ai: analyze content: %v", err)
		return fallbackAnalysis
	}
	return reply
}

// MarkdownHelp keyword-sniffs the request and re-routes to the matching
// syntax suggestion; otherwise it uses a lightweight generic prompt.
func (o *Orchestrator) MarkdownHelp(ctx context.Context, request string) string {
	lower := strings.ToLower(request)
	for _, route := range markdownHelpRoutes {
		if strings.Contains(lower, route.keyword) {
			return o.MarkdownSuggestions(ctx, request, route.syntaxType)
		}
	}

	reply, err := o.oracle.Complete(ctx, Request{
		System:      helpSystem,
		Prompt:      helpPrompt(request),
		Temperature: 0.2,
		MaxTokens:   150,
	})
	if err != nil {
		log.Printf("ai: markdown help: %v", err)
		return fallbackHelp
	}
	return reply
}

// parseTagList splits a comma-separated oracle reply into discrete tags,
// trimmed, lowercased, empties dropped.
func parseTagList(reply string) []string {
	parts := strings.Split(reply, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

func splitAtCursor(content string, cursor int) (string, string) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(content) {
		cursor = len(content)
	}
	return content[:cursor], content[cursor:]
}
