package ai

import "fmt"

// System instructions and user-prompt templates, one pair per operation.
// Temperatures and token caps are tuned for each operation's expected
// verbosity.

const (
	tagSystem = "You are an expert content analyzer. Generate concise, relevant tags for markdown content. Return only tags separated by commas."

	writingSystem = "You are a markdown writing assistant. Provide helpful, actionable suggestions to improve writing and markdown formatting. Be concise."

	suggestionsSystem = "You are a markdown syntax expert. Provide clear, accurate markdown formatting examples with brief explanations."

	summarySystem = "You are a content summarization expert. Create concise, informative summaries that capture the essence of the content."

	rephraseSystem = "You are a writing improvement assistant. Rephrase content to be clearer, more engaging, and better structured while preserving the original meaning."

	chatSystem = "You are a helpful AI assistant specializing in markdown note-taking, writing assistance, and content organization. Provide clear, actionable advice."

	analyzeSystem = "You are a content analysis expert. Provide brief, actionable feedback on writing quality, structure, and formatting."

	helpSystem = "You are a markdown syntax expert. Provide clear, concise markdown examples and syntax help. Be brief and practical."
)

// Benign defaults returned when the oracle fails; AI operations degrade
// instead of surfacing errors.
const (
	fallbackAssistance  = "Unable to provide assistance at the moment."
	fallbackSuggestions = "Unable to provide syntax suggestions."
	fallbackSummary     = "Unable to summarize content."
	fallbackRephrase    = "Unable to rephrase content."
	fallbackChat        = "I apologize, but I cannot provide assistance at the moment."
	fallbackAnalysis    = "Unable to analyze content."

	fallbackHelp = "Here are some common markdown patterns:\n\n**Bold**: `**text**`\n*Italic*: `*text*`\n[Link](url): `[text](url)`\n# Header: `# text`\n- List: `- item`"
)

func tagPrompt(content string) string {
	return fmt.Sprintf(`Analyze the following markdown content and generate 3-7 relevant tags that describe the main topics, themes, or categories. Return only the tags as a comma-separated list, no other text.

Content:
%s

Tags:`, content)
}

func writingPrompt(before, after, userQuery string) string {
	prompt := fmt.Sprintf(`You are an AI assistant helping with markdown writing. The user is currently writing:

Content before cursor:
%s

Content after cursor:
%s

Current cursor position is between these sections.`, before, after)

	if userQuery != "" {
		return prompt + "\n\nUser's specific request: " + userQuery
	}
	return prompt + "\n\nProvide helpful suggestions for continuing the content, improving markdown syntax, or completing the current thought. Be concise and specific."
}

func suggestionsPrompt(context, syntaxType string) string {
	return fmt.Sprintf(`Help the user create %s in markdown format.

Context: %s

Provide the exact markdown syntax they need, with a brief explanation. Focus on proper formatting and best practices.`, syntaxType, context)
}

func summaryPrompt(content string) string {
	return fmt.Sprintf(`Summarize the following markdown content in 2-3 sentences. Focus on key points and main ideas:

%s`, content)
}

func rephrasePrompt(content, style string) string {
	return fmt.Sprintf(`Rephrase the following content to make it %s and more engaging while maintaining the original meaning:

%s`, style, content)
}

func chatPrompt(message, noteContent string) string {
	if noteContent == "" {
		return message
	}
	return fmt.Sprintf(`Based on the current note content below, please help with: %s

Current note content:
%s`, message, noteContent)
}

func analyzePrompt(content string) string {
	return fmt.Sprintf(`Analyze this markdown content and provide brief feedback on:
1. Writing quality and clarity
2. Structure and organization
3. Markdown formatting
4. Suggestions for improvement

Content:
%s

Keep feedback concise and actionable.`, content)
}

func helpPrompt(request string) string {
	return fmt.Sprintf(`Help with this markdown request: %q. Provide a concise, practical markdown example or solution. Focus on exact syntax.`, request)
}
