package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/hirematch/internal/models"
)

// SearchIntent says which side of the marketplace a search serves.
type SearchIntent string

const (
	IntentJob       SearchIntent = "job"
	IntentCandidate SearchIntent = "candidate"
)

func (i SearchIntent) describe() string {
	if i == IntentCandidate {
		return "finding a candidate"
	}
	return "finding a job"
}

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildQueryExpansionPrompt asks for a richer search phrase built from the
// user's raw query.
func (pb *PromptBuilder) BuildQueryExpansionPrompt(query string, intent SearchIntent) string {
	return fmt.Sprintf(`You are a search assistant for a job marketplace. A user is %s and typed this search query:

"%s"

Expand the query into a single search phrase that adds closely related skills, tools, technologies and job titles a recruiter would associate with it. Keep any location, seniority, work mode or salary hints from the original query.

Return ONLY the expanded query text in under 100 words. No explanations, no lists, no quotes.`,
		intent.describe(), query)
}

// BuildJobDescriptionPrompt creates prompt for a full job posting draft
func (pb *PromptBuilder) BuildJobDescriptionPrompt(req models.JobDescriptionRequest) string {
	skills := "Not specified"
	if len(req.Skills) > 0 {
		skills = strings.Join(req.Skills, ", ")
	}

	return fmt.Sprintf(`You are an experienced technical recruiter writing a job posting.

JOB TITLE: %s
COMPANY: %s
REQUIRED SKILLS: %s
EXPERIENCE: %s
LOCATION: %s
WORK MODE: %s

Write a professional, inclusive job description with these sections:
1. About the role (2-3 sentences)
2. Responsibilities (5-7 bullet points)
3. Requirements (based on the skills and experience above)
4. Nice to have (2-4 bullet points)
5. What we offer (3-5 bullet points)

Use plain text with simple "-" bullets. Do not invent a salary figure.`,
		req.Title, orDefault(req.Company, "Not specified"), skills,
		orDefault(req.Experience, "Not specified"), orDefault(req.Location, "Not specified"),
		orDefault(req.WorkMode, "Not specified"))
}

// BuildJobAssistPrompt creates prompt for improvement tips on a draft posting
func (pb *PromptBuilder) BuildJobAssistPrompt(title, description string) string {
	return fmt.Sprintf(`You are an expert hiring consultant reviewing a job posting draft.

JOB TITLE: %s

DRAFT DESCRIPTION:
%s

Suggest concrete improvements that would attract more qualified applicants (clarity, missing information, inclusive language, realistic requirements).

Return your response in the following JSON format:
{
  "tips": ["<tip 1>", "<tip 2>", "..."]
}

Give between 3 and 8 tips, each one sentence.`,
		title, description)
}

// BuildStructuredPrompt appends the output contract to a caller-built prompt.
func (pb *PromptBuilder) BuildStructuredPrompt(prompt string, schema []byte) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\nRespond with a single valid JSON value and nothing else.")
	if len(schema) > 0 {
		b.WriteString(" The JSON must conform to this JSON Schema:\n")
		b.Write(schema)
	}
	return b.String()
}

// extractJSON strips markdown code fences and surrounding prose from a
// model response, returning the outermost JSON object or array.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```JSON")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end < start {
		return text[start:]
	}
	return text[start : end+1]
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
