package resume

import "strings"

const structurePromptTemplate = `You are a resume spacing and structure expert.

TASK
The text below was extracted from a PDF and many words are glued together.
Re-insert the missing spaces between words (for example "MarketingManager" becomes "Marketing Manager")
and organize the content into the JSON document described below.

OUTPUT
Return ONLY a JSON object with no prose and no markdown fences, of exactly this shape:
{
  "full_name": "string",
  "skills": ["string"],
  "experience": [
    {"company": "string", "role": "string", "dates": "string", "bullets": ["string"]}
  ]
}
Use empty strings and empty arrays when a value is not present in the text. Do not invent content.

RAW TEXT
{{RAW_TEXT}}`

// BuildStructurePrompt returns the structuring prompt for rawText.
func BuildStructurePrompt(rawText string) string {
	return strings.Replace(structurePromptTemplate, "{{RAW_TEXT}}", rawText, 1)
}
