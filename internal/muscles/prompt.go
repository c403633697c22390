package muscles

import (
	"fmt"
	"strings"
)

const promptTemplate = `You label exercises with muscle groups.
Return ONLY a single JSON object. No markdown. No extra text.
Schema:
{
  "primary": string,
  "secondary": [string]
}
Rules:
- Choose primary from this list:
%s
- Secondary must also come from the list.
- Keep secondary list small (0-3).
- If unsure, choose the closest primary and leave secondary empty.
- For "%s", respond with JSON only.
`

// BuildPrompt renders the classification instructions for one exercise.
func BuildPrompt(taxonomy Taxonomy, name string) string {
	lines := make([]string, 0, taxonomy.Len())
	for _, label := range taxonomy.labels {
		lines = append(lines, "- "+label)
	}
	return fmt.Sprintf(promptTemplate, strings.Join(lines, "\n"), name)
}
