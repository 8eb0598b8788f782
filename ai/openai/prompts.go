package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/exemplar/ai"
)

const detectionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "relationship": {
      "type": "string"
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    }
  },
  "required": ["relationship"],
  "additionalProperties": false
}`

const detectionPromptTemplate = `Classify the relationship between an email sender and one of their recipients and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The relationship field must match exactly one of the listed values: %s.
- Judge from the sender identity and the recipient address.
- A corporate domain shared with the sender usually means "colleague"; an external corporate domain usually means "client" or "vendor" depending on who is selling.
- Free-mail domains (gmail.com, outlook.com, yahoo.com) usually mean "friend" or "family"; a shared surname in the address suggests "family".
- Role addresses (billing@, support@, sales@, noreply@) usually mean "vendor".
- Confidence is optional; include it only when the signal is clear.
- When the evidence is genuinely ambiguous, return "unknown". Never invent a label outside the list.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example (shared corporate domain):
Input:
Sender: jane.doe@acme.com
Recipient: sarah.chen@acme.com
Output:
{"relationship":"colleague","confidence":0.9}

Example (role address at an external company):
Input:
Sender: jane.doe@acme.com
Recipient: billing@cloudhost.io
Output:
{"relationship":"vendor","confidence":0.8}

Example (free-mail with shared surname):
Input:
Sender: jane.doe@acme.com
Recipient: peter.doe@gmail.com
Output:
{"relationship":"family","confidence":0.7}

Example (free-mail, different name):
Input:
Sender: jane.doe@acme.com
Recipient: mike.t.84@gmail.com
Output:
{"relationship":"friend","confidence":0.6}

Example (no usable signal):
Input:
Sender: user-7f3a
Recipient: info@example.org
Output:
{"relationship":"unknown"}`

// buildSystemPrompt creates the system prompt with relationship labels embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(detectionPromptTemplate,
		detectionResponseSchema,
		strings.Join(ai.RelationshipLabels, ", "))
}

// buildUserPrompt renders the classification subject for a single recipient.
func buildUserPrompt(userId, recipientEmail string) string {
	return fmt.Sprintf("Sender: %s\nRecipient: %s", userId, recipientEmail)
}
