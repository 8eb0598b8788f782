// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/exemplar/ai"
	"github.com/poiesic/exemplar/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// RelationshipDetector implements ai.RelationshipDetector using
// OpenAI-compatible chat APIs.
type RelationshipDetector struct {
	client llms.Model
	logger *slog.Logger
}

// detection is the wrapper structure for the LLM's JSON response.
type detection struct {
	Relationship string  `json:"relationship"`
	Confidence   float64 `json:"confidence"`
}

// newRelationshipDetector is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRelationshipDetector(config *ai.Config) (*RelationshipDetector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat/classification
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.DetectorHost),
		openai.WithToken("none"),
		openai.WithModel(config.DetectorModel),
	)
	if err != nil {
		return nil, err
	}

	return &RelationshipDetector{
		client: client,
		logger: slog.Default().With("component", "openai-detector"),
	}, nil
}

// NewRelationshipDetector creates a new relationship detector using the
// provided configuration.
//
// Returns ai.RelationshipDetector interface to enforce abstraction.
func NewRelationshipDetector(config *ai.Config) (ai.RelationshipDetector, error) {
	return newRelationshipDetector(config)
}

// DetectRelationship classifies the sender/recipient relationship using an LLM.
//
// The model gets exactly one attempt; callers decide whether a failure is
// fatal or degrades to RelationshipUnknown.
func (d *RelationshipDetector) DetectRelationship(ctx context.Context, userId, recipientEmail string) (core.Relationship, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserPrompt(userId, recipientEmail)),
			},
		},
	}

	response, err := d.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		d.logger.Error("failed to generate content", "recipient", recipientEmail, "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		d.logger.Error("no choices returned from model", "recipient", recipientEmail)
		return "", fmt.Errorf("detector returned no choices for %s", recipientEmail)
	}

	// Strip markdown code fences if present
	responseText := strings.TrimSpace(response.Choices[0].Content)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	// Try to repair common JSON issues
	responseText = repairJSON(responseText)

	var result detection
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		d.logger.Error("error parsing detector response",
			"recipient", recipientEmail,
			"response", responseText,
			"err", err)
		return "", fmt.Errorf("malformed detector response: %w", err)
	}

	rel := core.ParseRelationship(result.Relationship)
	if rel == core.RelationshipUnknown && result.Relationship != string(core.RelationshipUnknown) {
		d.logger.Warn("detector produced off-list label",
			"recipient", recipientEmail,
			"label", result.Relationship)
	}

	d.logger.Debug("detected relationship",
		"recipient", recipientEmail,
		"relationship", rel,
		"confidence", result.Confidence)
	return rel, nil
}

// repairJSON fixes the one malformation small local models reliably emit:
// a missing opening quote before an object key, e.g. `{relationship":` or
// `, confidence":`.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i := 0; i < len(s); {
		c := s[i]
		b.WriteByte(c)
		i++

		if c != '{' && c != ',' {
			continue
		}

		for i < len(s) && (s[i] == ' ' || s[i] == '\n' || s[i] == '\t') {
			b.WriteByte(s[i])
			i++
		}

		start := i
		for i < len(s) && isKeyByte(s[i]) {
			i++
		}

		// A bare key followed by ": lost its opening quote
		if i > start && i+1 < len(s) && s[i] == '"' && s[i+1] == ':' {
			b.WriteByte('"')
		}
		b.WriteString(s[start:i])
	}

	return b.String()
}

func isKeyByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
