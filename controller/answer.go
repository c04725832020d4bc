package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/DanielC11038/TempSlackBot/model"
	"github.com/DanielC11038/TempSlackBot/platforms/openai"
	"github.com/DanielC11038/TempSlackBot/store"
)

// noMetricsMarker is what the authoritative-facts section says when no
// metrics artifact exists, so prompt assembly always has a facts section.
const noMetricsMarker = "No metrics available for this event."

// localRetrievalLimit bounds how many match summaries the local heuristic
// contributes.
const localRetrievalLimit = 5

// retrievalStrategy is one grounding attempt. Returning empty text without
// an error means "nothing found here, try the next one". Errors are logged
// by the caller and treated the same way; grounding never blocks
// answering.
type retrievalStrategy func(ctx context.Context, question, eventKey string) (string, error)

func (c *controller) Answer(ctx context.Context, question, eventKey string) string {
	retrieved := c.retrieveContext(ctx, question, eventKey)
	facts := c.authoritativeFacts(eventKey)

	prompt := assemblePrompt(facts, retrieved, question)

	messages := make([]openai.Message, 0, 2)
	if c.instructions != "" {
		messages = append(messages, openai.Message{Role: openai.RoleSystem, Content: c.instructions})
	}
	messages = append(messages, openai.Message{Role: openai.RoleUser, Content: prompt})

	answer, err := c.ai.ChatCompletion(ctx, messages, c.maxTokens)
	if err != nil {
		// The pipeline always produces some answer text, even when that
		// text describes a failure.
		return fmt.Sprintf("Error calling the model service: %v", err)
	}
	return answer
}

func (c *controller) retrieveContext(ctx context.Context, question, eventKey string) string {
	if eventKey == "" {
		return ""
	}

	for _, strategy := range c.retrievalChain() {
		text, err := strategy(ctx, question, eventKey)
		if err != nil {
			if openai.IsRetrievalUnsupported(err) {
				c.logger.Debug("indexed retrieval unsupported by model, falling back",
					zap.String("event", eventKey))
			} else {
				c.logger.Warn("retrieval strategy failed, falling back",
					zap.String("event", eventKey), zap.Error(err))
			}
			continue
		}
		if text != "" {
			return text
		}
	}
	return ""
}

// retrievalChain is the ordered list of grounding strategies: indexed
// retrieval first, then the local heuristic extract of recent matches.
func (c *controller) retrievalChain() []retrievalStrategy {
	return []retrievalStrategy{
		c.indexedRetrieval,
		c.localMatchRetrieval,
	}
}

func (c *controller) indexedRetrieval(ctx context.Context, question, eventKey string) (string, error) {
	indexID, ok := c.store.GetIndexID(eventKey)
	if !ok {
		return "", nil
	}

	messages := []openai.Message{
		{Role: openai.RoleUser, Content: question},
	}
	return c.ai.ChatCompletionWithRetrieval(ctx, messages, c.maxTokens, []string{indexID})
}

// localMatchRetrieval reads the persisted matches and summarizes the most
// recent handful, preferring final-tier matches when any exist.
func (c *controller) localMatchRetrieval(_ context.Context, _ string, eventKey string) (string, error) {
	blob, err := c.store.ReadArtifact(eventKey, store.KindMatches)
	if err != nil {
		return "", err
	}

	var matches []model.Match
	if err := json.Unmarshal(blob, &matches); err != nil {
		return "", fmt.Errorf("error parsing matches artifact for %s: %w", eventKey, err)
	}

	finals := make([]model.Match, 0)
	for _, m := range matches {
		if m.CompLevel == model.CompLevelFinal {
			finals = append(finals, m)
		}
	}
	if len(finals) > 0 {
		matches = finals
	}

	if len(matches) > localRetrievalLimit {
		matches = matches[len(matches)-localRetrievalLimit:]
	}

	lines := make([]string, 0, len(matches))
	for i := range matches {
		lines = append(lines, matches[i].Summary())
	}
	return strings.Join(lines, "\n"), nil
}

// authoritativeFacts formats the persisted metrics, or the explicit
// no-metrics marker when there are none. It never returns empty text.
func (c *controller) authoritativeFacts(eventKey string) string {
	if eventKey == "" {
		return noMetricsMarker
	}

	blob, err := c.store.ReadArtifact(eventKey, store.KindMetrics)
	if err != nil {
		return noMetricsMarker
	}

	var metrics []model.TeamMetric
	if err := json.Unmarshal(blob, &metrics); err != nil {
		c.logger.Warn("unable to parse metrics artifact", zap.String("event", eventKey), zap.Error(err))
		return noMetricsMarker
	}
	if len(metrics) == 0 {
		return noMetricsMarker
	}

	lines := make([]string, 0, len(metrics))
	for i := range metrics {
		lines = append(lines, metrics[i].StatLine())
	}
	return strings.Join(lines, "\n")
}

// assemblePrompt builds the single user turn: authoritative stats, then
// any retrieved context, then the question, each in its own paragraph.
func assemblePrompt(facts, retrieved, question string) string {
	parts := make([]string, 0, 3)
	if facts != "" {
		parts = append(parts, fmt.Sprintf("Authoritative Stats:\n%s", facts))
	}
	if retrieved != "" {
		parts = append(parts, fmt.Sprintf("Additional Context:\n%s", retrieved))
	}
	parts = append(parts, fmt.Sprintf("Question:\n%s", question))
	return strings.Join(parts, "\n\n")
}
