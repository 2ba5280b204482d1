package persona

import (
	"context"
	"fmt"
	"strings"
	"time"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// Options bounds a single persona analysis. Retries apply only at this level
// so a flaky dependency never doubles latency across the whole persona set.
type Options struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	EvidenceLimit int
}

// DefaultOptions returns analyzer defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:       45 * time.Second,
		MaxRetries:    2,
		RetryBackoff:  500 * time.Millisecond,
		EvidenceLimit: 5,
	}
}

// base carries the shared plumbing of every concrete analyzer: the completion
// client, the search index for evidence retrieval, and the retry policy.
// Analyzers are stateless across calls.
type base struct {
	def   types.PersonaDefinition
	llm   types.LLMClient
	index types.SearchIndex
	opts  Options
}

func newBase(def types.PersonaDefinition, llm types.LLMClient, index types.SearchIndex, opts Options) base {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.EvidenceLimit <= 0 {
		opts.EvidenceLimit = DefaultOptions().EvidenceLimit
	}
	return base{def: def, llm: llm, index: index, opts: opts}
}

// completeWithRetry calls the completion service with bounded backoff.
// Exhausted retries surface as a DependencyError, never a panic.
func (b *base) completeWithRetry(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	backoff := b.opts.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultOptions().RetryBackoff
	}

	for attempt := 0; attempt <= b.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.APIWarn("%s: completion attempt %d after error: %v", b.def.Name, attempt+1, lastErr)
			select {
			case <-ctx.Done():
				return "", types.NewDependencyError("completion", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := b.llm.CompleteWithSystem(ctx, systemPrompt, userPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		// A dead context will not recover; stop retrying.
		if ctx.Err() != nil {
			break
		}
	}
	return "", types.NewDependencyError("completion", lastErr)
}

// gatherEvidence pulls supporting material from the search index. Evidence
// retrieval is best-effort: an index failure degrades the result instead of
// failing the persona.
func (b *base) gatherEvidence(ctx context.Context, query string) []types.Evidence {
	if b.index == nil {
		return nil
	}
	hits, err := b.index.Search(ctx, query, map[string]string{"domain": b.def.Name}, b.opts.EvidenceLimit)
	if err != nil {
		logging.Get(logging.CategoryPersona).Warn("%s: evidence retrieval failed: %v", b.def.Name, err)
		return nil
	}

	evidence := make([]types.Evidence, 0, len(hits))
	for _, h := range hits {
		evidence = append(evidence, types.Evidence{
			Content:   h.Content,
			Source:    h.ID,
			Relevance: types.Clamp01(h.Score),
		})
	}
	return evidence
}

// confidence derives the persona's self-reported confidence from its
// configured threshold and the amount of evidence found. Deterministic for a
// given evidence count.
func (b *base) confidence(evidenceCount int) float64 {
	c := b.def.ConfidenceThreshold + 0.02*float64(evidenceCount)
	return types.Clamp01(c)
}

// evidenceBlock renders retrieved evidence for prompt inclusion.
func evidenceBlock(evidence []types.Evidence) string {
	if len(evidence) == 0 {
		return "No indexed evidence was found for this query."
	}
	var sb strings.Builder
	sb.WriteString("Relevant indexed material:\n")
	for i, ev := range evidence {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, ev.Source, ev.Content)
	}
	return sb.String()
}

// firstLine returns the first non-empty line of text, for summaries.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
