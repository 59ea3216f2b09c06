package enricher

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	selectorSystemPrompt = "You are an expert web scraping assistant. " +
		"Given a broken CSS or XPath selector and an HTML snippet, " +
		`return a JSON object: {"selector": "<corrected selector>"}. ` +
		"No explanation, just the corrected selector."

	selectorMaxTokens = 100

	// snippetLimit bounds the payload sent for selector recovery so a huge
	// page dump cannot blow up the request cost.
	snippetLimit = 6000
)

// SuggestSelector asks the model for a corrected selector after a scrape
// selector stopped matching. When the model output is unparsable the raw
// trimmed text is returned as a best effort; the caller must validate it
// against a live page before trusting it. Client failures propagate.
func (e *Enricher) SuggestSelector(ctx context.Context, failedSelector, htmlSnippet, purpose string) (string, error) {
	if len(htmlSnippet) > snippetLimit {
		htmlSnippet = htmlSnippet[:snippetLimit]
	}

	user := fmt.Sprintf("Broken selector: %s\n\nHTML snippet:\n%s", failedSelector, htmlSnippet)
	if purpose != "" {
		user = fmt.Sprintf("%s\n\nPurpose: %s", user, purpose)
	}

	raw, err := e.client.Complete(ctx, selectorSystemPrompt, user, selectorMaxTokens)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Selector string `json:"selector"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed.Selector == "" {
		e.logger.Warn("unparsable selector suggestion, returning raw model text")
		return raw, nil
	}

	return parsed.Selector, nil
}
