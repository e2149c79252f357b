package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/solacehealth/solace/pkg/httputil"
	"github.com/solacehealth/solace/pkg/session"
)

// ThemeIndex finds journal entries semantically similar to new text. It
// backs prompt personalization: recurring themes feed the prompt
// generator. Entirely optional; everything degrades to empty results
// when no embedding source is configured.
type ThemeIndex struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	embed       chromem.EmbeddingFunc
	mu          sync.Mutex
}

// ThemeMatch is one similar prior entry.
type ThemeMatch struct {
	Ref        string  `json:"ref"`
	Text       string  `json:"text"`
	Similarity float32 `json:"similarity"`
}

// NewThemeIndex creates an index backed by an Ollama-compatible
// embeddings endpoint.
func NewThemeIndex(baseURL, model string) (*ThemeIndex, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("no embedding endpoint configured")
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &ThemeIndex{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
		embed:       newEmbeddingFunc(model, strings.TrimRight(baseURL, "/")),
	}, nil
}

// newEmbeddingFunc calls the /api/embeddings endpoint.
func newEmbeddingFunc(model, baseURL string) chromem.EmbeddingFunc {
	client := httputil.Client(httputil.TierFast)

	return func(ctx context.Context, text string) ([]float32, error) {
		reqBody, err := json.Marshal(map[string]string{
			"model":  model,
			"prompt": text,
		})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("embedding request failed: %w", err)
		}
		defer httputil.DrainAndClose(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("embedding endpoint returned %d", resp.StatusCode)
		}

		var result struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("decode embedding response: %w", err)
		}
		return result.Embedding, nil
	}
}

// collection returns the per-session collection, creating it on first
// use. Sessions are isolated; one user's themes never match another's.
func (t *ThemeIndex) collection(sessionID string) (*chromem.Collection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.collections[sessionID]; ok {
		return c, nil
	}
	c, err := t.db.CreateCollection("journal_"+sessionID, nil, t.embed)
	if err != nil {
		return nil, fmt.Errorf("create theme collection: %w", err)
	}
	t.collections[sessionID] = c
	return c, nil
}

// Add indexes one journal entry.
func (t *ThemeIndex) Add(ctx context.Context, sessionID string, entry session.JournalEntry) error {
	if t == nil {
		return nil
	}
	c, err := t.collection(sessionID)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:      entry.Ref,
		Content: entry.Text,
		Metadata: map[string]string{
			"timestamp": entry.Timestamp.Format("2006-01-02"),
		},
	}
	if err := c.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("index journal entry: %w", err)
	}
	return nil
}

// Similar returns up to n prior entries closest to the text. A nil
// index or an empty session yields no matches, not an error.
func (t *ThemeIndex) Similar(ctx context.Context, sessionID, text string, n int) ([]ThemeMatch, error) {
	if t == nil {
		return nil, nil
	}
	t.mu.Lock()
	c, ok := t.collections[sessionID]
	t.mu.Unlock()
	if !ok || c.Count() == 0 {
		return nil, nil
	}
	if n > c.Count() {
		n = c.Count()
	}

	results, err := c.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("theme query: %w", err)
	}
	matches := make([]ThemeMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, ThemeMatch{
			Ref:        r.ID,
			Text:       r.Content,
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}
