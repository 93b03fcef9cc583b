// Package policy answers "what does the coverage actually say" questions
// from a small embedded document set. Documents are chunked once at startup
// and retrieval is keyword-overlap scoring over those chunks.
package policy

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed docs/*.md
var docsFS embed.FS

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50
	defaultTopK         = 3

	// NoMatchContext is returned when no chunk scores above the threshold.
	NoMatchContext = "No relevant policy information found."
)

type Config struct {
	ChunkSize    int `envconfig:"CHUNK_SIZE" split_words:"true" default:"500"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" split_words:"true" default:"50"`
	TopK         int `envconfig:"TOP_K" split_words:"true" default:"3"`
}

// Chunk is one scored unit of a policy document.
type Chunk struct {
	Source  string
	Content string
}

type scoredChunk struct {
	chunk Chunk
	score float64
}

// Retriever holds the chunked corpus. Safe for concurrent use after New.
type Retriever struct {
	chunks []Chunk
	topK   int
}

// New chunks the embedded policy documents. Only returns an error if the
// embedded corpus is unreadable, which would be a build defect.
func New(cfg Config) (*Retriever, error) {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 || overlap >= chunkSize {
		overlap = defaultChunkOverlap
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	entries, err := fs.ReadDir(docsFS, "docs")
	if err != nil {
		return nil, fmt.Errorf("read policy docs: %w", err)
	}

	var chunks []Chunk
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		raw, err := fs.ReadFile(docsFS, path.Join("docs", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read policy doc %s: %w", entry.Name(), err)
		}
		source := strings.TrimSuffix(entry.Name(), ".md")
		for _, content := range splitChunks(string(raw), chunkSize, overlap) {
			chunks = append(chunks, Chunk{Source: source, Content: content})
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("policy corpus is empty")
	}

	return &Retriever{chunks: chunks, topK: topK}, nil
}

// ChunkCount reports the corpus size, used by the health endpoint.
func (r *Retriever) ChunkCount() int {
	return len(r.chunks)
}

// Search returns up to k chunks scored above zero, best first.
func (r *Retriever) Search(query string, k int) []Chunk {
	if k <= 0 {
		k = r.topK
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	scored := make([]scoredChunk, 0, len(r.chunks))
	for _, c := range r.chunks {
		if s := score(terms, c.Content); s > 0 {
			scored = append(scored, scoredChunk{chunk: c, score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	out := make([]Chunk, len(scored))
	for i, sc := range scored {
		out[i] = sc.chunk
	}
	return out
}

// Query runs a search and formats the hits into an LLM context block.
func (r *Retriever) Query(query string) string {
	return FormatContext(r.Search(query, 0))
}

// FormatContext joins chunks with source attribution, the shape the role
// prompts expect.
func FormatContext(chunks []Chunk) string {
	if len(chunks) == 0 {
		return NoMatchContext
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", c.Source, strings.TrimSpace(c.Content))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// splitChunks cuts text into ~size character windows on word boundaries,
// carrying overlap characters of context between neighbors.
func splitChunks(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	for _, w := range words {
		if current.Len() > 0 && current.Len()+1+len(w) > size {
			chunk := current.String()
			chunks = append(chunks, chunk)
			current.Reset()
			if overlap > 0 && len(chunk) > overlap {
				tail := chunk[len(chunk)-overlap:]
				if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx+1 < len(tail) {
					tail = tail[idx+1:]
				}
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(w)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "do": {}, "does": {}, "for": {}, "from": {}, "how": {},
	"i": {}, "in": {}, "is": {}, "it": {}, "my": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "what": {},
	"when": {}, "why": {}, "with": {}, "you": {},
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// score counts distinct query terms present in the chunk, weighted by their
// in-chunk frequency. Matching more distinct terms always beats repeating
// one term.
func score(terms []string, content string) float64 {
	chunkTerms := tokenize(content)
	if len(chunkTerms) == 0 {
		return 0
	}
	freq := make(map[string]int, len(chunkTerms))
	for _, t := range chunkTerms {
		freq[t]++
	}

	seen := make(map[string]struct{}, len(terms))
	var total float64
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if n := freq[t]; n > 0 {
			total += 1 + float64(n)/float64(len(chunkTerms))
		}
	}
	return total
}
