// Package rag retrieves college-information chunks for informational
// questions. Chunks are embedded with Gemini and searched by cosine distance
// in Postgres via pgvector.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"google.golang.org/genai"
	"gorm.io/gorm"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
	errx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/core/error"
	logx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/pkg/logger"
)

// Chunk is one embedded slice of the college knowledge base.
type Chunk struct {
	ID        uint            `gorm:"primaryKey"`
	Source    string          `gorm:"index"`
	Content   string          `gorm:"type:text"`
	Embedding pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 uses 768 dimensions
}

func (Chunk) TableName() string { return "knowledge_chunks" }

// Embedder turns text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiEmbedder embeds queries with the Gemini embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	cfg    model.EmbeddingConfig
}

var _ Embedder = (*GeminiEmbedder)(nil)

func NewGeminiEmbedder(client *genai.Client, cfg model.EmbeddingConfig) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, cfg: cfg}
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.cfg.Model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_QUERY",
		OutputDimensionality: genai.Ptr(int32(e.cfg.Dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embed query: empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}

// Retriever performs nearest-neighbour search over the chunk table.
type Retriever struct {
	db       *gorm.DB
	embedder Embedder
}

var _ model.Retriever = (*Retriever)(nil)

func NewRetriever(db *gorm.DB, embedder Embedder) *Retriever {
	return &Retriever{db: db, embedder: embedder}
}

func (r *Retriever) Migrate() error {
	return r.db.AutoMigrate(&Chunk{})
}

// Retrieve embeds the query and returns the topK closest chunks joined into
// one context block, plus their distinct sources.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (*model.RetrievalResult, error) {
	if topK <= 0 {
		topK = 5
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errx.WrapLookup(err)
	}

	var chunks []Chunk
	err = r.db.WithContext(ctx).
		Order(gorm.Expr("embedding <=> ?", pgvector.NewVector(vec))).
		Limit(topK).
		Find(&chunks).Error
	if err != nil {
		return nil, errx.WrapLookup(err)
	}

	logx.Debug().Int("chunks", len(chunks)).Msg("retrieved knowledge chunks")
	return assemble(chunks), nil
}

func assemble(chunks []Chunk) *model.RetrievalResult {
	parts := make([]string, 0, len(chunks))
	seen := make(map[string]bool)
	var sources []string
	for _, c := range chunks {
		parts = append(parts, c.Content)
		if c.Source != "" && !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}
	return &model.RetrievalResult{
		Context: strings.Join(parts, "\n\n---\n\n"),
		Sources: sources,
	}
}
