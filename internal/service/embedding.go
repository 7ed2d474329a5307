package service

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/recipeforge/backend/internal/models"
)

// HashedEmbeddingService is a deterministic bag-of-words embedding. Each
// lowercase token is hashed into one of models.EmbeddingDimensions buckets with
// a sign taken from the hash, and the result is L2-normalized.
type HashedEmbeddingService struct{}

func NewEmbeddingService() *HashedEmbeddingService {
	return &HashedEmbeddingService{}
}

func (s *HashedEmbeddingService) GenerateEmbedding(text string) (pgvector.Vector, error) {
	return GenerateEmbedding(text), nil
}

// GenerateEmbedding returns the hashed embedding of text.
func GenerateEmbedding(text string) pgvector.Vector {
	vec := make([]float32, models.EmbeddingDimensions)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		idx := sum % uint32(len(vec))
		if sum&(1<<31) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return pgvector.NewVector(vec)
}

// recipeEmbeddingText is the text a recipe is embedded from.
func recipeEmbeddingText(r *models.Recipe) string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteByte(' ')
	b.WriteString(r.Description)
	for _, ing := range r.Ingredients {
		b.WriteByte(' ')
		b.WriteString(ing.Name)
	}
	for _, tag := range r.Tags {
		b.WriteByte(' ')
		b.WriteString(tag)
	}
	return b.String()
}
