package model

import (
	"fmt"
	"strings"
)

// EmbeddingModel tags the variant of an EmbeddingType.
type EmbeddingModel uint8

const (
	// ModelCustom carries an explicit dimension.
	ModelCustom EmbeddingModel = iota
	// ModelTextEmbedding3Small is OpenAI text-embedding-3-small.
	ModelTextEmbedding3Small
	// ModelTextEmbedding3Large is OpenAI text-embedding-3-large.
	ModelTextEmbedding3Large
)

// String returns the stable name of the model.
func (m EmbeddingModel) String() string {
	switch m {
	case ModelCustom:
		return "custom"
	case ModelTextEmbedding3Small:
		return "text-embedding-3-small"
	case ModelTextEmbedding3Large:
		return "text-embedding-3-large"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m EmbeddingModel) MarshalText() ([]byte, error) {
	switch m {
	case ModelCustom, ModelTextEmbedding3Small, ModelTextEmbedding3Large:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("unknown embedding model %d", uint8(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *EmbeddingModel) UnmarshalText(text []byte) error {
	parsed, err := ParseEmbeddingModel(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseEmbeddingModel parses a model name as produced by String.
func ParseEmbeddingModel(s string) (EmbeddingModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "custom", "":
		return ModelCustom, nil
	case "text-embedding-3-small":
		return ModelTextEmbedding3Small, nil
	case "text-embedding-3-large":
		return ModelTextEmbedding3Large, nil
	default:
		return 0, fmt.Errorf("unknown embedding model %q", s)
	}
}

// EmbeddingType identifies the vector dimensionality of a collection.
//
// It is a tagged variant: presets ignore Dim, ModelCustom uses it.
type EmbeddingType struct {
	Model EmbeddingModel `json:"model"`
	Dim   int            `json:"dim,omitempty"`
}

var (
	// TextEmbedding3Small is the 1536-dimensional preset.
	TextEmbedding3Small = EmbeddingType{Model: ModelTextEmbedding3Small}
	// TextEmbedding3Large is the 3072-dimensional preset.
	TextEmbedding3Large = EmbeddingType{Model: ModelTextEmbedding3Large}
)

// CustomEmbedding returns an embedding type with an explicit dimension.
func CustomEmbedding(dim int) EmbeddingType {
	return EmbeddingType{Model: ModelCustom, Dim: dim}
}

// Dimension returns the vector length required by the embedding type.
func (e EmbeddingType) Dimension() int {
	switch e.Model {
	case ModelTextEmbedding3Small:
		return 1536
	case ModelTextEmbedding3Large:
		return 3072
	case ModelCustom:
		return e.Dim
	default:
		return 0
	}
}

// Validate reports whether the embedding type yields a usable dimension.
func (e EmbeddingType) Validate() error {
	if d := e.Dimension(); d <= 0 {
		return &InvalidDimensionError{Dimension: d}
	}
	return nil
}

// String implements fmt.Stringer.
func (e EmbeddingType) String() string {
	if e.Model == ModelCustom {
		return fmt.Sprintf("custom(%d)", e.Dim)
	}
	return e.Model.String()
}

// InvalidDimensionError indicates an embedding type without a positive dimension.
type InvalidDimensionError struct {
	Dimension int
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}
