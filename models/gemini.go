package models

// Gemini chat models.
const (
	Gemini25Pro       = "gemini-2.5-pro"
	Gemini25Flash     = "gemini-2.5-flash"
	Gemini25FlashLite = "gemini-2.5-flash-lite"

	// DefaultChatModel is the recommended default model.
	DefaultChatModel = Gemini25Flash
)

// Gemini embedding models.
const (
	// GeminiEmbedding001 produces 3072-dimension vectors by default.
	GeminiEmbedding001 = "gemini-embedding-001"

	// DefaultEmbeddingModel is the recommended default embedding model.
	DefaultEmbeddingModel = GeminiEmbedding001
)
