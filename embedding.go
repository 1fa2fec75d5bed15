package gemlink

import (
	"fmt"
	"slices"
)

// EmbeddingTaskType tells the embedding model what the vector will be used
// for. Values are the Gemini API's task type names.
type EmbeddingTaskType string

const (
	EmbedRetrievalQuery     EmbeddingTaskType = "RETRIEVAL_QUERY"
	EmbedRetrievalDocument  EmbeddingTaskType = "RETRIEVAL_DOCUMENT"
	EmbedSemanticSimilarity EmbeddingTaskType = "SEMANTIC_SIMILARITY"
	EmbedClassification     EmbeddingTaskType = "CLASSIFICATION"
	EmbedClustering         EmbeddingTaskType = "CLUSTERING"
	EmbedQuestionAnswering  EmbeddingTaskType = "QUESTION_ANSWERING"
	EmbedFactVerification   EmbeddingTaskType = "FACT_VERIFICATION"
	EmbedCodeRetrievalQuery EmbeddingTaskType = "CODE_RETRIEVAL_QUERY"
)

// EmbeddingTaskTypes lists every task type Embed accepts.
var EmbeddingTaskTypes = []EmbeddingTaskType{
	EmbedRetrievalQuery,
	EmbedRetrievalDocument,
	EmbedSemanticSimilarity,
	EmbedClassification,
	EmbedClustering,
	EmbedQuestionAnswering,
	EmbedFactVerification,
	EmbedCodeRetrievalQuery,
}

// EmbeddingOptions holds the per-call settings of an Embed request. Zero
// values leave the choice to the client settings or the API.
type EmbeddingOptions struct {
	Model      string
	Dimensions int
	TaskType   EmbeddingTaskType
}

// EmbeddingOption configures one Embed call.
type EmbeddingOption func(*EmbeddingOptions)

// WithEmbeddingModel overrides the settings' embedding model.
func WithEmbeddingModel(model string) EmbeddingOption {
	return func(o *EmbeddingOptions) {
		o.Model = model
	}
}

// WithEmbeddingDimensions asks the API to truncate the vector to dims values.
func WithEmbeddingDimensions(dims int) EmbeddingOption {
	return func(o *EmbeddingOptions) {
		o.Dimensions = dims
	}
}

func WithEmbeddingTaskType(taskType EmbeddingTaskType) EmbeddingOption {
	return func(o *EmbeddingOptions) {
		o.TaskType = taskType
	}
}

// ApplyEmbeddingOptions folds opts into a fresh EmbeddingOptions. Later
// options win.
func ApplyEmbeddingOptions(opts ...EmbeddingOption) *EmbeddingOptions {
	o := &EmbeddingOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate rejects negative dimensions and task types the API does not know.
func (o *EmbeddingOptions) Validate() error {
	if o.Dimensions < 0 {
		return &ValidationError{Field: "dimensions", Reason: fmt.Sprintf("must not be negative, got %d", o.Dimensions)}
	}
	if o.TaskType != "" && !slices.Contains(EmbeddingTaskTypes, o.TaskType) {
		return &ValidationError{Field: "task type", Reason: fmt.Sprintf("unknown task type %q", o.TaskType)}
	}
	return nil
}
