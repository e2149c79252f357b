package risk

import (
	"context"
)

// Pipeline evaluates one message end to end: keyword scorer and model
// classifier run concurrently, then fusion produces the verdict. The two
// signal paths have no data dependency on each other; fusion waits for
// both — there is never a partial or early verdict.
type Pipeline struct {
	scorer     *KeywordScorer
	classifier *Classifier
}

// NewPipeline assembles the evaluation pipeline.
func NewPipeline(scorer *KeywordScorer, classifier *Classifier) *Pipeline {
	if scorer == nil {
		scorer = NewKeywordScorer(nil)
	}
	if classifier == nil {
		classifier = NewClassifier(nil, 0)
	}
	return &Pipeline{scorer: scorer, classifier: classifier}
}

// Evaluate classifies text into a fused verdict. The only error condition
// is cancellation of the enclosing conversation turn: an abandoned turn
// commits no verdict at all. Everything else — including a dead oracle —
// resolves to a complete verdict via the classifier's fallback.
func (p *Pipeline) Evaluate(ctx context.Context, text string) (*FusedVerdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modelCh := make(chan ModelSignal, 1)
	go func() {
		modelCh <- p.classifier.Classify(ctx, text)
	}()

	kw := p.scorer.Score(text)

	var model ModelSignal
	select {
	case model = <-modelCh:
	case <-ctx.Done():
		// The in-flight classify call is abandoned with the turn; its
		// own ctx is derived from ours, so it unwinds on its own.
		return nil, ctx.Err()
	}

	// A turn abandoned while the model signal was resolving still commits
	// nothing: the caller gets a complete verdict or none at all.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	verdict := Fuse(kw, model)
	return &verdict, nil
}
