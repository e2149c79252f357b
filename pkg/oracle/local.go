package oracle

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/solacehealth/solace/pkg/risk"
)

// LocalAssessor runs an on-device ONNX text classifier as the model side
// of the risk pipeline. It exists for deployments that cannot send
// user-authored text to a remote service at all: slower to set up, but no
// text ever leaves the process.
//
// The model is expected to emit one of the pipeline's four level names as
// its label (any casing); anything else is rejected upstream by the same
// strict parse that guards remote oracles.
type LocalAssessor struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.RWMutex
	ready    bool
}

// LocalConfig configures the on-device classifier.
type LocalConfig struct {
	// ModelPath is the directory holding model.onnx plus tokenizer files.
	ModelPath string
	// OnnxLibraryPath points at libonnxruntime; empty selects the pure Go
	// backend (slower, no native dependency).
	OnnxLibraryPath string
}

// NewLocalAssessor initializes the ONNX session and pipeline. Returns an
// error when the model cannot be loaded; callers treat that as "no local
// model" and fall back to a remote oracle or keyword-only operation.
func NewLocalAssessor(cfg LocalConfig) (*LocalAssessor, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("no local model path configured")
	}
	if _, err := os.Stat(filepath.Join(cfg.ModelPath, "model.onnx")); err != nil {
		return nil, fmt.Errorf("local model not found at %s: %w", cfg.ModelPath, err)
	}

	session, err := newLocalSession(cfg.OnnxLibraryPath)
	if err != nil {
		return nil, fmt.Errorf("create inference session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: cfg.ModelPath,
		Name:      "distress-classifier",
	})
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("create classification pipeline: %w", err)
	}

	log.Printf("✓ local distress classifier loaded (model: %s)", cfg.ModelPath)
	return &LocalAssessor{session: session, pipeline: pipeline, ready: true}, nil
}

func newLocalSession(onnxLibraryPath string) (*hugot.Session, error) {
	if onnxLibraryPath != "" {
		session, err := hugot.NewORTSession(options.WithOnnxLibraryPath(onnxLibraryPath))
		if err == nil {
			return session, nil
		}
		log.Printf("[WARN] ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}
	return hugot.NewGoSession()
}

// Ready reports whether the classifier can serve assessments.
func (a *LocalAssessor) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ready
}

// AssessRisk classifies the text locally. Implements risk.Assessor.
func (a *LocalAssessor) AssessRisk(ctx context.Context, text string) (*risk.Assessment, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.ready || a.pipeline == nil {
		return nil, fmt.Errorf("local classifier not ready")
	}

	result, err := a.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("local classification failed: %w", err)
	}
	if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
		return nil, fmt.Errorf("local classifier returned no output")
	}

	out := result.ClassificationOutputs[0][0]
	return &risk.Assessment{
		RiskLabel: strings.ToLower(out.Label),
		Analysis:  fmt.Sprintf("on-device classifier: label=%s score=%.3f", out.Label, out.Score),
	}, nil
}

// Close releases the ONNX session.
func (a *LocalAssessor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ready = false
	if a.session != nil {
		return a.session.Destroy()
	}
	return nil
}
