package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"kodiak/attachments"
)

// Label is a classified object with a confidence score in [0, 1].
type Label struct {
	Name       string
	Confidence float64
}

// TextRecognizer extracts visible text from an image payload.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, data []byte) (string, error)
}

// ObjectClassifier labels the salient objects in an image payload.
type ObjectClassifier interface {
	Classify(ctx context.Context, data []byte) ([]Label, error)
}

// BarcodeDetector decodes barcodes and QR codes in an image payload.
type BarcodeDetector interface {
	DetectBarcodes(ctx context.Context, data []byte) ([]string, error)
}

// DerivedTextStore persists recognized text back onto the attachment record
// so it survives the in-memory registry. Satisfied by
// *storage.ConversationStore.
type DerivedTextStore interface {
	SetDerivedText(attachmentID, text string) error
}

// ImageAnalysisTool runs the available detectors over an image and assembles a
// text summary. Detectors run concurrently and are each best-effort: a failed
// detector drops its section rather than failing the call. Any detector may be
// nil, in which case its section is simply absent.
type ImageAnalysisTool struct {
	registry   *attachments.Registry
	derived    DerivedTextStore
	recognizer TextRecognizer
	classifier ObjectClassifier
	barcodes   BarcodeDetector
	logger     *zap.Logger
}

// NewImageAnalysisTool creates the image analysis tool. derived may be nil to
// skip OCR write-back; any detector may be nil.
func NewImageAnalysisTool(registry *attachments.Registry, derived DerivedTextStore, recognizer TextRecognizer, classifier ObjectClassifier, barcodes BarcodeDetector, logger *zap.Logger) *ImageAnalysisTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageAnalysisTool{
		registry:   registry,
		derived:    derived,
		recognizer: recognizer,
		classifier: classifier,
		barcodes:   barcodes,
		logger:     logger,
	}
}

// Definition implements Tool.
func (t *ImageAnalysisTool) Definition() mcptypes.Tool {
	return mcptypes.NewTool("analyzeImage",
		mcptypes.WithDescription("Analyze the most recently shared image: detect objects, recognize text, and decode barcodes"),
		mcptypes.WithString("attachment_id",
			mcptypes.Description("ID of a specific image attachment; defaults to the most recent image"),
		),
		mcptypes.WithString("focus",
			mcptypes.Description("Optional aspect to focus the analysis on, e.g. text or objects"),
		),
	)
}

// Call implements Tool.
func (t *ImageAnalysisTool) Call(ctx context.Context, args map[string]any) (string, error) {
	id := strings.TrimSpace(stringArg(args, "attachment_id"))
	if id == "" {
		id = t.registry.LatestImageID()
	}
	if id == "" {
		return "No recent image found to analyze.", nil
	}

	data := t.registry.ImageData(id)
	if len(data) == 0 {
		return "No recent image found to analyze.", nil
	}

	var (
		mu       sync.Mutex
		labels   []Label
		text     string
		codes    []string
		detected bool
	)

	var wg conc.WaitGroup
	if t.classifier != nil {
		wg.Go(func() {
			result, err := t.classifier.Classify(ctx, data)
			if err != nil {
				t.logger.Debug("object classification failed", zap.Error(err))
				return
			}
			mu.Lock()
			labels = result
			mu.Unlock()
		})
	}
	if t.recognizer != nil {
		wg.Go(func() {
			result, err := t.recognizer.RecognizeText(ctx, data)
			if err != nil {
				t.logger.Debug("text recognition failed", zap.Error(err))
				return
			}
			mu.Lock()
			text = strings.TrimSpace(result)
			mu.Unlock()
		})
	}
	if t.barcodes != nil {
		wg.Go(func() {
			result, err := t.barcodes.DetectBarcodes(ctx, data)
			if err != nil {
				t.logger.Debug("barcode detection failed", zap.Error(err))
				return
			}
			mu.Lock()
			codes = result
			mu.Unlock()
		})
	}
	wg.Wait()

	if text != "" && t.derived != nil {
		if err := t.derived.SetDerivedText(id, text); err != nil {
			t.logger.Warn("failed to persist recognized text", zap.String("attachment_id", id), zap.Error(err))
		}
	}

	var b strings.Builder
	b.WriteString("Image analysis summary:")

	if len(labels) > 0 {
		detected = true
		b.WriteString("\nDetected objects:")
		for _, label := range labels {
			fmt.Fprintf(&b, "\n- %s (%.0f%%)", label.Name, label.Confidence*100)
		}
	}
	if text != "" {
		detected = true
		b.WriteString("\nRecognized text:\n")
		b.WriteString(text)
	}
	if len(codes) > 0 {
		detected = true
		b.WriteString("\nBarcodes:")
		for _, code := range codes {
			b.WriteString("\n- " + code)
		}
	}
	if !detected {
		b.WriteString("\nNo significant objects, text, or barcodes detected.")
	}

	if focus := strings.TrimSpace(stringArg(args, "focus")); focus != "" {
		fmt.Fprintf(&b, "\nRequested focus: %s", focus)
	}

	return b.String(), nil
}
