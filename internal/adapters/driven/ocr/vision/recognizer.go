// Package vision provides a Recognizer backed by Google Cloud Vision
// DOCUMENT_TEXT_DETECTION.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Recognizer implements the interface.
var _ driven.Recognizer = (*Recognizer)(nil)

// Config holds configuration for the Vision recognizer.
type Config struct {
	// CredentialsFile is a service account key. Empty uses application default credentials.
	CredentialsFile string

	// Language hints recognition, e.g. "en". Optional.
	Language string
}

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// Recognizer sends one page image per request to the Vision API.
type Recognizer struct {
	annotate annotateFunc
	close    func() error
	language string
}

// NewRecognizer connects to the Vision API.
func NewRecognizer(ctx context.Context, cfg Config) (*Recognizer, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: vision: creating client: %w", domain.ErrUnavailable, err)
	}
	return &Recognizer{
		annotate: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return client.BatchAnnotateImages(ctx, req)
		},
		close:    client.Close,
		language: cfg.Language,
	}, nil
}

// Recognize returns the full text annotation of the image.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}

	req := &visionpb.AnnotateImageRequest{
		Image:    &visionpb.Image{Content: image},
		Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
	}
	if r.language != "" {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: []string{r.language}}
	}

	resp, err := r.annotate(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: vision: %w", domain.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: vision: %w", domain.ErrUnavailable, err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}

	res := resp.GetResponses()[0]
	if res.GetError() != nil && res.GetError().GetCode() != 0 {
		return "", fmt.Errorf("%w: vision: %s", domain.ErrUnavailable, res.GetError().GetMessage())
	}
	return strings.TrimSpace(res.GetFullTextAnnotation().GetText()), nil
}

// Close closes the API client.
func (r *Recognizer) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
