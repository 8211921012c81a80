package gcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/yungbote/media-orchestrator/internal/platform/logger"
)

// Vision is the subset of the Cloud Vision API the character adapter uses
// to enrich a chosen character asset with descriptive labels (e.g. "armor",
// "robe", "katana") pulled from a reference thumbnail. Trimmed down to
// label detection only — this pipeline has no document text to extract.
type Vision interface {
	DetectLabels(ctx context.Context, img []byte) ([]Label, error)
	Close() error
}

// Label is one detected label, confidence-sorted descending.
type Label struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

type visionService struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

// NewVision builds a Vision client using ambient GCP credentials (see
// ClientOptionsFromEnv).
func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	ctx := context.Background()
	client, err := vision.NewImageAnnotatorClient(ctx, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &visionService{log: log.With("service", "gcp.Vision"), client: client}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *visionService) DetectLabels(ctx context.Context, img []byte) ([]Label, error) {
	if len(img) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image:    &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: 10}},
	}
	resp, err := s.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		return nil, fmt.Errorf("vision label detection: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 {
		return nil, nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	labels := make([]Label, 0, len(r0.LabelAnnotations))
	for _, l := range r0.LabelAnnotations {
		if l == nil {
			continue
		}
		labels = append(labels, Label{Description: l.Description, Score: float64(l.Score)})
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Score > labels[j].Score })
	return labels, nil
}
