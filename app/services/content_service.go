package services

import (
	"context"
	"strings"

	"github.com/artisansally/ally/app/integrations/openai"
	"github.com/artisansally/ally/pkg/logger"
)

type ContentInput struct {
	Keywords []string `json:"keywords" validate:"required,max=20"`
}

type ContentService struct {
	ai *openai.Client
}

func NewContentService(ai *openai.Client) *ContentService {
	return &ContentService{ai: ai}
}

// Generate writes listing titles and a description around the keywords.
// Blank keywords are dropped; none left is ErrNoKeywords.
func (s *ContentService) Generate(ctx context.Context, keywords []string) (*openai.Content, error) {
	cleaned := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoKeywords
	}

	content, err := s.ai.Generate(ctx, cleaned)
	if err != nil {
		logger.WithCtx(ctx).Error("content generation failed", "keywords", cleaned, "error", err)
		return nil, err
	}
	return content, nil
}
