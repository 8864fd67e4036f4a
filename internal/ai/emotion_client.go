package ai

import (
	"context"
	"fmt"
)

const emotionRecognizePath = "/emotion/v1.0/recognize"

type EmotionClient struct {
	cognitiveClient
}

func NewEmotionClient(endpoint, apiKey string) *EmotionClient {
	return &EmotionClient{cognitiveClient: newCognitiveClient(endpoint, apiKey)}
}

// RecognizeEmotions returns one score vector per face, in the service's own face order.
func (c *EmotionClient) RecognizeEmotions(ctx context.Context, imageData []byte) ([]EmotionResult, error) {
	var emotions []EmotionResult
	if err := c.post(ctx, c.endpoint+emotionRecognizePath, imageData, &emotions); err != nil {
		return nil, fmt.Errorf("emotion recognize: %w", err)
	}
	if emotions == nil {
		emotions = []EmotionResult{}
	}
	return emotions, nil
}
