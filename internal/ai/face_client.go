package ai

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const faceDetectPath = "/face/v1.0/detect"

// FaceAttributeTypes lists the attributes requested on every detect call.
var FaceAttributeTypes = []string{"age", "gender", "facialHair", "smile"}

type FaceClient struct {
	cognitiveClient
}

func NewFaceClient(endpoint, apiKey string) *FaceClient {
	return &FaceClient{cognitiveClient: newCognitiveClient(endpoint, apiKey)}
}

func (c *FaceClient) detectURL() string {
	q := url.Values{}
	q.Set("returnFaceId", "true")
	q.Set("returnFaceLandmarks", "true")
	q.Set("returnFaceAttributes", strings.Join(FaceAttributeTypes, ","))
	return fmt.Sprintf("%s%s?%s", c.endpoint, faceDetectPath, q.Encode())
}

// DetectFaces returns the faces in imageData in the order the service reports them.
func (c *FaceClient) DetectFaces(ctx context.Context, imageData []byte) ([]FaceResult, error) {
	var faces []FaceResult
	if err := c.post(ctx, c.detectURL(), imageData, &faces); err != nil {
		return nil, fmt.Errorf("face detect: %w", err)
	}
	if faces == nil {
		faces = []FaceResult{}
	}
	return faces, nil
}
