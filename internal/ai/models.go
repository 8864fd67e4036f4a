package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Analysis holds both services' answers for one image. A failed call leaves its
// slice nil and records the error; the other call is unaffected.
type Analysis struct {
	Faces      []FaceResult
	Emotions   []EmotionResult
	FaceErr    error
	EmotionErr error
	Duration   time.Duration
}

type AnalysisService struct {
	faceClient    FaceDetector
	emotionClient EmotionRecognizer
	log           *logrus.Logger
}

func NewAnalysisService(config *Config, log *logrus.Logger) (*AnalysisService, error) {
	if config.FaceKey == "" || config.EmotionKey == "" {
		return nil, fmt.Errorf("both FACE_API_KEY and EMOTION_API_KEY are required")
	}

	log.WithField("endpoint", config.FaceEndpoint).Info("FaceServiceClient is created")
	log.WithField("endpoint", config.EmotionEndpoint).Info("EmotionServiceClient is created")

	return &AnalysisService{
		faceClient:    NewFaceClient(config.FaceEndpoint, config.FaceKey),
		emotionClient: NewEmotionClient(config.EmotionEndpoint, config.EmotionKey),
		log:           log,
	}, nil
}

// NewAnalysisServiceWithClients wires caller-supplied detectors, mainly for tests.
func NewAnalysisServiceWithClients(face FaceDetector, emotion EmotionRecognizer, log *logrus.Logger) *AnalysisService {
	return &AnalysisService{faceClient: face, emotionClient: emotion, log: log}
}

// Analyze sends imageData to both services concurrently and waits for both.
func (s *AnalysisService) Analyze(ctx context.Context, imageData []byte) *Analysis {
	start := time.Now()

	faceCh := make(chan struct {
		faces []FaceResult
		err   error
	}, 1)
	emotionCh := make(chan struct {
		emotions []EmotionResult
		err      error
	}, 1)

	go func() {
		faces, err := s.faceClient.DetectFaces(ctx, imageData)
		faceCh <- struct {
			faces []FaceResult
			err   error
		}{faces, err}
	}()

	go func() {
		emotions, err := s.emotionClient.RecognizeEmotions(ctx, imageData)
		emotionCh <- struct {
			emotions []EmotionResult
			err      error
		}{emotions, err}
	}()

	analysis := &Analysis{}

	faceResult := <-faceCh
	if faceResult.err != nil {
		s.log.WithError(faceResult.err).Error("Error detecting faces")
		analysis.FaceErr = faceResult.err
	} else {
		analysis.Faces = faceResult.faces
	}

	emotionResult := <-emotionCh
	if emotionResult.err != nil {
		s.log.WithError(emotionResult.err).Error("Error recognizing emotions")
		analysis.EmotionErr = emotionResult.err
	} else {
		analysis.Emotions = emotionResult.emotions
	}

	analysis.Duration = time.Since(start)

	s.log.WithFields(logrus.Fields{
		"faces":    len(analysis.Faces),
		"emotions": len(analysis.Emotions),
		"duration": analysis.Duration,
	}).Debug("analysis finished")

	return analysis
}
