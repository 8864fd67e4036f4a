package ai

import (
	"context"
)

type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]FaceResult, error)
}

type EmotionRecognizer interface {
	RecognizeEmotions(ctx context.Context, imageData []byte) ([]EmotionResult, error)
}

type Rectangle struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceLandmarks are the 27 points returned by the face service when landmarks are requested.
type FaceLandmarks struct {
	PupilLeft           Point `json:"pupilLeft"`
	PupilRight          Point `json:"pupilRight"`
	NoseTip             Point `json:"noseTip"`
	MouthLeft           Point `json:"mouthLeft"`
	MouthRight          Point `json:"mouthRight"`
	EyebrowLeftOuter    Point `json:"eyebrowLeftOuter"`
	EyebrowLeftInner    Point `json:"eyebrowLeftInner"`
	EyeLeftOuter        Point `json:"eyeLeftOuter"`
	EyeLeftTop          Point `json:"eyeLeftTop"`
	EyeLeftBottom       Point `json:"eyeLeftBottom"`
	EyeLeftInner        Point `json:"eyeLeftInner"`
	EyebrowRightInner   Point `json:"eyebrowRightInner"`
	EyebrowRightOuter   Point `json:"eyebrowRightOuter"`
	EyeRightInner       Point `json:"eyeRightInner"`
	EyeRightTop         Point `json:"eyeRightTop"`
	EyeRightBottom      Point `json:"eyeRightBottom"`
	EyeRightOuter       Point `json:"eyeRightOuter"`
	NoseRootLeft        Point `json:"noseRootLeft"`
	NoseRootRight       Point `json:"noseRootRight"`
	NoseLeftAlarTop     Point `json:"noseLeftAlarTop"`
	NoseRightAlarTop    Point `json:"noseRightAlarTop"`
	NoseLeftAlarOutTip  Point `json:"noseLeftAlarOutTip"`
	NoseRightAlarOutTip Point `json:"noseRightAlarOutTip"`
	UpperLipTop         Point `json:"upperLipTop"`
	UpperLipBottom      Point `json:"upperLipBottom"`
	UnderLipTop         Point `json:"underLipTop"`
	UnderLipBottom      Point `json:"underLipBottom"`
}

type FacialHair struct {
	Moustache float64 `json:"moustache"`
	Beard     float64 `json:"beard"`
	Sideburns float64 `json:"sideburns"`
}

type FaceAttributes struct {
	Age        float64    `json:"age"`
	Gender     string     `json:"gender"`
	Smile      float64    `json:"smile"`
	FacialHair FacialHair `json:"facialHair"`
}

type FaceResult struct {
	FaceID         string          `json:"faceId"`
	FaceRectangle  Rectangle       `json:"faceRectangle"`
	FaceLandmarks  *FaceLandmarks  `json:"faceLandmarks,omitempty"`
	FaceAttributes *FaceAttributes `json:"faceAttributes,omitempty"`
}

// Scores is the emotion probability vector; each value lies in [0,1].
type Scores struct {
	Anger     float64 `json:"anger"`
	Contempt  float64 `json:"contempt"`
	Disgust   float64 `json:"disgust"`
	Fear      float64 `json:"fear"`
	Happiness float64 `json:"happiness"`
	Neutral   float64 `json:"neutral"`
	Sadness   float64 `json:"sadness"`
	Surprise  float64 `json:"surprise"`
}

type EmotionResult struct {
	FaceRectangle Rectangle `json:"faceRectangle"`
	Scores        Scores    `json:"scores"`
}

type Config struct {
	FaceEndpoint    string
	FaceKey         string
	EmotionEndpoint string
	EmotionKey      string
}
