// Package emotion combines face-service and emotion-service results for the same image
// and renders them as text.
package emotion

import (
	"errors"
	"fmt"

	"github.com/kdimtricp/emotioncam/internal/ai"
)

// ErrMisaligned is returned when there are fewer emotion results than faces, so
// positional pairing is impossible.
var ErrMisaligned = errors.New("emotion results do not cover every detected face")

// EmoFace is one detected face with its emotion scores attached.
type EmoFace struct {
	FaceAttributes *ai.FaceAttributes `json:"faceAttributes,omitempty"`
	FaceID         string             `json:"faceId"`
	FaceLandmarks  *ai.FaceLandmarks  `json:"faceLandmarks,omitempty"`
	FaceRectangle  ai.Rectangle       `json:"faceRectangle"`
	Scores         ai.Scores          `json:"scores"`
}

// Merge pairs faces[i] with emotions[i] for every face. The two services detect faces
// independently, so the pairing is only as good as their agreement on ordering; no
// geometric matching is attempted. Extra emotion results are ignored.
func Merge(emotions []ai.EmotionResult, faces []ai.FaceResult) ([]EmoFace, error) {
	emoFaces := make([]EmoFace, 0, len(faces))

	if len(faces) == 0 || len(emotions) == 0 {
		return emoFaces, nil
	}

	if len(emotions) < len(faces) {
		return nil, fmt.Errorf("%w: %d faces, %d emotion results", ErrMisaligned, len(faces), len(emotions))
	}

	for i, face := range faces {
		emoFaces = append(emoFaces, EmoFace{
			FaceAttributes: face.FaceAttributes,
			FaceID:         face.FaceID,
			FaceLandmarks:  face.FaceLandmarks,
			FaceRectangle:  face.FaceRectangle,
			Scores:         emotions[i].Scores,
		})
	}

	return emoFaces, nil
}

// Overlap returns the intersection over union of two rectangles, in [0,1].
func Overlap(a, b ai.Rectangle) float64 {
	left := max(a.Left, b.Left)
	top := max(a.Top, b.Top)
	right := min(a.Left+a.Width, b.Left+b.Width)
	bottom := min(a.Top+a.Height, b.Top+b.Height)

	if right <= left || bottom <= top {
		return 0
	}

	inter := float64((right - left) * (bottom - top))
	union := float64(a.Width*a.Height+b.Width*b.Height) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Disagreements lists the indexes whose paired rectangles overlap less than threshold.
func Disagreements(emotions []ai.EmotionResult, faces []ai.FaceResult, threshold float64) []int {
	var out []int
	for i := 0; i < len(faces) && i < len(emotions); i++ {
		if Overlap(faces[i].FaceRectangle, emotions[i].FaceRectangle) < threshold {
			out = append(out, i)
		}
	}
	return out
}
