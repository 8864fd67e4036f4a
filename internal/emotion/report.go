package emotion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kdimtricp/emotioncam/internal/ai"
	"github.com/kdimtricp/emotioncam/internal/geo"
)

const (
	// NoEmotionDetected is reported when there are no merged faces.
	NoEmotionDetected = "No emotion is detected. This might be due to:\n" +
		"    image is too small to detect faces\n" +
		"    no faces are in the images\n" +
		"    faces poses make it difficult to detect emotions\n" +
		"    or other factors\n"

	// NoFaceDetected is reported when the face service found nothing to show.
	NoFaceDetected = "No faces is detected. This might be due to:\n" +
		"    image is too small to detect faces\n" +
		"    no faces are in the images\n" +
		"    faces poses make it difficult to detect faces\n" +
		"    or other factors\n"
)

// EmotionLabels is the fixed order in which scores are reported.
var EmotionLabels = []string{"Anger", "Contempt", "Disgust", "Fear", "Happiness", "Neutral", "Sadness", "Surprise"}

func scoreValues(s ai.Scores) []float64 {
	return []float64{s.Anger, s.Contempt, s.Disgust, s.Fear, s.Happiness, s.Neutral, s.Sadness, s.Surprise}
}

// FormatEmoFaces renders one block per merged face, or the no-emotion explanation.
func FormatEmoFaces(emoFaces []EmoFace) string {
	var sb strings.Builder
	if len(emoFaces) == 0 {
		sb.WriteString(NoEmotionDetected)
		return sb.String()
	}

	for i, f := range emoFaces {
		fmt.Fprintf(&sb, "Face: %d\n", i)
		writeFace(&sb, f)
	}
	return sb.String()
}

// FormatReport is FormatEmoFaces followed by the device position. The position is
// left out when there is nothing to report.
func FormatReport(emoFaces []EmoFace, loc geo.Position) string {
	if len(emoFaces) == 0 {
		return NoEmotionDetected
	}
	return FormatEmoFaces(emoFaces) + formatLocation(loc)
}

// FormatFocusFace renders a single face without an index, or the no-face explanation.
func FormatFocusFace(f *EmoFace) string {
	if f == nil {
		return NoFaceDetected
	}
	var sb strings.Builder
	sb.WriteString("Face\n")
	writeFace(&sb, *f)
	return sb.String()
}

// FormatFaces renders face-service results alone.
func FormatFaces(faces []ai.FaceResult) string {
	if len(faces) == 0 {
		return NoFaceDetected
	}

	var sb strings.Builder
	for i, f := range faces {
		fmt.Fprintf(&sb, "Face[%d]\n", i)
		writeRectangle(&sb, f.FaceRectangle)
		writeAttributes(&sb, f.FaceAttributes)
	}
	return sb.String()
}

// FormatEmotions renders emotion-service results alone, each followed by the position.
func FormatEmotions(emotions []ai.EmotionResult, loc geo.Position) string {
	if len(emotions) == 0 {
		return NoEmotionDetected
	}

	var sb strings.Builder
	for i, e := range emotions {
		fmt.Fprintf(&sb, "Emotion[%d]\n", i)
		writeRectangle(&sb, e.FaceRectangle)
		writeScores(&sb, e.Scores)
		sb.WriteString(formatLocation(loc))
	}
	return sb.String()
}

func writeFace(sb *strings.Builder, f EmoFace) {
	writeRectangle(sb, f.FaceRectangle)
	writeAttributes(sb, f.FaceAttributes)
	writeScores(sb, f.Scores)
}

func writeRectangle(sb *strings.Builder, r ai.Rectangle) {
	fmt.Fprintf(sb, "  FaceRectangle = left: %d, top: %d, width: %d, height: %d\n", r.Left, r.Top, r.Width, r.Height)
}

func writeAttributes(sb *strings.Builder, attrs *ai.FaceAttributes) {
	var a ai.FaceAttributes
	if attrs != nil {
		a = *attrs
	}
	fmt.Fprintf(sb, "  Age: %s.\n", formatDecimal(a.Age))
	fmt.Fprintf(sb, "  Gender: %s\n", a.Gender)
}

func writeScores(sb *strings.Builder, s ai.Scores) {
	for i, v := range scoreValues(s) {
		fmt.Fprintf(sb, "  %s: %s.\n", EmotionLabels[i], formatPercent(v))
	}
}

func formatLocation(loc geo.Position) string {
	return fmt.Sprintf("Long: %s, Lat: %s.\n", formatDecimal(loc.Longitude), formatDecimal(loc.Latitude))
}

// formatPercent renders a [0,1] score as a percentage with two decimals.
func formatPercent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
}

// formatDecimal keeps at most three decimals and drops trailing zeros.
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
