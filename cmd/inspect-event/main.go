package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kdimtricp/emotioncam/internal/emotion"
	"github.com/kdimtricp/emotioncam/internal/publish"
)

func main() {
	face := flag.Int("face", -1, "Print only the face with this index")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-face N] <eventId>.json...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal("Failed to read event:", err)
		}

		env, err := publish.Decode(data)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}

		printEvent(os.Stdout, env, *face)
	}
}

// printEvent writes the event header and either the full report or, for face >= 0,
// that single face.
func printEvent(w io.Writer, env publish.Envelope, face int) {
	fmt.Fprintf(w, "Event: %s\n", env.EventID)
	fmt.Fprintf(w, "Device: %s\n", env.DeviceID)
	fmt.Fprintf(w, "Time: %s\n", env.Timestamp.Format("2006-01-02 15:04:05"))
	if env.ImageURI != "" {
		fmt.Fprintf(w, "Image: %s\n", env.ImageURI)
	}
	fmt.Fprintln(w)

	if face < 0 {
		fmt.Fprint(w, emotion.FormatReport(env.Faces, env.Location))
		return
	}

	var focus *emotion.EmoFace
	if face < len(env.Faces) {
		focus = &env.Faces[face]
	}
	fmt.Fprint(w, emotion.FormatFocusFace(focus))
}
