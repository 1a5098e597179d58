package worker

import (
	"fmt"
	"strings"

	"github.com/castforge/studio-backend/internal/models"
)

// BuildWebVTT renders transcript segments as a WebVTT document. Segments
// are expected in start-time order; speakers become voice tags.
func BuildWebVTT(segments []*models.TranscriptSegment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")

	for _, seg := range segments {
		b.WriteString(vttTimestamp(seg.StartMs))
		b.WriteString(" --> ")
		b.WriteString(vttTimestamp(seg.EndMs))
		b.WriteString("\n")
		if seg.Speaker != nil && *seg.Speaker != "" {
			fmt.Fprintf(&b, "<v %s>%s\n\n", *seg.Speaker, seg.Text)
		} else {
			fmt.Fprintf(&b, "%s\n\n", seg.Text)
		}
	}

	return b.String()
}

func vttTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
