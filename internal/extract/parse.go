// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	decisionRe   = regexp.MustCompile(`(?i)Decision:\s*(YES|NO)`)
	confidenceRe = regexp.MustCompile(`(?i)Confidence:\s*([0-9.]+)`)
	reasonRe     = regexp.MustCompile(`(?i)Reason:\s*(.+)`)
)

// binaryVerdict is the parsed three-line classification response.
type binaryVerdict struct {
	hasCodingTask bool
	confidence    float64
	reason        string
}

// parseBinaryResponse extracts the Decision/Confidence/Reason lines. The
// policy fails toward NO: a missing Decision line means no coding task, a
// missing confidence defaults to a neutral 0.5, so that format drift never
// silently over-counts positives.
func parseBinaryResponse(response string) binaryVerdict {
	v := binaryVerdict{confidence: 0.5, reason: "could not parse reasoning"}

	if m := decisionRe.FindStringSubmatch(response); m != nil {
		v.hasCodingTask = strings.EqualFold(m[1], "YES")
	}
	if m := confidenceRe.FindStringSubmatch(response); m != nil {
		if c, err := strconv.ParseFloat(m[1], 64); err == nil {
			v.confidence = clamp01(c)
		}
	}
	if m := reasonRe.FindStringSubmatch(response); m != nil {
		v.reason = strings.TrimSpace(m[1])
	}

	return v
}

// parseKeyValueBlock parses the detail-extraction response's "Key: value"
// lines into a map with lowercased, underscore-joined keys
// ("Task Description" becomes "task_description"). Lines without a colon
// are skipped.
func parseKeyValueBlock(response string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		if key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}

// parseConfidenceField reads a confidence value from a parsed field map,
// defaulting to a neutral 0.5 when absent or malformed.
func parseConfidenceField(fields map[string]string) float64 {
	raw, ok := fields["confidence"]
	if !ok {
		return 0.5
	}
	c, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0.5
	}
	return clamp01(c)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
