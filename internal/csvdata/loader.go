// Package csvdata loads and validates the channel/video statistics CSV that
// feeds the analysis pipeline. Validation runs before any row reaches a
// prompt: a file with a broken header is rejected outright, while individual
// malformed rows are dropped and reported in the validity report.
package csvdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxFileBytes caps the accepted CSV size; anything larger is rejected
// before parsing.
const MaxFileBytes = 10 << 20

// Video is one row of channel statistics.
type Video struct {
	ID          string    `json:"video_id"`
	Title       string    `json:"title"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Comments    int64     `json:"comments"`
	PublishedAt time.Time `json:"published_at"`
	Tags        []string  `json:"tags"`
}

// Report is the structural validity report returned alongside the rows.
type Report struct {
	Valid    bool     `json:"valid"`
	Rows     int      `json:"rows"`
	Skipped  int      `json:"skipped"`
	Problems []string `json:"problems,omitempty"`
}

var requiredColumns = []string{
	"video_id", "title", "views", "likes", "comments", "published_at", "tags",
}

// Load parses the statistics CSV at path. A header missing required columns
// or a file over the size cap fails outright; malformed rows are skipped and
// noted in the report. The returned report has Valid=true when every row
// parsed cleanly.
func Load(path string) ([]Video, Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("stat csv: %w", err)
	}
	if info.Size() > MaxFileBytes {
		return nil, Report{}, fmt.Errorf("csv file too large: %d bytes (max %d)", info.Size(), MaxFileBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// Parse reads statistics rows from r. See Load for validation semantics.
func Parse(r io.Reader) ([]Video, Report, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, Report{}, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, Report{}, fmt.Errorf("csv missing required column %q", col)
		}
	}

	var videos []Video
	report := Report{Valid: true}
	line := 1
	for {
		line++
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Valid = false
			report.Skipped++
			report.Problems = append(report.Problems, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		v, err := parseRow(rec, idx)
		if err != nil {
			report.Valid = false
			report.Skipped++
			report.Problems = append(report.Problems, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		videos = append(videos, v)
		report.Rows++
	}

	return videos, report, nil
}

func parseRow(rec []string, idx map[string]int) (Video, error) {
	field := func(name string) string {
		i := idx[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	v := Video{
		ID:    field("video_id"),
		Title: field("title"),
	}
	if v.ID == "" {
		return Video{}, fmt.Errorf("empty video_id")
	}
	if v.Title == "" {
		return Video{}, fmt.Errorf("empty title")
	}

	var err error
	for _, col := range []struct {
		name string
		dst  *int64
	}{
		{"views", &v.Views},
		{"likes", &v.Likes},
		{"comments", &v.Comments},
	} {
		*col.dst, err = strconv.ParseInt(field(col.name), 10, 64)
		if err != nil {
			return Video{}, fmt.Errorf("bad %s value %q", col.name, field(col.name))
		}
		if *col.dst < 0 {
			return Video{}, fmt.Errorf("negative %s value", col.name)
		}
	}

	v.PublishedAt, err = time.Parse("2006-01-02", field("published_at"))
	if err != nil {
		// Full timestamps are accepted too.
		v.PublishedAt, err = time.Parse(time.RFC3339, field("published_at"))
		if err != nil {
			return Video{}, fmt.Errorf("bad published_at value %q", field("published_at"))
		}
	}

	if tags := field("tags"); tags != "" {
		for _, t := range strings.Split(tags, "|") {
			if t = strings.TrimSpace(t); t != "" {
				v.Tags = append(v.Tags, t)
			}
		}
	}

	return v, nil
}
