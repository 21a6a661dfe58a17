package csvdata

import (
	"strings"
	"testing"
)

const validCSV = `video_id,title,views,likes,comments,published_at,tags
v1,How to grow tomatoes,15000,1200,85,2026-01-10,gardening|tomatoes
v2,Pruning basics,8000,650,40,2026-02-01,gardening|pruning
`

func TestParse_Valid(t *testing.T) {
	videos, report, err := Parse(strings.NewReader(validCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !report.Valid {
		t.Errorf("expected valid report, got %+v", report)
	}
	if report.Rows != 2 || len(videos) != 2 {
		t.Fatalf("expected 2 rows, got %d (report %d)", len(videos), report.Rows)
	}

	v := videos[0]
	if v.ID != "v1" || v.Title != "How to grow tomatoes" {
		t.Errorf("unexpected first row: %+v", v)
	}
	if v.Views != 15000 || v.Likes != 1200 || v.Comments != 85 {
		t.Errorf("unexpected counts: %+v", v)
	}
	if len(v.Tags) != 2 || v.Tags[0] != "gardening" || v.Tags[1] != "tomatoes" {
		t.Errorf("unexpected tags: %v", v.Tags)
	}
	if v.PublishedAt.Format("2006-01-02") != "2026-01-10" {
		t.Errorf("unexpected published_at: %v", v.PublishedAt)
	}
}

func TestParse_HeaderOrderIndependent(t *testing.T) {
	csv := `title,video_id,tags,views,likes,comments,published_at
Some video,v9,,100,5,1,2026-03-01
`
	videos, report, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !report.Valid || len(videos) != 1 {
		t.Fatalf("expected 1 valid row, got %+v", report)
	}
	if videos[0].ID != "v9" || videos[0].Views != 100 {
		t.Errorf("unexpected row: %+v", videos[0])
	}
}

func TestParse_MissingColumn(t *testing.T) {
	csv := "video_id,title,views\nv1,t,1\n"
	if _, _, err := Parse(strings.NewReader(csv)); err == nil {
		t.Error("expected error for missing required columns")
	}
}

func TestParse_BadRowsSkipped(t *testing.T) {
	csv := `video_id,title,views,likes,comments,published_at,tags
v1,Good,100,1,1,2026-01-01,
v2,Bad views,abc,1,1,2026-01-01,
,Missing id,100,1,1,2026-01-01,
v4,Negative,-5,1,1,2026-01-01,
v5,Bad date,100,1,1,not-a-date,
`
	videos, report, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if report.Valid {
		t.Error("expected report to flag skipped rows")
	}
	if len(videos) != 1 || videos[0].ID != "v1" {
		t.Fatalf("expected only the good row, got %+v", videos)
	}
	if report.Skipped != 4 || len(report.Problems) != 4 {
		t.Errorf("expected 4 skipped rows with problems, got %+v", report)
	}
}

func TestParse_RFC3339Timestamps(t *testing.T) {
	csv := `video_id,title,views,likes,comments,published_at,tags
v1,Timestamped,100,1,1,2026-01-10T15:04:05Z,
`
	videos, report, err := Parse(strings.NewReader(csv))
	if err != nil || !report.Valid {
		t.Fatalf("parse: err=%v report=%+v", err, report)
	}
	if videos[0].PublishedAt.Hour() != 15 {
		t.Errorf("unexpected timestamp: %v", videos[0].PublishedAt)
	}
}
