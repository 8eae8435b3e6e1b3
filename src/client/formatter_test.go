package client

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/apimgr/earthquakes/src/server/model"
)

func sampleFeed() *Feed {
	mag := 6.2
	title := "USGS Earthquakes"
	return &Feed{
		Count: 1,
		Earthquakes: []model.EarthquakeEvent{
			{
				ID:         "us1",
				Lat:        35.7,
				Lng:        139.7,
				Depth:      10,
				Magnitude:  &mag,
				Place:      "Tokyo, Japan",
				Time:       1700000000000,
				TimeString: "2023-11-14T22:13:20Z",
			},
		},
		Metadata: model.Metadata{Title: &title},
	}
}

func TestFormatFeedJSON(t *testing.T) {
	f := NewFormatter("json", true)
	out := f.FormatFeed(sampleFeed())

	var decoded Feed
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Count != 1 || decoded.Earthquakes[0].ID != "us1" {
		t.Errorf("round trip lost data: %+v", decoded)
	}
}

func TestFormatFeedPlain(t *testing.T) {
	f := NewFormatter("plain", true)
	out := f.FormatFeed(sampleFeed())

	if !strings.Contains(out, "M6.2") {
		t.Errorf("missing magnitude: %q", out)
	}
	if !strings.Contains(out, "Tokyo, Japan") {
		t.Errorf("missing place: %q", out)
	}
}

func TestFormatFeedTable(t *testing.T) {
	f := NewFormatter("table", true)
	out := f.FormatFeed(sampleFeed())

	if !strings.Contains(out, "PLACE") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "1 earthquakes (USGS Earthquakes)") {
		t.Errorf("missing summary: %q", out)
	}
}

func TestMagnitudeCellNoColor(t *testing.T) {
	f := NewFormatter("table", true)
	if got := f.magnitude(6.2); got != " 6.2" {
		t.Errorf("magnitude cell = %q", got)
	}
}
