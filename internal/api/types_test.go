package api

import (
	"encoding/json"
	"testing"
)

// realSearchResponse is trimmed from a captured TMDB /search/movie response.
const realSearchResponse = `{
  "page": 1,
  "results": [
    {
      "adult": false,
      "backdrop_path": "/xOMo8BRK7PfcJv9JCnx7s5hj0PX.jpg",
      "genre_ids": [878, 12],
      "id": 693134,
      "original_language": "en",
      "original_title": "Dune: Part Two",
      "popularity": 1218.3,
      "poster_path": "/1pdfLvkbY9ohJlCjQH2CZjjYVvJ.jpg",
      "release_date": "2024-02-27",
      "title": "Dune: Part Two",
      "vote_average": 8.2,
      "vote_count": 4218
    },
    {
      "id": 1000001,
      "title": "Dune Documentary",
      "poster_path": null,
      "release_date": ""
    }
  ],
  "total_pages": 1,
  "total_results": 2
}`

func TestResultsResponse_UnmarshalJSON_RealData(t *testing.T) {
	var resp ResultsResponse
	if err := json.Unmarshal([]byte(realSearchResponse), &resp); err != nil {
		t.Fatalf("Failed to unmarshal real response: %v", err)
	}

	if resp.TotalResults != 2 {
		t.Errorf("TotalResults = %d, want 2", resp.TotalResults)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(resp.Results))
	}

	first := resp.Results[0]
	if first.Year() != "2024" {
		t.Errorf("Year() = %q, want 2024", first.Year())
	}
	if first.VoteAverage != 8.2 {
		t.Errorf("VoteAverage = %v, want 8.2", first.VoteAverage)
	}

	second := resp.Results[1]
	if second.PosterURL() != "" {
		t.Errorf("PosterURL() for null poster = %q, want empty", second.PosterURL())
	}
	if second.Year() != "" {
		t.Errorf("Year() for empty date = %q, want empty", second.Year())
	}
}

func TestMovie_RawPreservesUnknownFields(t *testing.T) {
	var resp ResultsResponse
	if err := json.Unmarshal([]byte(realSearchResponse), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.Results[0].Raw, &raw); err != nil {
		t.Fatalf("Raw is not a JSON object: %v", err)
	}
	if raw["original_title"] != "Dune: Part Two" {
		t.Errorf("raw original_title = %v", raw["original_title"])
	}
	if raw["vote_count"] != float64(4218) {
		t.Errorf("raw vote_count = %v", raw["vote_count"])
	}
}

func TestMovie_PageURL(t *testing.T) {
	m := Movie{ID: 693134}
	if got, want := m.PageURL(), "https://www.themoviedb.org/movie/693134"; got != want {
		t.Errorf("PageURL() = %q, want %q", got, want)
	}
}
