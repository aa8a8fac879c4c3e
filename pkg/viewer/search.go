package viewer

import (
	"fmt"
	"regexp"
)

// SearchResult lists the matching vertex indices of one series
type SearchResult struct {
	Series  SeriesID
	Indices []int
}

// Search matches term, a case-insensitive regular expression, against the
// labels of every series. Series without labels or matches are omitted.
func (v *Viewer) Search(term string) ([]SearchResult, error) {
	re, err := regexp.Compile("(?i)" + term)
	if err != nil {
		return nil, fmt.Errorf("viewer: search %q: %w", term, err)
	}

	var results []SearchResult
	for _, id := range v.order {
		s := v.series[id].series
		var hits []int
		for i, label := range s.Labels {
			if re.MatchString(label) {
				hits = append(hits, i)
			}
		}
		if len(hits) > 0 {
			results = append(results, SearchResult{Series: id, Indices: hits})
		}
	}
	return results, nil
}

// SelectMatches selects every search hit in interactive series. The
// indicators are updated and the click callback fires once, with the most
// recently appended selection item, also when a collaborator fails part way.
// It returns the number of vertices now selected by the search.
func (v *Viewer) SelectMatches(term string) (int, error) {
	results, err := v.Search(term)
	if err != nil {
		return 0, err
	}

	n, err := v.selectResults(results)
	if n > 0 {
		v.updateIndicators()
		v.notifyLast()
	}
	return n, err
}

func (v *Viewer) selectResults(results []SearchResult) (int, error) {
	n := 0
	for _, r := range results {
		e := v.series[r.Series]
		if e.index == nil {
			continue
		}
		for _, index := range r.Indices {
			p, err := e.index.ScreenPosition(index)
			if err != nil {
				return n, err
			}
			if _, err := v.selectAt(e, index, p); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
