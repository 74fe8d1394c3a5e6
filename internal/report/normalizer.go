// Package report turns the heterogeneous payloads returned by the scoring
// service into one canonical CompatibilityReport.
package report

import (
	"sort"
	"strings"

	api "github.com/resumecurator/analyzer/api/v1alpha1"
)

// expectedComponents are the sub-scores a complete payload carries. Missing
// keys default to 0 and mark the report incomplete.
var expectedComponents = []string{"skills", "experience", "education"}

// Recommendation is one actionable suggestion from the analysis.
type Recommendation struct {
	Title       string  `json:"title"`
	Action      string  `json:"action"`
	ImpactScore float64 `json:"impactScore"`
	EffortLevel string  `json:"effortLevel"`
}

// CompatibilityReport is the canonical scoring model handed to consumers.
type CompatibilityReport struct {
	OverallScore    float64            `json:"overallScore"`
	ComponentScores map[string]float64 `json:"componentScores"`
	Incomplete      bool               `json:"incomplete"`
	Confidence      float64            `json:"confidence"`
	MissingSkills   []string           `json:"missingSkills"`
	Recommendations []Recommendation   `json:"recommendations"`
	// Diagnostic is set when the payload could not be interpreted at all.
	// The orchestrator treats such a report as a failed analysis.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Unusable reports whether the payload carried no interpretable analysis.
func (r *CompatibilityReport) Unusable() bool {
	return r.Diagnostic != ""
}

// Normalize maps a raw analysis snapshot into the canonical report. It never
// panics and never returns an error: scores are clamped to [0,100],
// confidence to [0,1], missing collections default to empty, and a payload
// with no analysis at all yields a zero report with a diagnostic set.
func Normalize(snapshot *api.AnalysisSnapshot) *CompatibilityReport {
	result := &CompatibilityReport{
		ComponentScores: map[string]float64{},
		MissingSkills:   []string{},
		Recommendations: []Recommendation{},
	}

	if snapshot == nil || (snapshot.AnalysisData == nil && snapshot.CompatibilityScore == nil) {
		result.Diagnostic = "analysis payload is empty or has an unknown shape"
		return result
	}

	data := snapshot.AnalysisData

	score, scored := overallScore(snapshot, data)
	if !scored {
		result.Diagnostic = "analysis payload carries no score"
		return result
	}
	result.OverallScore = clamp(score, 0, 100)

	for _, name := range expectedComponents {
		v, ok := componentScore(data, name)
		if !ok {
			result.Incomplete = true
			result.ComponentScores[name] = 0
			continue
		}
		result.ComponentScores[name] = clamp(v, 0, 100)
	}

	if v, ok := asFloat(lookup(data, "confidence")); ok {
		result.Confidence = clamp(v, 0, 1)
	}

	result.MissingSkills = missingSkills(data)
	result.Recommendations = recommendations(snapshot, data)

	return result
}

// overallScore prefers the top-level compatibility_score and falls back to
// the score names the service has used inside analysis_data over time.
func overallScore(snapshot *api.AnalysisSnapshot, data map[string]any) (float64, bool) {
	if snapshot.CompatibilityScore != nil {
		return *snapshot.CompatibilityScore, true
	}
	for _, key := range []string{"compatibility_score", "overall_score", "overallScore"} {
		if v, ok := asFloat(lookup(data, key)); ok {
			return v, true
		}
	}
	return 0, false
}

func componentScore(data map[string]any, name string) (float64, bool) {
	for _, key := range []string{"component_scores", "componentScores"} {
		components, ok := lookup(data, key).(map[string]any)
		if !ok {
			continue
		}
		if v, ok := asFloat(components[name]); ok {
			return v, true
		}
	}
	return 0, false
}

// missingSkills collects the missing skill list, dedup'd case-insensitively
// while preserving order and original casing of the first occurrence.
func missingSkills(data map[string]any) []string {
	skills := []string{}
	seen := map[string]struct{}{}
	for _, key := range []string{"missing_skills", "missingSkills", "keywords_missing"} {
		raw, ok := lookup(data, key).([]any)
		if !ok {
			continue
		}
		for _, item := range raw {
			s, ok := item.(string)
			if !ok || s == "" {
				continue
			}
			folded := strings.ToLower(s)
			if _, dup := seen[folded]; dup {
				continue
			}
			seen[folded] = struct{}{}
			skills = append(skills, s)
		}
		break
	}
	return skills
}

// recommendations normalizes the recommendation list, which the service
// returns either at the top level or inside analysis_data, as plain strings
// or as structured objects. Sorted by impact descending; the stable sort
// keeps the original server order for ties.
func recommendations(snapshot *api.AnalysisSnapshot, data map[string]any) []Recommendation {
	raw, ok := snapshot.Recommendations.([]any)
	if !ok {
		raw, ok = lookup(data, "recommendations").([]any)
	}
	if !ok {
		return []Recommendation{}
	}

	recs := make([]Recommendation, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			if v != "" {
				recs = append(recs, Recommendation{Title: v})
			}
		case map[string]any:
			rec := Recommendation{
				Title:       asString(v, "title"),
				Action:      asString(v, "action"),
				EffortLevel: asString(v, "effort_level", "effortLevel"),
			}
			if score, ok := asFloat(firstOf(v, "impact_score", "impactScore")); ok {
				rec.ImpactScore = score
			}
			if rec.Title == "" {
				rec.Title = asString(v, "description", "text")
			}
			if rec.Title == "" && rec.Action == "" {
				continue
			}
			recs = append(recs, rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].ImpactScore > recs[j].ImpactScore
	})
	return recs
}

func lookup(data map[string]any, key string) any {
	if data == nil {
		return nil
	}
	return data[key]
}

func firstOf(data map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := data[key]; ok {
			return v
		}
	}
	return nil
}

func asString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok {
			return s
		}
	}
	return ""
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
