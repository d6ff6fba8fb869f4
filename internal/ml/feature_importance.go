package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// FeatureScore is the importance of one retained predictor column.
type FeatureScore struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
	Median     float64 `json:"median"`
	Rank       int     `json:"rank"`
}

// RankFeatures pairs names with scores and sorts them by descending
// importance. Ties keep column order.
func RankFeatures(names []string, importance, medians []float64) []FeatureScore {
	scores := make([]FeatureScore, len(names))
	for i, name := range names {
		scores[i] = FeatureScore{Name: name}
		if i < len(importance) {
			scores[i].Importance = importance[i]
		}
		if i < len(medians) {
			scores[i].Median = medians[i]
		}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Importance > scores[b].Importance
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

// TopFeatures returns the names of the n most important features.
func TopFeatures(scores []FeatureScore, n int) []string {
	n = min(n, len(scores))
	out := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, scores[i].Name)
	}
	return out
}

// SaveFeatureImportance writes scores as indented JSON, creating the parent
// directory when needed.
func SaveFeatureImportance(path string, scores []FeatureScore) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadFeatureImportance reads scores written by SaveFeatureImportance. A
// missing file yields no scores and no error.
func LoadFeatureImportance(path string) ([]FeatureScore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var scores []FeatureScore
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}
