package pipeline

import "sort"

// FeatureImportance is one feature's share of the model's split gain.
type FeatureImportance struct {
	Name       string
	Importance float64
	Percent    float64
}

// TopImportances pairs names with importances, orders them by importance
// descending and keeps the first k. Equal importances keep header order.
// Percent is Importance*100 with no renormalisation over the kept set.
func TopImportances(names []string, importances []float64, k int) []FeatureImportance {
	n := len(names)
	if len(importances) < n {
		n = len(importances)
	}
	all := make([]FeatureImportance, n)
	for i := 0; i < n; i++ {
		all[i] = FeatureImportance{
			Name:       names[i],
			Importance: importances[i],
			Percent:    importances[i] * 100,
		}
	}
	sort.SliceStable(all, func(a, b int) bool {
		return all[a].Importance > all[b].Importance
	})
	if k < 0 {
		k = 0
	}
	if k < len(all) {
		all = all[:k]
	}
	return all
}
