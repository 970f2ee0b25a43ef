package match

import "sort"

// ItemCount is the per-item rollup of a run's detections.
type ItemCount struct {
	ItemID        string    `json:"item_id"`
	Count         int       `json:"count"`
	AvgConfidence float64   `json:"avg_confidence"`
	Best          Detection `json:"best"`
}

// Aggregate merges detections into per-item counts. Duplicate detections
// for the same region keep only the highest-confidence one. Results are
// ordered by count descending, then item id, so output is stable across
// runs.
func Aggregate(detections []Detection) []ItemCount {
	byRegion := make(map[[4]int]Detection, len(detections))
	for _, d := range detections {
		key := [4]int{d.Region.X, d.Region.Y, d.Region.Width, d.Region.Height}
		if prev, ok := byRegion[key]; !ok || d.Confidence > prev.Confidence {
			byRegion[key] = d
		}
	}

	byItem := make(map[string]*ItemCount)
	for _, d := range byRegion {
		item, ok := byItem[d.ItemID]
		if !ok {
			item = &ItemCount{ItemID: d.ItemID, Best: d}
			byItem[d.ItemID] = item
		}
		item.Count++
		item.AvgConfidence += d.Confidence
		if d.Confidence > item.Best.Confidence {
			item.Best = d
		}
	}

	counts := make([]ItemCount, 0, len(byItem))
	for _, item := range byItem {
		item.AvgConfidence /= float64(item.Count)
		counts = append(counts, *item)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].ItemID < counts[j].ItemID
	})
	return counts
}
