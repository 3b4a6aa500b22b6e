package crawler

import "github.com/tahles/directory-crawler/pkg/model"

// AggregateSystemStats reduces the ads catalog into dashboard stats.
func AggregateSystemStats(ads []model.AdRecord) model.SystemStats {
	var verified, online, priced int
	var priceSum float64
	byCity := make(map[string]int)
	bySource := make(map[string]int)

	for _, ad := range ads {
		if ad.Verified {
			verified++
		}
		if ad.Online {
			online++
		}
		if ad.PriceMin != nil {
			priced++
			priceSum += float64(*ad.PriceMin)
		}
		byCity[ad.City]++
		bySource[ad.Source]++
	}

	var avgPrice float64
	if priced > 0 {
		avgPrice = priceSum / float64(priced)
	}

	return model.SystemStats{
		TotalAds:      len(ads),
		TotalVerified: verified,
		TotalOnline:   online,
		AvgPriceMin:   avgPrice,
		ByCity:        byCity,
		BySource:      bySource,
	}
}
