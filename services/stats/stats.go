// Package stats derives aggregate viewing metrics from collection snapshots.
// Every function is pure: no storage access, deterministic given its inputs.
package stats

import (
	"sort"
	"time"

	"watchlog/models"
)

// Fixed per-item watch-time estimates. Deliberately coarse: actual runtimes
// and episode counts are not tracked, so a movie counts as 2 hours and a show
// as 10 regardless of length.
const (
	movieWatchHours = 2
	showWatchHours  = 10
)

// GenreCount pairs a genre id with how many tracked items carry it.
type GenreCount struct {
	GenreID int `json:"genreId"`
	Count   int `json:"count"`
}

// WatchStatistics is the full derived snapshot.
type WatchStatistics struct {
	TotalWatched   int `json:"totalWatched"`
	TotalWatching  int `json:"totalWatching"`
	TotalWillWatch int `json:"totalWillWatch"`

	MovieCount  int `json:"movieCount"`
	TVShowCount int `json:"tvShowCount"`

	EstimatedWatchTimeHours int `json:"estimatedWatchTimeHours"`

	// AverageRating keeps its historical meaning: the mean catalog vote
	// average over watched items, not the user's own ratings. Those are
	// reported separately as AverageUserRating.
	AverageRating     float64 `json:"averageRating"`
	AverageUserRating float64 `json:"averageUserRating"`

	TopGenres     []GenreCount `json:"topGenres"`
	FavoriteYears []int        `json:"favoriteYears"`

	CurrentStreakDays int `json:"currentStreakDays"`

	MonthlyActivity map[string]int `json:"monthlyActivity"`
	YearlyActivity  map[int]int    `json:"yearlyActivity"`
}

// Calculate computes statistics over the three partitions as of now.
func Calculate(watched, watching, willWatch []models.CollectionItem) WatchStatistics {
	return CalculateAt(watched, watching, willWatch, time.Now().UTC())
}

// CalculateAt is Calculate with an explicit reference time, which anchors the
// viewing streak.
func CalculateAt(watched, watching, willWatch []models.CollectionItem, now time.Time) WatchStatistics {
	all := make([]models.CollectionItem, 0, len(watched)+len(watching)+len(willWatch))
	all = append(all, watched...)
	all = append(all, watching...)
	all = append(all, willWatch...)

	result := WatchStatistics{
		TotalWatched:    len(watched),
		TotalWatching:   len(watching),
		TotalWillWatch:  len(willWatch),
		TopGenres:       topGenres(all, 5),
		FavoriteYears:   favoriteYears(watched),
		MonthlyActivity: make(map[string]int),
		YearlyActivity:  make(map[int]int),
	}

	for _, item := range all {
		switch item.Media.MediaType {
		case models.MediaTypeMovie:
			result.MovieCount++
		case models.MediaTypeTV:
			result.TVShowCount++
		}
	}

	var voteSum float64
	for _, item := range watched {
		voteSum += item.Media.VoteAverage
		switch item.Media.MediaType {
		case models.MediaTypeTV:
			result.EstimatedWatchTimeHours += showWatchHours
		default:
			result.EstimatedWatchTimeHours += movieWatchHours
		}
		if item.WatchedDate != nil {
			date := item.WatchedDate.UTC()
			result.MonthlyActivity[date.Format("2006-01")]++
			result.YearlyActivity[date.Year()]++
		}
	}
	if len(watched) > 0 {
		result.AverageRating = voteSum / float64(len(watched))
	}

	ratingSum, ratingCount := 0, 0
	for _, item := range all {
		if item.UserRating != nil {
			ratingSum += *item.UserRating
			ratingCount++
		}
	}
	if ratingCount > 0 {
		result.AverageUserRating = float64(ratingSum) / float64(ratingCount)
	}

	result.CurrentStreakDays = streakDays(watched, now)
	return result
}

// topGenres ranks genre ids by frequency across all items, ties broken by
// first appearance.
func topGenres(items []models.CollectionItem, limit int) []GenreCount {
	counts := make(map[int]int)
	firstSeen := make(map[int]int)
	order := 0
	for _, item := range items {
		for _, genre := range item.Media.GenreIDs {
			if _, seen := counts[genre]; !seen {
				firstSeen[genre] = order
				order++
			}
			counts[genre]++
		}
	}

	ranked := make([]GenreCount, 0, len(counts))
	for genre, count := range counts {
		ranked = append(ranked, GenreCount{GenreID: genre, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].GenreID] < firstSeen[ranked[j].GenreID]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// favoriteYears returns every release year tied for the highest frequency
// among watched items, ascending.
func favoriteYears(watched []models.CollectionItem) []int {
	counts := make(map[int]int)
	max := 0
	for _, item := range watched {
		year := item.Media.ReleaseYear()
		if year == 0 {
			continue
		}
		counts[year]++
		if counts[year] > max {
			max = counts[year]
		}
	}
	if max == 0 {
		return nil
	}
	var years []int
	for year, count := range counts {
		if count == max {
			years = append(years, year)
		}
	}
	sort.Ints(years)
	return years
}

// streakDays counts consecutive calendar days with at least one watch, ending
// today or yesterday relative to now. A gap of more than one day resets the
// streak to zero.
func streakDays(watched []models.CollectionItem, now time.Time) int {
	days := make(map[time.Time]struct{})
	var latest time.Time
	for _, item := range watched {
		if item.WatchedDate == nil {
			continue
		}
		day := truncateToDay(item.WatchedDate.UTC())
		days[day] = struct{}{}
		if day.After(latest) {
			latest = day
		}
	}
	if len(days) == 0 {
		return 0
	}

	today := truncateToDay(now.UTC())
	if latest.Before(today.AddDate(0, 0, -1)) {
		return 0
	}

	streak := 0
	for day := latest; ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[day]; !ok {
			break
		}
		streak++
	}
	return streak
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
