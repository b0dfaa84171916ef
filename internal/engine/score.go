package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/routinez-api/internal/models"
)

// weekOrder follows the academic week of the feed, Saturday first with
// Friday off.
var weekOrder = map[string]int{
	models.DaySaturday:  0,
	models.DaySunday:    1,
	models.DayMonday:    2,
	models.DayTuesday:   3,
	models.DayWednesday: 4,
	models.DayThursday:  5,
	models.DayFriday:    6,
}

// CampusDays returns the distinct days a combination occupies, in week
// order.
func CampusDays(combo []*models.Section) []string {
	seen := make(map[string]struct{})
	for _, section := range combo {
		for day := range section.Days() {
			seen[day] = struct{}{}
		}
	}
	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		oi, iok := weekOrder[days[i]]
		oj, jok := weekOrder[days[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return days[i] < days[j]
	})
	return days
}

// ScoreContext carries the per-request facts scoring needs: what the
// user asked for and the campus-day range actually observed among the
// surviving routines. Grading against the observed minimum, not a
// theoretical one, keeps the top score reachable even when the catalog
// makes very compact weeks impossible.
type ScoreContext struct {
	CommutePreference string
	TimingPreference  string
	AllowedDayCount   int
	MinObservedDays   int
	MaxObservedDays   int
}

// NewScoreContext derives the observed day range from a routine set.
func NewScoreContext(routines []models.Routine, commutePref, timingPref string, allowedDayCount int) ScoreContext {
	sc := ScoreContext{
		CommutePreference: commutePref,
		TimingPreference:  timingPref,
		AllowedDayCount:   allowedDayCount,
	}
	for i, r := range routines {
		if i == 0 || r.CampusDays < sc.MinObservedDays {
			sc.MinObservedDays = r.CampusDays
		}
		if r.CampusDays > sc.MaxObservedDays {
			sc.MaxObservedDays = r.CampusDays
		}
	}
	return sc
}

// ScoreRoutine combines the dominant commute term with the much smaller
// ergonomic terms. The commute term works in thousands so no pile-up of
// ergonomic bonuses can outvote the day-count preference.
func ScoreRoutine(r *models.Routine, sc ScoreContext) float64 {
	score := commuteScore(r.CampusDays, sc)
	score += ergonomicScore(r, sc.TimingPreference)
	return score
}

func commuteScore(days int, sc ScoreContext) float64 {
	switch sc.CommutePreference {
	case models.CommuteMaximizeDays:
		target := sc.AllowedDayCount
		if target <= 0 {
			target = sc.MaxObservedDays
		}
		if days >= target {
			return 5000
		}
		return -1000 * float64(target-days)
	case models.CommuteBalanced:
		mid := float64(sc.MinObservedDays+sc.MaxObservedDays) / 2
		return 3000 - 1000*math.Abs(float64(days)-mid)
	default: // minimize-days
		switch {
		case days <= sc.MinObservedDays:
			return 10000
		case days == sc.MinObservedDays+1:
			return 5000
		case days <= 3:
			return 2000
		default:
			return -1000 * float64(days-sc.MinObservedDays)
		}
	}
}

// ergonomicScore rewards evenly loaded days, penalizes idle gaps over
// thirty minutes, and nudges start times toward the timing preference.
func ergonomicScore(r *models.Routine, timingPref string) float64 {
	byDay := make(map[string][]models.Slot)
	for i := range r.Sections {
		for _, slot := range r.Sections[i].AllSlots() {
			if slot.Day == "" || !slot.Parsed() {
				continue
			}
			day := strings.ToUpper(slot.Day)
			byDay[day] = append(byDay[day], slot)
		}
	}
	if len(byDay) == 0 {
		return 0
	}

	minLoad, maxLoad := math.MaxInt32, 0
	gapMinutes := 0
	timing := 0.0
	for _, slots := range byDay {
		if len(slots) < minLoad {
			minLoad = len(slots)
		}
		if len(slots) > maxLoad {
			maxLoad = len(slots)
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i].StartMinute < slots[j].StartMinute })
		for i := 1; i < len(slots); i++ {
			gap := slots[i].StartMinute - slots[i-1].EndMinute
			if gap > 30 {
				gapMinutes += gap
			}
		}
		for _, slot := range slots {
			timing += timingBonus(slot.StartMinute, timingPref)
		}
	}

	score := -2 * float64(maxLoad-minLoad)
	score -= float64(gapMinutes) / 60
	score += timing
	return score
}

func timingBonus(startMinute int, timingPref string) float64 {
	early := startMinute < 9*60
	late := startMinute >= 16*60
	switch timingPref {
	case models.TimingEarly:
		if early {
			return 10
		}
		if late {
			return -10
		}
	case models.TimingLate:
		if late {
			return 10
		}
		if early {
			return -10
		}
	}
	return 0
}

// SelectBest scores every routine in place and returns the index of the
// winner. Ties keep the earliest candidate, so identical inputs always
// produce identical picks.
func SelectBest(routines []models.Routine, sc ScoreContext) int {
	if len(routines) == 0 {
		return -1
	}
	best := 0
	for i := range routines {
		routines[i].Score = ScoreRoutine(&routines[i], sc)
		if routines[i].Score > routines[best].Score {
			best = i
		}
	}
	return best
}
