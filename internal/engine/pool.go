package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/routinez-api/internal/models"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

// CourseRequest selects one course, optionally pinned to a faculty or
// an exact section.
type CourseRequest struct {
	Course  string
	Faculty string
	Section string
	// Locked skips the seat-availability policy for the whole course.
	Locked bool
}

// Pool is the admissible section set for one requested course. Pools
// are built fresh per request; seat counts change between snapshots so
// they are never cached across requests.
type Pool struct {
	Course   string
	Sections []*models.Section
}

// maxFacultyCombos bounds the faculty-optimization pre-pass.
const maxFacultyCombos = 5000

// BuildPools resolves one pool per requested course. Sections with
// internal slot conflicts never enter a pool. An empty pool is a
// terminal, per-course failure.
func BuildPools(snapshot *models.Snapshot, requests []CourseRequest) ([]Pool, error) {
	pools := make([]Pool, 0, len(requests))
	for _, req := range requests {
		available := snapshot.SectionsByCourse(req.Course)
		if len(available) == 0 {
			return nil, appErrors.WithSuggestion(appErrors.ErrNotFound,
				fmt.Sprintf("course %s was not found in the current offerings", req.Course),
				"Check the course code or whether the semester offerings have changed.")
		}

		pool := Pool{Course: req.Course}
		for _, section := range available {
			if !admissible(section, req) {
				continue
			}
			if HasInternalConflict(section) {
				continue
			}
			pool.Sections = append(pool.Sections, section)
		}

		if len(pool.Sections) == 0 {
			msg := fmt.Sprintf("no sections available for %s", req.Course)
			if req.Faculty != "" || req.Section != "" {
				msg += " matching your selection"
			}
			return nil, appErrors.WithSuggestion(appErrors.ErrEmptyCandidatePool, msg,
				"Try a different faculty or check whether the course has seats in other sections.")
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

func admissible(section *models.Section, req CourseRequest) bool {
	// An explicit section lock admits exactly that section, seats or not.
	if req.Section != "" {
		return section.SectionName == req.Section || section.SectionID == req.Section
	}
	if req.Faculty != "" && !facultyMatches(section, req.Faculty) {
		return false
	}
	if req.Locked {
		return true
	}
	return section.Capacity-section.ConsumedSeat > 0
}

func facultyMatches(section *models.Section, faculty string) bool {
	if strings.EqualFold(strings.TrimSpace(faculty), models.FacultyTBA) {
		return section.FacultyOrTBA() == models.FacultyTBA
	}
	return section.Faculty == faculty
}

// OptimizeFacultyPools narrows each pool to the faculty whose sections
// promise the smallest combined day footprint. It is a heuristic
// pre-pass used when the request asks to optimize faculty for minimum
// campus days and no course carries an explicit lock; the staged search
// still validates every surviving combination.
func OptimizeFacultyPools(pools []Pool) []Pool {
	groups := make([][]facultyGroup, len(pools))
	total := 1
	for i, pool := range pools {
		groups[i] = groupByFaculty(pool.Sections)
		total *= len(groups[i])
		if total > maxFacultyCombos || total <= 0 {
			// Combination space too large to pre-optimize; let the
			// bounded search deal with the full pools.
			return pools
		}
	}

	indices := make([]int, len(groups))
	best := make([]int, len(groups))
	bestDays := -1

	for {
		days := make(map[string]struct{})
		for i, idx := range indices {
			for day := range groups[i][idx].days {
				days[day] = struct{}{}
			}
		}
		if bestDays == -1 || len(days) < bestDays {
			bestDays = len(days)
			copy(best, indices)
		}

		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(groups[pos]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	optimized := make([]Pool, len(pools))
	for i, pool := range pools {
		optimized[i] = Pool{Course: pool.Course, Sections: groups[i][best[i]].sections}
	}
	return optimized
}

type facultyGroup struct {
	faculty  string
	sections []*models.Section
	days     map[string]struct{}
}

func groupByFaculty(sections []*models.Section) []facultyGroup {
	byFaculty := make(map[string]*facultyGroup)
	var order []string
	for _, section := range sections {
		faculty := section.FacultyOrTBA()
		group, ok := byFaculty[faculty]
		if !ok {
			group = &facultyGroup{faculty: faculty, days: make(map[string]struct{})}
			byFaculty[faculty] = group
			order = append(order, faculty)
		}
		group.sections = append(group.sections, section)
		for day := range section.Days() {
			group.days[day] = struct{}{}
		}
	}

	sort.Strings(order)
	groups := make([]facultyGroup, 0, len(order))
	for _, faculty := range order {
		groups = append(groups, *byFaculty[faculty])
	}
	return groups
}
