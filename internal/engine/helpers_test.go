package engine

import (
	"fmt"
	"time"

	"github.com/noah-isme/routinez-api/internal/models"
)

var sectionSeq int

// slotAt builds a parsed slot from human clock texts.
func slotAt(day, start, end string) models.Slot {
	startMin, _ := ParseClock(start)
	endMin, _ := ParseClock(end)
	return models.Slot{
		Day:         day,
		StartTime:   start,
		EndTime:     end,
		StartMinute: startMin,
		EndMinute:   endMin,
	}
}

type sectionOption func(*models.Section)

func withSeats(capacity, consumed int) sectionOption {
	return func(s *models.Section) {
		s.Capacity = capacity
		s.ConsumedSeat = consumed
	}
}

func withLab(slots ...models.Slot) sectionOption {
	return func(s *models.Section) { s.LabSlots = slots }
}

func withMid(date, start, end string) sectionOption {
	return func(s *models.Section) {
		s.Exams.Mid = &models.ExamWindow{Date: date, StartTime: start, EndTime: end}
	}
}

func withFinal(date, start, end string) sectionOption {
	return func(s *models.Section) {
		s.Exams.Final = &models.ExamWindow{Date: date, StartTime: start, EndTime: end}
	}
}

func newSection(course, name, faculty string, classSlots []models.Slot, opts ...sectionOption) *models.Section {
	sectionSeq++
	s := &models.Section{
		SectionID:   fmt.Sprintf("sec-%d", sectionSeq),
		CourseCode:  course,
		SectionName: name,
		Faculty:     faculty,
		Capacity:    35,
		ClassSlots:  classSlots,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func snapshotOf(sections ...*models.Section) *models.Snapshot {
	values := make([]models.Section, len(sections))
	for i, s := range sections {
		values[i] = *s
	}
	return models.NewSnapshot(time.Now(), values)
}
