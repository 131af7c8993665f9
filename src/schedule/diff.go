package schedule

import (
	"slices"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
)

type ChangeKind int8

const (
	Added ChangeKind = iota + 1
	Removed
	Modified
)

func (kind ChangeKind) ToString() string {
	switch kind {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	}
	return ""
}

// Change holds Before for removals, After for additions and both for modifications.
type Change struct {
	Kind   ChangeKind
	Before *entities.LessonRecord
	After  *entities.LessonRecord
}

type Diff struct {
	Target  entities.Target
	Changes []Change
}

func (diff *Diff) IsEmpty() bool {
	return len(diff.Changes) == 0
}

func (diff *Diff) Added() []entities.LessonRecord {
	return diff.collect(Added, func(change Change) *entities.LessonRecord { return change.After })
}

func (diff *Diff) Removed() []entities.LessonRecord {
	return diff.collect(Removed, func(change Change) *entities.LessonRecord { return change.Before })
}

func (diff *Diff) Modified() []Change {
	var changes []Change
	for _, change := range diff.Changes {
		if change.Kind == Modified {
			changes = append(changes, change)
		}
	}
	return changes
}

func (diff *Diff) collect(kind ChangeKind, pick func(Change) *entities.LessonRecord) []entities.LessonRecord {
	var lessons []entities.LessonRecord
	for _, change := range diff.Changes {
		if change.Kind == kind {
			lessons = append(lessons, *pick(change))
		}
	}
	return lessons
}

// Compare diffs two consecutive snapshots of one target keyed by (weekday, time slot).
// Lessons equal on both sides are dropped first, leftovers on the same key pair up as
// modifications, the rest are additions or removals. A nil prev makes every lesson an addition.
func Compare(prev, cur *entities.ScheduleSnapshot) Diff {
	diff := Diff{}
	if cur != nil {
		diff.Target = cur.Target
	} else if prev != nil {
		diff.Target = prev.Target
	}

	before := groupByKey(prev)
	after := groupByKey(cur)

	keys := make([]entities.LessonKey, 0, len(before)+len(after))
	for key := range before {
		keys = append(keys, key)
	}
	for key := range after {
		if _, ok := before[key]; !ok {
			keys = append(keys, key)
		}
	}
	dates := keyDates(after, before)
	slices.SortFunc(keys, func(a, b entities.LessonKey) int {
		if diff := entities.CompareDays(a.Weekday, dates[a], b.Weekday, dates[b]); diff != 0 {
			return diff
		}
		return entities.CompareTimeSlots(a.TimeSlot, b.TimeSlot)
	})

	for _, key := range keys {
		removed, added := unmatched(before[key], after[key])
		paired := min(len(removed), len(added))
		for i := range paired {
			diff.Changes = append(diff.Changes, Change{Kind: Modified, Before: &removed[i], After: &added[i]})
		}
		for i := paired; i < len(removed); i++ {
			diff.Changes = append(diff.Changes, Change{Kind: Removed, Before: &removed[i]})
		}
		for i := paired; i < len(added); i++ {
			diff.Changes = append(diff.Changes, Change{Kind: Added, After: &added[i]})
		}
	}
	return diff
}

func groupByKey(snapshot *entities.ScheduleSnapshot) map[entities.LessonKey][]entities.LessonRecord {
	grouped := map[entities.LessonKey][]entities.LessonRecord{}
	if snapshot == nil {
		return grouped
	}
	for _, lesson := range snapshot.Lessons {
		key := lesson.Key()
		grouped[key] = append(grouped[key], lesson)
	}
	return grouped
}

// keyDates picks the date of every key from the first grouping that has one, so the new week wins over the old.
func keyDates(groupings ...map[entities.LessonKey][]entities.LessonRecord) map[entities.LessonKey]time.Time {
	dates := map[entities.LessonKey]time.Time{}
	for _, grouped := range groupings {
		for key, lessons := range grouped {
			if _, ok := dates[key]; ok {
				continue
			}
			for _, lesson := range lessons {
				if !lesson.Date.IsZero() {
					dates[key] = lesson.Date
					break
				}
			}
		}
	}
	return dates
}

// unmatched removes the lessons present on both sides (as a multiset) and returns the rest sorted.
func unmatched(before, after []entities.LessonRecord) ([]entities.LessonRecord, []entities.LessonRecord) {
	matched := make([]bool, len(after))
	var removed []entities.LessonRecord
	for i := range before {
		found := false
		for j := range after {
			if !matched[j] && before[i].Equal(&after[j]) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			removed = append(removed, before[i])
		}
	}
	var added []entities.LessonRecord
	for j := range after {
		if !matched[j] {
			added = append(added, after[j])
		}
	}
	sortLessons(removed)
	sortLessons(added)
	return removed, added
}

func sortLessons(lessons []entities.LessonRecord) {
	slices.SortStableFunc(lessons, func(a, b entities.LessonRecord) int { return entities.CompareLessons(&a, &b) })
}
