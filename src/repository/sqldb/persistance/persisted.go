package persistance

import (
	"encoding/json"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	datetime "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/date_time"
)

// Lesson is the stored form of a lesson inside the snapshot lessons column.
type Lesson struct {
	GroupId    string            `json:"group"`
	Weekday    time.Weekday      `json:"weekday"`
	TimeSlot   string            `json:"time"`
	Subject    string            `json:"subject"`
	Room       string            `json:"room,omitempty"`
	Teacher    string            `json:"teacher,omitempty"`
	LessonType string            `json:"type,omitempty"`
	Date       datetime.DateTime `json:"date"`
}

func FromLessonEntity(lesson *entities.LessonRecord) Lesson {
	return Lesson{
		GroupId:    lesson.GroupId,
		Weekday:    lesson.Weekday,
		TimeSlot:   lesson.TimeSlot,
		Subject:    lesson.Subject,
		Room:       lesson.Room,
		Teacher:    lesson.Teacher,
		LessonType: lesson.LessonType,
		Date:       datetime.DateTime(lesson.Date),
	}
}

func ToLessonEntity(lesson *Lesson, location *time.Location) entities.LessonRecord {
	return entities.LessonRecord{
		GroupId:    lesson.GroupId,
		Weekday:    lesson.Weekday,
		TimeSlot:   lesson.TimeSlot,
		Subject:    lesson.Subject,
		Room:       lesson.Room,
		Teacher:    lesson.Teacher,
		LessonType: lesson.LessonType,
		Date:       lesson.Date.In(location),
	}
}

func MarshalLessons(lessons []entities.LessonRecord) (string, error) {
	persisted := make([]Lesson, 0, len(lessons))
	for i := range lessons {
		persisted = append(persisted, FromLessonEntity(&lessons[i]))
	}
	raw, err := json.Marshal(persisted)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func UnmarshalLessons(raw string, location *time.Location) ([]entities.LessonRecord, error) {
	persisted := []Lesson{}
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		return nil, err
	}
	lessons := make([]entities.LessonRecord, 0, len(persisted))
	for i := range persisted {
		lessons = append(lessons, ToLessonEntity(&persisted[i], location))
	}
	return lessons, nil
}
