package entities

import (
	"fmt"
	"time"
)

type TargetKind int8

const (
	Student TargetKind = iota + 1
	Mentor
)

func (kind TargetKind) ToString() string {
	var name string
	switch kind {
	case Student:
		name = "student"
	case Mentor:
		name = "mentor"
	}
	return name
}

func TargetKindFromString(name string) TargetKind {
	var kind TargetKind
	switch name {
	case "student":
		kind = Student
	case "mentor":
		kind = Mentor
	}
	return kind
}

// Target is what a schedule is fetched for: a study group or a mentor.
type Target struct {
	Kind TargetKind
	Name string
}

func NewGroupTarget(group string) Target {
	return Target{Kind: Student, Name: group}
}

func NewMentorTarget(mentor string) Target {
	return Target{Kind: Mentor, Name: mentor}
}

func (target Target) String() string {
	return fmt.Sprintf("%s:%s", target.Kind.ToString(), target.Name)
}

func (target Target) IsZero() bool {
	return target.Kind == 0 || target.Name == ""
}

type Subscriber struct {
	ChatId               int64
	ChatType             string
	Target               Target
	NotificationsEnabled bool
	DailyEnabled         bool
	CreatedAt            time.Time
}

func NewSubscriber(chatId int64, target Target, opts ...func(*Subscriber)) *Subscriber {
	subscriber := Subscriber{
		ChatId:               chatId,
		ChatType:             "private",
		Target:               target,
		NotificationsEnabled: true,
		DailyEnabled:         true,
		CreatedAt:            time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&subscriber)
	}
	return &subscriber
}

func WithChatType(chatType string) func(*Subscriber) {
	return func(sub *Subscriber) {
		sub.ChatType = chatType
	}
}

func WithNotifications(enabled bool) func(*Subscriber) {
	return func(sub *Subscriber) {
		sub.NotificationsEnabled = enabled
	}
}

func WithDaily(enabled bool) func(*Subscriber) {
	return func(sub *Subscriber) {
		sub.DailyEnabled = enabled
	}
}

type TargetStats struct {
	Target      Target
	Subscribers int
}
