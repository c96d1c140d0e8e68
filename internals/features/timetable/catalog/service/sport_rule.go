package service

import (
	"fmt"
	"strings"
)

// SportRule binds the reserved sport room to the reserved sport subject in
// both directions.
type SportRule struct {
	RoomName    string
	SubjectName string
}

func NewSportRule(roomName, subjectName string) SportRule {
	return SportRule{RoomName: roomName, SubjectName: subjectName}
}

func sameName(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func (r SportRule) IsSportRoom(name string) bool { return sameName(name, r.RoomName) }

func (r SportRule) IsSportSubject(name string) bool { return sameName(name, r.SubjectName) }

// Allows reports whether a lesson of the given kind may use a room of the
// given kind.
func (r SportRule) Allows(sportSubject, sportRoom bool) bool {
	return sportSubject == sportRoom
}

// Check returns a human readable reason when the pair is not allowed, or "".
func (r SportRule) Check(subjectName, roomName string) string {
	subj, room := r.IsSportSubject(subjectName), r.IsSportRoom(roomName)
	switch {
	case subj && !room:
		return fmt.Sprintf("subject %q can only be held in room %q, not %q", subjectName, r.RoomName, roomName)
	case room && !subj:
		return fmt.Sprintf("room %q is reserved for subject %q, cannot hold %q", roomName, r.SubjectName, subjectName)
	}
	return ""
}
