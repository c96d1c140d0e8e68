// file: internals/features/timetable/entries/dto/entry_dto.go
package dto

import (
	"github.com/bytedance/sonic"

	"timetable_backend/internals/features/timetable/entries/model"
)

/* =======================================================
   NULLABLE HELPER (PATCH tri-state)
   ======================================================= */

// NullableID distinguishes an absent field from an explicit null.
type NullableID struct {
	Present bool
	Valid   bool
	Value   uint
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Present = true
	if string(b) == "null" {
		n.Valid = false
		n.Value = 0
		return nil
	}
	n.Valid = true
	return sonic.Unmarshal(b, &n.Value)
}

// Ptr maps the tri-state onto the edit command: nil keeps the value,
// a pointer to 0 clears it.
func (n NullableID) Ptr() *uint {
	if !n.Present {
		return nil
	}
	v := n.Value
	if !n.Valid {
		v = 0
	}
	return &v
}

/* =======================================================
   REQUEST DTOs
   ======================================================= */

type PatchEntryRequest struct {
	ExpectedVersion int        `json:"expected_version" validate:"required,min=1"`
	SubjectID       *uint      `json:"subject_id,omitempty" validate:"omitempty,min=1"`
	RoomID          NullableID `json:"room_id"`
}

/* =======================================================
   RESPONSE DTOs
   ======================================================= */

type EntryResponse struct {
	TimetableEntryID         uint  `json:"timetable_entry_id"`
	TimetableEntryClassID    uint  `json:"timetable_entry_class_id"`
	TimetableEntryTimeSlotID uint  `json:"timetable_entry_time_slot_id"`
	Weekday                  int   `json:"weekday"`
	IndexInDay               int   `json:"index_in_day"`
	TimetableEntrySubjectID  uint  `json:"timetable_entry_subject_id"`
	TimetableEntryRoomID     *uint `json:"timetable_entry_room_id"`
	TimetableEntryVersion    int   `json:"timetable_entry_version"`
}

func ToEntryResponse(m model.TimetableEntryModel) EntryResponse {
	out := EntryResponse{
		TimetableEntryID:         m.TimetableEntryID,
		TimetableEntryClassID:    m.TimetableEntryClassID,
		TimetableEntryTimeSlotID: m.TimetableEntryTimeSlotID,
		TimetableEntrySubjectID:  m.TimetableEntrySubjectID,
		TimetableEntryRoomID:     m.TimetableEntryRoomID,
		TimetableEntryVersion:    m.TimetableEntryVersion,
	}
	if m.TimeSlot != nil {
		out.Weekday = m.TimeSlot.TimeSlotWeekday
		out.IndexInDay = m.TimeSlot.TimeSlotIndexInDay
	}
	return out
}

func ToEntryResponses(rows []model.TimetableEntryModel) []EntryResponse {
	out := make([]EntryResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, ToEntryResponse(m))
	}
	return out
}
