// file: internals/features/timetable/catalog/dto/catalog_dto.go
package dto

import (
	"timetable_backend/internals/features/timetable/catalog/model"
	"timetable_backend/internals/features/timetable/catalog/repository"
)

type TimeSlotResponse struct {
	TimeSlotID uint `json:"time_slot_id"`
	Weekday    int  `json:"weekday"`
	IndexInDay int  `json:"index_in_day"`
}

func ToTimeSlotResponses(rows []model.TimeSlotModel) []TimeSlotResponse {
	out := make([]TimeSlotResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, TimeSlotResponse{TimeSlotID: r.TimeSlotID, Weekday: r.TimeSlotWeekday, IndexInDay: r.TimeSlotIndexInDay})
	}
	return out
}

type CurriculumResponse struct {
	CurriculumID uint   `json:"curriculum_id"`
	SubjectID    uint   `json:"subject_id"`
	SubjectName  string `json:"subject_name"`
	HoursPerWeek int    `json:"hours_per_week"`
	TeacherIDs   []uint `json:"teacher_ids"`
}

// ClassCurriculaResponse: ready is true when the hours fill the week exactly.
type ClassCurriculaResponse struct {
	ClassID    uint                 `json:"class_id"`
	ClassName  string               `json:"class_name"`
	TotalHours int                  `json:"total_hours"`
	Required   int                  `json:"required_hours"`
	Ready      bool                 `json:"ready"`
	Curricula  []CurriculumResponse `json:"curricula"`
}

func ToClassCurricula(cls model.SchoolClassModel, rows []repository.Curriculum, subjects []model.SubjectModel, required int) ClassCurriculaResponse {
	names := make(map[uint]string, len(subjects))
	for _, s := range subjects {
		names[s.SubjectID] = s.SubjectName
	}
	out := ClassCurriculaResponse{
		ClassID:   cls.SchoolClassID,
		ClassName: cls.SchoolClassName,
		Required:  required,
		Curricula: make([]CurriculumResponse, 0, len(rows)),
	}
	for _, r := range rows {
		out.TotalHours += r.HoursPerWeek
		teachers := r.TeacherIDs
		if teachers == nil {
			teachers = []uint{}
		}
		out.Curricula = append(out.Curricula, CurriculumResponse{
			CurriculumID: r.ID,
			SubjectID:    r.SubjectID,
			SubjectName:  names[r.SubjectID],
			HoursPerWeek: r.HoursPerWeek,
			TeacherIDs:   teachers,
		})
	}
	out.Ready = out.TotalHours == required
	return out
}

type RoomResponse struct {
	RoomID       uint   `json:"room_id"`
	RoomName     string `json:"room_name"`
	RoomCapacity int    `json:"room_capacity"`
	Sport        bool   `json:"sport"`
}
