// file: internals/features/timetable/availability/dto/availability_dto.go
package dto

import (
	"time"

	"timetable_backend/internals/features/timetable/availability/model"
	"timetable_backend/internals/features/timetable/availability/repository"
)

type CellRequest struct {
	Weekday    *int  `json:"weekday" validate:"required,min=0,max=4"`
	IndexInDay int   `json:"index_in_day" validate:"required,min=1,max=7"`
	Available  *bool `json:"available" validate:"required"`
}

type PutAvailabilityRequest struct {
	Cells []CellRequest `json:"cells" validate:"required,min=1,max=35,dive"`
}

// States folds the request into upsert input. A cell listed twice keeps its
// last value.
func (r PutAvailabilityRequest) States() []repository.CellState {
	idx := make(map[repository.Cell]int, len(r.Cells))
	out := make([]repository.CellState, 0, len(r.Cells))
	for _, c := range r.Cells {
		cell := repository.Cell{Weekday: *c.Weekday, IndexInDay: c.IndexInDay}
		if i, ok := idx[cell]; ok {
			out[i].Available = *c.Available
			continue
		}
		idx[cell] = len(out)
		out = append(out, repository.CellState{Cell: cell, Available: *c.Available})
	}
	return out
}

type CellResponse struct {
	Weekday    int       `json:"weekday"`
	IndexInDay int       `json:"index_in_day"`
	Available  bool      `json:"available"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type AvailabilityResponse struct {
	OwnerID uint           `json:"owner_id"`
	Kind    string         `json:"kind"`
	Cells   []CellResponse `json:"cells"`
}

func FromTeacherRows(teacherID uint, rows []model.TeacherAvailabilityModel) AvailabilityResponse {
	out := AvailabilityResponse{OwnerID: teacherID, Kind: "teacher", Cells: make([]CellResponse, 0, len(rows))}
	for _, r := range rows {
		out.Cells = append(out.Cells, CellResponse{
			Weekday:    r.TeacherAvailabilityWeekday,
			IndexInDay: r.TeacherAvailabilityIndexInDay,
			Available:  r.TeacherAvailabilityAvailable,
			UpdatedAt:  r.TeacherAvailabilityUpdatedAt,
		})
	}
	return out
}

func FromRoomRows(roomID uint, rows []model.RoomAvailabilityModel) AvailabilityResponse {
	out := AvailabilityResponse{OwnerID: roomID, Kind: "room", Cells: make([]CellResponse, 0, len(rows))}
	for _, r := range rows {
		out.Cells = append(out.Cells, CellResponse{
			Weekday:    r.RoomAvailabilityWeekday,
			IndexInDay: r.RoomAvailabilityIndexInDay,
			Available:  r.RoomAvailabilityAvailable,
			UpdatedAt:  r.RoomAvailabilityUpdatedAt,
		})
	}
	return out
}
