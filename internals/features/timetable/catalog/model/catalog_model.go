// file: internals/features/timetable/catalog/model/catalog_model.go
package model

import "time"

// TimeSlotModel is one cell of the weekly grid (weekday 0..4, index 1..7).
type TimeSlotModel struct {
	TimeSlotID         uint `json:"time_slot_id" gorm:"column:time_slot_id;primaryKey;autoIncrement"`
	TimeSlotWeekday    int  `json:"time_slot_weekday" gorm:"column:time_slot_weekday;not null;uniqueIndex:uq_time_slot_weekday_index"`
	TimeSlotIndexInDay int  `json:"time_slot_index_in_day" gorm:"column:time_slot_index_in_day;not null;uniqueIndex:uq_time_slot_weekday_index"`
}

func (TimeSlotModel) TableName() string { return "time_slots" }

type SchoolClassModel struct {
	SchoolClassID        uint      `json:"school_class_id" gorm:"column:school_class_id;primaryKey;autoIncrement"`
	SchoolClassName      string    `json:"school_class_name" gorm:"column:school_class_name;size:50;not null;uniqueIndex"`
	SchoolClassCreatedAt time.Time `json:"school_class_created_at" gorm:"column:school_class_created_at;autoCreateTime"`
}

func (SchoolClassModel) TableName() string { return "school_classes" }

type SubjectModel struct {
	SubjectID        uint    `json:"subject_id" gorm:"column:subject_id;primaryKey;autoIncrement"`
	SubjectName      string  `json:"subject_name" gorm:"column:subject_name;size:100;not null;uniqueIndex"`
	SubjectShortCode *string `json:"subject_short_code,omitempty" gorm:"column:subject_short_code;size:20"`
}

func (SubjectModel) TableName() string { return "subjects" }

type RoomModel struct {
	RoomID       uint   `json:"room_id" gorm:"column:room_id;primaryKey;autoIncrement"`
	RoomName     string `json:"room_name" gorm:"column:room_name;not null;uniqueIndex"`
	RoomCapacity int    `json:"room_capacity" gorm:"column:room_capacity;not null;default:0"`
}

func (RoomModel) TableName() string { return "rooms" }

// CurriculumModel: weekly hours of one subject for one class.
// CurriculumTeacherID is the legacy single-teacher column; additional
// teachers live in curriculum_teachers. Use repository.TeacherIDs for the
// merged view.
type CurriculumModel struct {
	CurriculumID           uint  `json:"curriculum_id" gorm:"column:curriculum_id;primaryKey;autoIncrement"`
	CurriculumClassID      uint  `json:"curriculum_class_id" gorm:"column:curriculum_class_id;not null;uniqueIndex:uq_curriculum_class_subject"`
	CurriculumSubjectID    uint  `json:"curriculum_subject_id" gorm:"column:curriculum_subject_id;not null;uniqueIndex:uq_curriculum_class_subject"`
	CurriculumHoursPerWeek int   `json:"curriculum_hours_per_week" gorm:"column:curriculum_hours_per_week;not null"`
	CurriculumTeacherID    *uint `json:"curriculum_teacher_id,omitempty" gorm:"column:curriculum_teacher_id"`

	Teachers []CurriculumTeacherModel `json:"teachers,omitempty" gorm:"foreignKey:CurriculumTeacherCurriculumID;references:CurriculumID"`
}

func (CurriculumModel) TableName() string { return "curricula" }

type CurriculumTeacherModel struct {
	CurriculumTeacherID           uint `json:"curriculum_teacher_id" gorm:"column:curriculum_teacher_id;primaryKey;autoIncrement"`
	CurriculumTeacherCurriculumID uint `json:"curriculum_teacher_curriculum_id" gorm:"column:curriculum_teacher_curriculum_id;not null;uniqueIndex:uq_curriculum_teacher"`
	CurriculumTeacherTeacherID    uint `json:"curriculum_teacher_teacher_id" gorm:"column:curriculum_teacher_teacher_id;not null;uniqueIndex:uq_curriculum_teacher"`
}

func (CurriculumTeacherModel) TableName() string { return "curriculum_teachers" }

// UserProfileModel maps a login to a class (students) or a teacher id.
type UserProfileModel struct {
	UserProfileID        uint   `json:"user_profile_id" gorm:"column:user_profile_id;primaryKey;autoIncrement"`
	UserProfileUsername  string `json:"user_profile_username" gorm:"column:user_profile_username;size:100;not null;uniqueIndex"`
	UserProfileClassID   *uint  `json:"user_profile_class_id,omitempty" gorm:"column:user_profile_class_id;index"`
	UserProfileTeacherID *uint  `json:"user_profile_teacher_id,omitempty" gorm:"column:user_profile_teacher_id"`
}

func (UserProfileModel) TableName() string { return "user_profiles" }
