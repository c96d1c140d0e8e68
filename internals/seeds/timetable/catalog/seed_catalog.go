package catalog

import (
	"fmt"
	"log"
	"os"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timetable_backend/internals/features/timetable/catalog/model"
)

type roomSeed struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type subjectSeed struct {
	Name      string  `json:"name"`
	ShortCode *string `json:"short_code"`
}

type curriculumSeed struct {
	Subject  string `json:"subject"`
	Hours    int    `json:"hours"`
	Teachers []uint `json:"teachers"`
}

type classSeed struct {
	Name       string           `json:"name"`
	Students   []string         `json:"students"`
	Curriculum []curriculumSeed `json:"curriculum"`
}

type catalogSeed struct {
	Rooms    []roomSeed    `json:"rooms"`
	Subjects []subjectSeed `json:"subjects"`
	Classes  []classSeed   `json:"classes"`
}

// SeedCatalogFromJSON loads demo rooms, subjects, classes and curricula.
// Existing rows (matched by name) are left alone.
func SeedCatalogFromJSON(db *gorm.DB, filePath string) error {
	log.Println("[SEED] reading", filePath)
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}
	var data catalogSeed
	if err := sonic.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, r := range data.Rooms {
			room := model.RoomModel{RoomName: r.Name, RoomCapacity: r.Capacity}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&room).Error; err != nil {
				return fmt.Errorf("room %q: %w", r.Name, err)
			}
		}

		subjectIDs := make(map[string]uint, len(data.Subjects))
		for _, s := range data.Subjects {
			subj := model.SubjectModel{SubjectName: s.Name, SubjectShortCode: s.ShortCode}
			if err := tx.Where("subject_name = ?", s.Name).FirstOrCreate(&subj).Error; err != nil {
				return fmt.Errorf("subject %q: %w", s.Name, err)
			}
			subjectIDs[s.Name] = subj.SubjectID
		}

		for _, c := range data.Classes {
			cls := model.SchoolClassModel{SchoolClassName: c.Name}
			if err := tx.Where("school_class_name = ?", c.Name).FirstOrCreate(&cls).Error; err != nil {
				return fmt.Errorf("class %q: %w", c.Name, err)
			}
			for _, username := range c.Students {
				classID := cls.SchoolClassID
				p := model.UserProfileModel{UserProfileUsername: username, UserProfileClassID: &classID}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
					return fmt.Errorf("student %q: %w", username, err)
				}
			}
			for _, cur := range c.Curriculum {
				subjectID, ok := subjectIDs[cur.Subject]
				if !ok {
					return fmt.Errorf("class %q: unknown subject %q", c.Name, cur.Subject)
				}
				row := model.CurriculumModel{
					CurriculumClassID:      cls.SchoolClassID,
					CurriculumSubjectID:    subjectID,
					CurriculumHoursPerWeek: cur.Hours,
				}
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
				if res.Error != nil {
					return fmt.Errorf("curriculum %q/%q: %w", c.Name, cur.Subject, res.Error)
				}
				if res.RowsAffected == 0 {
					continue
				}
				for _, teacherID := range cur.Teachers {
					link := model.CurriculumTeacherModel{
						CurriculumTeacherCurriculumID: row.CurriculumID,
						CurriculumTeacherTeacherID:    teacherID,
					}
					if err := tx.Create(&link).Error; err != nil {
						return fmt.Errorf("curriculum teacher %d: %w", teacherID, err)
					}
				}
			}
			log.Printf("[SEED] class %s ready (%d subjects)", c.Name, len(c.Curriculum))
		}
		return nil
	})
}
