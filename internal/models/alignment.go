package models

// CurriculumAlignment links a topic group to a standard in an external
// curriculum framework.
type CurriculumAlignment struct {
	ID           string `db:"id" json:"id"`
	GroupID      string `db:"group_id" json:"groupId"`
	Framework    string `db:"framework" json:"framework"`
	Subject      string `db:"subject" json:"subject,omitempty"`
	StandardCode string `db:"standard_code" json:"standardCode"`
	GradeLevel   string `db:"grade_level" json:"gradeLevel,omitempty"`
	Description  string `db:"description" json:"description,omitempty"`
	Metadata     JSON   `db:"metadata" json:"metadata,omitempty"`
	CreatedBy    string `db:"created_by" json:"createdBy"`
	UpdatedBy    string `db:"updated_by" json:"updatedBy"`
	CreatedAt    int64  `db:"created_at" json:"createdAt"`
	UpdatedAt    int64  `db:"updated_at" json:"updatedAt"`
}

// TableName returns the table name for CurriculumAlignment.
func (CurriculumAlignment) TableName() string {
	return "curriculum_alignments"
}
