package models

import "time"

// TaskHistory is an append-only audit entry recording one field change on a
// task. Rows are never updated; they are only removed by the task's cascade
// delete.
type TaskHistory struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	ChangedBy uint64    `gorm:"not null" json:"changed_by"`
	FieldName string    `gorm:"type:varchar(50);not null" json:"field_name"`
	OldValue  string    `gorm:"type:text" json:"old_value"`
	NewValue  string    `gorm:"type:text" json:"new_value"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:ChangedBy" json:"user,omitempty"`
}
