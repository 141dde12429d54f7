package models

import "time"

const (
	BatchCompleted           = "completed"
	BatchCompletedWithErrors = "completed_with_errors"
)

// ImportBatch is written once per importer run and never updated.
type ImportBatch struct {
	ID          uint   `gorm:"primaryKey"`
	BatchID     string `gorm:"size:100;not null;index"`
	Source      string `gorm:"size:50;not null"`
	SourceType  string `gorm:"size:50"`
	RecordCount int    `gorm:"not null"`
	Created     int    `gorm:"not null"`
	Updated     int    `gorm:"not null"`
	Skipped     int    `gorm:"not null"`
	ErrorCount  int    `gorm:"not null"`
	Status      string `gorm:"size:30;not null"`
	StartedAt   time.Time
	FinishedAt  time.Time
	CreatedAt   time.Time
}

func (ImportBatch) TableName() string { return "import_batches" }

// DataSource rows come from the workbook's DATA LOG sheet.
type DataSource struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:300;not null;uniqueIndex"`
	SourceType  string `gorm:"size:300"`
	Status      string `gorm:"size:300"`
	RecordCount int
	LastSyncAt  *time.Time
	Notes       string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (DataSource) TableName() string { return "data_sources" }

type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	Table     string `gorm:"column:table_name;size:100;not null"`
	RecordID  uint   `gorm:"not null"`
	Action    string `gorm:"size:20;not null"`
	FieldName string `gorm:"size:100"`
	OldValue  string `gorm:"type:text"`
	NewValue  string `gorm:"type:text"`
	ChangedBy string `gorm:"size:100;not null"`
	CreatedAt time.Time
}

func (AuditLog) TableName() string { return "audit_logs" }

// All lists every model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Project{},
		&Vendor{},
		&CostCode{},
		&SOVLine{},
		&PayApp{},
		&CostEvent{},
		&ChangeOrder{},
		&Invoice{},
		&Quote{},
		&Employee{},
		&ProjectMilestone{},
		&Debt{},
		&Property{},
		&PayrollEntry{},
		&PayrollCalendar{},
		&CashSnapshot{},
		&CashForecastLine{},
		&RecurringExpense{},
		&PLEntry{},
		&Scenario{},
		&ScenarioAssumption{},
		&ChartOfAccount{},
		&RetainageEntry{},
		&LienWaiver{},
		&PhaseSyncEntry{},
		&CrewAllocation{},
		&BidOpportunity{},
		&Lead{},
		&LeadProposal{},
		&ImportBatch{},
		&DataSource{},
		&AuditLog{},
	}
}
