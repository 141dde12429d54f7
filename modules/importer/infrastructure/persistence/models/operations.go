package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PhaseSyncEntry struct {
	ID           uint       `gorm:"primaryKey"`
	ProjectID    uint       `gorm:"not null;uniqueIndex:idx_phase_sync_key,priority:1"`
	PhaseName    string     `gorm:"size:300;not null;uniqueIndex:idx_phase_sync_key,priority:2"`
	Status       string     `gorm:"size:300"`
	PlannedStart *time.Time `gorm:"type:date"`
	PlannedEnd   *time.Time `gorm:"type:date"`
	Notes        string     `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PhaseSyncEntry) TableName() string { return "phase_sync_entries" }

type CrewAllocation struct {
	ID             uint            `gorm:"primaryKey"`
	ResourceName   string          `gorm:"size:300;not null;uniqueIndex:idx_crew_allocations_key,priority:1"`
	ProjectID      uint            `gorm:"not null;uniqueIndex:idx_crew_allocations_key,priority:2"`
	WeekStarting   time.Time       `gorm:"type:date;not null;uniqueIndex:idx_crew_allocations_key,priority:3"`
	EmployeeID     *uint
	RoleOnProject  string          `gorm:"size:300"`
	HoursAllocated decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (CrewAllocation) TableName() string { return "crew_allocations" }

const (
	BidIdentified = "identified"
	BidPursuing   = "pursuing"
	BidSubmitted  = "bid_submitted"
	BidWon        = "won"
	BidLost       = "lost"
)

type BidOpportunity struct {
	ID              uint                `gorm:"primaryKey"`
	OpportunityName string              `gorm:"size:300;not null;uniqueIndex"`
	ClientName      string              `gorm:"size:300"`
	Salesperson     string              `gorm:"size:300"`
	ProjectType     string              `gorm:"size:100"`
	EstimatedValue  decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	Status          string              `gorm:"size:20;not null"`
	Probability     decimal.NullDecimal `gorm:"type:numeric(6,2)"`
	Notes           string              `gorm:"type:text"`
	CreatedAt       time.Time
}

func (BidOpportunity) TableName() string { return "bid_pipeline" }

type Lead struct {
	ID                  uint            `gorm:"primaryKey"`
	OpportunityTitle    string          `gorm:"size:300;not null;index:idx_leads_key,priority:1"`
	ClientContact       string          `gorm:"size:300;index:idx_leads_key,priority:2"`
	Email               string          `gorm:"size:300"`
	Phone               string          `gorm:"size:300"`
	CellPhone           string          `gorm:"size:300"`
	StreetAddress       string          `gorm:"size:300"`
	City                string          `gorm:"size:300"`
	State               string          `gorm:"size:300"`
	ZipCode             string          `gorm:"size:300"`
	OppStreetAddress    string          `gorm:"size:300"`
	OppCity             string          `gorm:"size:300"`
	OppState            string          `gorm:"size:300"`
	OppZip              string          `gorm:"size:300"`
	LeadStatus          string          `gorm:"size:300"`
	Confidence          int
	EstimatedRevenueMin decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	EstimatedRevenueMax decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	EstimatedRevenue    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Salesperson         string          `gorm:"size:300"`
	Source              string          `gorm:"size:300"`
	ProjectType         string          `gorm:"size:300"`
	ProposalStatus      string          `gorm:"size:300"`
	LastContacted       string          `gorm:"size:300"`
	HasBeenContacted    bool            `gorm:"not null"`
	CreatedDate         *time.Time      `gorm:"type:date"`
	SoldDate            *time.Time      `gorm:"type:date"`
	ProjectedSalesDate  *time.Time      `gorm:"type:date"`
	RelatedJob          string          `gorm:"size:300"`
	Notes               string          `gorm:"type:text"`
	CreatedAt           time.Time
}

func (Lead) TableName() string { return "leads" }

type LeadProposal struct {
	ID               uint            `gorm:"primaryKey"`
	LeadID           *uint           `gorm:"index"`
	ProposalTitle    string          `gorm:"size:300;not null;uniqueIndex"`
	OpportunityTitle string          `gorm:"size:300"`
	ClientContact    string          `gorm:"size:300"`
	Salesperson      string          `gorm:"size:300"`
	ClientPrice      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status           string          `gorm:"size:300"`
	CreatedAt        time.Time
}

func (LeadProposal) TableName() string { return "lead_proposals" }
