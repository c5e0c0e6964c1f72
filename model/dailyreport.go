package model

import (
	"time"

	"github.com/google/uuid"
)

type Shift string

const (
	ShiftDay   Shift = "day"
	ShiftNight Shift = "night"
)

var Shifts = []Shift{ShiftDay, ShiftNight}

// Suffix is the letter appended to external field names, e.g. general_notes_d.
func (s Shift) Suffix() string {
	if s == ShiftNight {
		return "n"
	}
	return "d"
}

// Column returns the prefixed column of a ShiftHalf field embedded in daily_reports.
func (s Shift) Column(name string) string {
	return string(s) + "_" + name
}

func (s Shift) SupervisorTable() string {
	return "daily_report_supervisors_" + string(s)
}

func (s Shift) PerformanceTable() string {
	return "performance_" + string(s)
}

// ShiftHalf holds one half (day or night) of a daily report.
type ShiftHalf struct {
	GeneralNotes     string `gorm:"column:general_notes;type:text"`
	Late             string `gorm:"column:late;type:text"`
	Refills          string `gorm:"column:refills;type:text"`
	CustomerComments string `gorm:"column:customer_comments;type:text"`
	PreviousShift    string `gorm:"column:previous_shift;type:text"`

	Supervisors []User             `gorm:"-"`
	Performance []PerformanceEntry `gorm:"-"`
}

type DailyReport struct {
	ID        uint      `gorm:"primaryKey"`
	Date      string    `gorm:"size:10;uniqueIndex;not null"`
	Day       ShiftHalf `gorm:"embedded;embeddedPrefix:day_"`
	Night     ShiftHalf `gorm:"embedded;embeddedPrefix:night_"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DailyReport) TableName() string {
	return "daily_reports"
}

func (r *DailyReport) Half(s Shift) *ShiftHalf {
	if s == ShiftNight {
		return &r.Night
	}
	return &r.Day
}

// PerformanceEntry is read and written through Shift.PerformanceTable.
type PerformanceEntry struct {
	ID              uint      `gorm:"primaryKey"`
	ReportID        uint      `gorm:"not null;index"`
	EmployeeID      uuid.UUID `gorm:"type:char(36);not null;index"`
	PerformanceText string    `gorm:"type:text"`
}

// ReportSupervisor links a user to one half of a report.
type ReportSupervisor struct {
	ReportID uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID   uuid.UUID `gorm:"type:char(36);primaryKey"`
}

// The concrete types below only exist so each shift gets its own table and index names.

type DayPerformance struct{ PerformanceEntry }

func (DayPerformance) TableName() string { return ShiftDay.PerformanceTable() }

type NightPerformance struct{ PerformanceEntry }

func (NightPerformance) TableName() string { return ShiftNight.PerformanceTable() }

type DaySupervisor struct{ ReportSupervisor }

func (DaySupervisor) TableName() string { return ShiftDay.SupervisorTable() }

type NightSupervisor struct{ ReportSupervisor }

func (NightSupervisor) TableName() string { return ShiftNight.SupervisorTable() }

// Tables lists every model that is migrated.
func Tables() []interface{} {
	return []interface{}{
		&User{},
		&DailyReport{},
		&DaySupervisor{},
		&NightSupervisor{},
		&DayPerformance{},
		&NightPerformance{},
	}
}
