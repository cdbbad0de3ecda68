package datastore

import (
	"time"

	"github.com/greencanopy/allometree/internal/allometry"
)

// Equation is one persisted row of the canonical equation table.
type Equation struct {
	ID           uint   `gorm:"primaryKey"`
	Position     int    `gorm:"index"` // row number in the imported table
	SpeciesName  string `gorm:"size:255;index:idx_equation_key"`
	Region       string `gorm:"size:128;index:idx_equation_key"`
	Component    string `gorm:"size:32"`
	EquationType string `gorm:"size:64"`
	FormulaText  string `gorm:"type:text"`
	WoodDensity  string `gorm:"size:32"`
	CreatedAt    time.Time
}

func fromRecord(r *allometry.EquationRecord, position int) Equation {
	return Equation{
		Position:     position,
		SpeciesName:  r.Species,
		Region:       r.Region,
		Component:    r.Component,
		EquationType: r.EquationType,
		FormulaText:  r.FormulaText,
		WoodDensity:  r.WoodDensity,
	}
}

func (e *Equation) toRecord() allometry.EquationRecord {
	return allometry.EquationRecord{
		Species:      e.SpeciesName,
		Region:       e.Region,
		Component:    e.Component,
		EquationType: e.EquationType,
		FormulaText:  e.FormulaText,
		WoodDensity:  e.WoodDensity,
	}
}
