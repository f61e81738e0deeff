package models

import "strings"

// Structure is the training structure shared by every exercise in a block.
type Structure string

const (
	StructureSets     Structure = "sets"
	StructureSuperset Structure = "superset"
	StructureCircuit  Structure = "circuit"
	StructureAMRAP    Structure = "amrap"
	StructureEMOM     Structure = "emom"
	StructureForTime  Structure = "for_time"
	StructureTabata   Structure = "tabata"
	StructureInterval Structure = "interval"
	StructureWarmup   Structure = "warmup"
	StructureCooldown Structure = "cooldown"
)

var allStructures = []Structure{
	StructureSets,
	StructureSuperset,
	StructureCircuit,
	StructureAMRAP,
	StructureEMOM,
	StructureForTime,
	StructureTabata,
	StructureInterval,
	StructureWarmup,
	StructureCooldown,
}

func (s Structure) String() string { return string(s) }

func (s Structure) IsValid() bool {
	switch s {
	case StructureSets, StructureSuperset, StructureCircuit, StructureAMRAP, StructureEMOM,
		StructureForTime, StructureTabata, StructureInterval, StructureWarmup, StructureCooldown:
		return true
	}
	return false
}

// Structures returns the recognized structures in display order.
func Structures() []Structure {
	out := make([]Structure, len(allStructures))
	copy(out, allStructures)
	return out
}

// ParseStructure matches s case-insensitively against the enumerated set.
func ParseStructure(s string) (Structure, bool) {
	st := Structure(strings.ToLower(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// LoadUnit is the unit a Load magnitude is expressed in.
type LoadUnit string

const (
	LoadKg         LoadUnit = "kg"
	LoadLb         LoadUnit = "lb"
	LoadPercent    LoadUnit = "percent"
	LoadBodyweight LoadUnit = "bodyweight"
)

func (u LoadUnit) String() string { return string(u) }

func (u LoadUnit) IsValid() bool {
	switch u {
	case LoadKg, LoadLb, LoadPercent, LoadBodyweight:
		return true
	}
	return false
}

// Confidence describes how an exercise name was extracted.
//   - high: the name matched the exercise lexicon
//   - medium: leading text before the first quantity, not in the lexicon
//   - low: no rule produced a name; the raw line text was used
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}
