package domain

import (
	"errors"
	"fmt"
)

// Stage is one ordered phase of the manufacturing pipeline.
type Stage string

const (
	StageDesign    Stage = "DESIGN"
	StageSourcing  Stage = "SOURCING"
	StageCutting   Stage = "CUTTING"
	StageSewing    Stage = "SEWING"
	StageFinishing Stage = "FINISHING"
	StageQC        Stage = "QC"
	StagePacked    Stage = "PACKED"
	StageShipped   Stage = "SHIPPED"
)

// stageOrder is the fixed, company-independent manufacturing sequence.
// Ordinals are the indexes in this slice.
var stageOrder = []Stage{
	StageDesign, StageSourcing, StageCutting, StageSewing,
	StageFinishing, StageQC, StagePacked, StageShipped,
}

var stageOrdinal = func() map[Stage]int {
	m := map[Stage]int{}
	for i, s := range stageOrder {
		m[s] = i
	}
	return m
}()

func (s Stage) String() string {
	return string(s)
}

// Stages returns the catalog sequence, first stage first.
func Stages() []Stage {
	return append([]Stage(nil), stageOrder...)
}

func TotalStages() int {
	return len(stageOrder)
}

var ErrInvalidStage = errors.New("unknown production stage")

func AsStage(stage string) (Stage, error) {
	s := Stage(stage)
	if _, ok := stageOrdinal[s]; !ok {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidStage, stage)
	}
	return s, nil
}

func (s Stage) Known() bool {
	_, ok := stageOrdinal[s]
	return ok
}

// Ordinal returns the position of the stage in the catalog, or -1 for an
// unknown stage. Callers should have validated the value with AsStage.
func (s Stage) Ordinal() int {
	o, ok := stageOrdinal[s]
	if !ok {
		return -1
	}
	return o
}

// Next returns the immediate successor stage.
// The second return value is false when s is the last stage or unknown.
func (s Stage) Next() (Stage, bool) {
	o, ok := stageOrdinal[s]
	if !ok || o+1 >= len(stageOrder) {
		return "", false
	}
	return stageOrder[o+1], true
}

// Previous returns the immediate predecessor stage.
// The second return value is false when s is the first stage or unknown.
func (s Stage) Previous() (Stage, bool) {
	o, ok := stageOrdinal[s]
	if !ok || o <= 0 {
		return "", false
	}
	return stageOrder[o-1], true
}

func (s Stage) IsTerminal() bool {
	return s == stageOrder[len(stageOrder)-1]
}

// QCGated stages cannot be completed without a passing quality check
// recorded after their latest open stage update.
func (s Stage) QCGated() bool {
	return s == StageQC
}

// QCEligible stages are the ones where inspectors may record quality checks.
func (s Stage) QCEligible() bool {
	return s == StageFinishing || s == StageQC
}

// ProgressAtStage is the percentage of stages completed when the record
// stands at stage s with s not yet completed.
func ProgressAtStage(s Stage) int {
	o := s.Ordinal()
	if o < 0 {
		return 0
	}
	return o * 100 / len(stageOrder)
}

// ProgressAfterComplete is the percentage of stages completed once stage s
// is completed. Completing the last stage yields 100.
func ProgressAfterComplete(s Stage) int {
	o := s.Ordinal()
	if o < 0 {
		return 0
	}
	return (o + 1) * 100 / len(stageOrder)
}
