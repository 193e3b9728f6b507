package production

import (
	"github.com/weftline/weftline-api-types/internal/utils/cmp"
	"github.com/weftline/weftline-api-types/misc/rfctime"
)

type Summary struct {
	RecordId     string          `json:"recordId"`
	OrderId      string          `json:"orderId,omitempty"`
	SampleId     string          `json:"sampleId,omitempty"`
	CurrentStage string          `json:"currentStage"`
	Status       string          `json:"status"`
	Progress     int             `json:"progress"`
	UpdatedAt    rfctime.RFC3339 `json:"updatedAt"`
}

func (s Summary) Equal(o Summary) bool {
	return s.RecordId == o.RecordId &&
		s.OrderId == o.OrderId &&
		s.SampleId == o.SampleId &&
		s.CurrentStage == o.CurrentStage &&
		s.Status == o.Status &&
		s.Progress == o.Progress &&
		s.UpdatedAt.Equal(o.UpdatedAt)
}

type Detail struct {
	Summary
	EstimatedStart *rfctime.RFC3339 `json:"estimatedStart,omitempty"`
	EstimatedEnd   *rfctime.RFC3339 `json:"estimatedEnd,omitempty"`
	ActualStart    *rfctime.RFC3339 `json:"actualStart,omitempty"`
	ActualEnd      *rfctime.RFC3339 `json:"actualEnd,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Updates        []StageUpdate    `json:"updates"`
	QualityChecks  []QualityCheck   `json:"qualityChecks"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Summary.Equal(o.Summary) &&
		timePtrEq(d.EstimatedStart, o.EstimatedStart) &&
		timePtrEq(d.EstimatedEnd, o.EstimatedEnd) &&
		timePtrEq(d.ActualStart, o.ActualStart) &&
		timePtrEq(d.ActualEnd, o.ActualEnd) &&
		d.Notes == o.Notes &&
		cmp.SliceEqualUnordered(d.Updates, o.Updates) &&
		cmp.SliceEqualUnordered(d.QualityChecks, o.QualityChecks)
}

type StageUpdate struct {
	UpdateId      string           `json:"updateId"`
	Stage         string           `json:"stage"`
	Status        string           `json:"status"`
	IsRevision    bool             `json:"isRevision"`
	EstimatedDays int              `json:"estimatedDays,omitempty"`
	ExtraDays     int              `json:"extraDays,omitempty"`
	DelayReason   string           `json:"delayReason,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Photos        []string         `json:"photos,omitempty"`
	OperatorId    string           `json:"operatorId"`
	ActualStart   *rfctime.RFC3339 `json:"actualStart,omitempty"`
	ActualEnd     *rfctime.RFC3339 `json:"actualEnd,omitempty"`
	CreatedAt     rfctime.RFC3339  `json:"createdAt"`
}

func (u StageUpdate) Equal(o StageUpdate) bool {
	return u.UpdateId == o.UpdateId &&
		u.Stage == o.Stage &&
		u.Status == o.Status &&
		u.IsRevision == o.IsRevision &&
		u.EstimatedDays == o.EstimatedDays &&
		u.ExtraDays == o.ExtraDays &&
		u.DelayReason == o.DelayReason &&
		u.Notes == o.Notes &&
		cmp.SliceEq(u.Photos, o.Photos) &&
		u.OperatorId == o.OperatorId &&
		timePtrEq(u.ActualStart, o.ActualStart) &&
		timePtrEq(u.ActualEnd, o.ActualEnd) &&
		u.CreatedAt.Equal(o.CreatedAt)
}

type DefectFlags struct {
	Stitching   bool `json:"stitching"`
	Fabric      bool `json:"fabric"`
	Color       bool `json:"color"`
	Measurement bool `json:"measurement"`
}

type QualityCheck struct {
	CheckId     string          `json:"checkId"`
	InspectorId string          `json:"inspectorId"`
	Result      string          `json:"result"`
	Score       *int            `json:"score,omitempty"`
	DefectFlags DefectFlags     `json:"defectFlags"`
	Notes       string          `json:"notes,omitempty"`
	Photos      []string        `json:"photos,omitempty"`
	CheckedAt   rfctime.RFC3339 `json:"checkedAt"`
}

func (q QualityCheck) Equal(o QualityCheck) bool {
	scoreEq := (q.Score == nil && o.Score == nil) ||
		(q.Score != nil && o.Score != nil && *q.Score == *o.Score)

	return q.CheckId == o.CheckId &&
		q.InspectorId == o.InspectorId &&
		q.Result == o.Result &&
		scoreEq &&
		q.DefectFlags == o.DefectFlags &&
		q.Notes == o.Notes &&
		cmp.SliceEq(q.Photos, o.Photos) &&
		q.CheckedAt.Equal(o.CheckedAt)
}

// Creation is the request body to register an order or a sample for tracking.
//
// Exactly one of OrderId and SampleId should be set.
type Creation struct {
	OrderId        string           `json:"orderId,omitempty"`
	SampleId       string           `json:"sampleId,omitempty"`
	EstimatedStart *rfctime.RFC3339 `json:"estimatedStart,omitempty"`
	EstimatedEnd   *rfctime.RFC3339 `json:"estimatedEnd,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

type StartStage struct {
	Stage         string   `json:"stage"`
	Notes         string   `json:"notes,omitempty"`
	Photos        []string `json:"photos,omitempty"`
	EstimatedDays int      `json:"estimatedDays,omitempty"`
	HasDelay      bool     `json:"hasDelay,omitempty"`
	DelayReason   string   `json:"delayReason,omitempty"`
	ExtraDays     int      `json:"extraDays,omitempty"`
}

type CompleteStage struct {
	Stage  string   `json:"stage"`
	Notes  string   `json:"notes,omitempty"`
	Photos []string `json:"photos,omitempty"`
}

type RevertStage struct {
	TargetStage string `json:"targetStage"`
	Reason      string `json:"reason,omitempty"`
}

type QualityCheckRequest struct {
	Result      string      `json:"result"`
	Score       *int        `json:"score,omitempty"`
	DefectFlags DefectFlags `json:"defectFlags"`
	Notes       string      `json:"notes,omitempty"`
	Photos      []string    `json:"photos,omitempty"`
}

func timePtrEq(a, b *rfctime.RFC3339) bool {
	if (a == nil) || (b == nil) {
		return (a == nil) && (b == nil)
	}
	return a.Equal(*b)
}
