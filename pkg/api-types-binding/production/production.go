package production

import (
	"github.com/weftline/weftline-api-types/misc/rfctime"
	apiprod "github.com/weftline/weftline-api-types/production"
	"github.com/weftline/weftline/pkg/domain"
	"github.com/weftline/weftline/pkg/utils/slices"
)

func ComposeSummary(r domain.ProductionRecord) apiprod.Summary {
	return apiprod.Summary{
		RecordId:     r.Id,
		OrderId:      r.OrderId,
		SampleId:     r.SampleId,
		CurrentStage: string(r.CurrentStage),
		Status:       string(r.Status),
		Progress:     r.Progress,
		UpdatedAt:    rfctime.RFC3339(r.UpdatedAt),
	}
}

func ComposeDetail(
	r domain.ProductionRecord,
	updates []domain.StageUpdate,
	checks []domain.QualityCheck,
) apiprod.Detail {
	return apiprod.Detail{
		Summary:        ComposeSummary(r),
		EstimatedStart: rfctime.Pointerized(r.EstimatedStart),
		EstimatedEnd:   rfctime.Pointerized(r.EstimatedEnd),
		ActualStart:    rfctime.Pointerized(r.ActualStart),
		ActualEnd:      rfctime.Pointerized(r.ActualEnd),
		Notes:          r.Notes,
		Updates:        slices.Map(updates, ComposeStageUpdate),
		QualityChecks:  slices.Map(checks, ComposeQualityCheck),
	}
}

func ComposeStageUpdate(u domain.StageUpdate) apiprod.StageUpdate {
	return apiprod.StageUpdate{
		UpdateId:      u.Id,
		Stage:         string(u.Stage),
		Status:        string(u.Status),
		IsRevision:    u.IsRevision,
		EstimatedDays: u.EstimatedDays,
		ExtraDays:     u.ExtraDays,
		DelayReason:   u.DelayReason,
		Notes:         u.Notes,
		Photos:        u.Photos,
		OperatorId:    u.OperatorId,
		ActualStart:   rfctime.Pointerized(u.ActualStart),
		ActualEnd:     rfctime.Pointerized(u.ActualEnd),
		CreatedAt:     rfctime.RFC3339(u.CreatedAt),
	}
}

func ComposeQualityCheck(q domain.QualityCheck) apiprod.QualityCheck {
	return apiprod.QualityCheck{
		CheckId:     q.Id,
		InspectorId: q.InspectorId,
		Result:      string(q.Result),
		Score:       q.Score,
		DefectFlags: apiprod.DefectFlags{
			Stitching:   q.DefectFlags.Stitching,
			Fabric:      q.DefectFlags.Fabric,
			Color:       q.DefectFlags.Color,
			Measurement: q.DefectFlags.Measurement,
		},
		Notes:     q.Notes,
		Photos:    q.Photos,
		CheckedAt: rfctime.RFC3339(q.CheckedAt),
	}
}
