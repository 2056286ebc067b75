package interview

import "voxllm/internal/model"

// ComputeBackgroundSummary turns the stage 2 answers into the fixed list of
// background statements. No LLM is involved.
func ComputeBackgroundSummary(r model.CaseRecord) []string {
	var summary []string

	if r.IsTrue(model.FieldIsSend) {
		summary = append(summary, "Young person has SEND")
		if r.IsTrue(model.FieldIsSendSchoolAware) {
			summary = append(summary, "School is aware of SEND")
			if steps := r.TextOr(model.FieldSendSchoolAddress, ""); steps != "" {
				summary = append(summary, "School has taken steps: "+steps)
			}
		} else {
			summary = append(summary, "School is NOT aware of SEND")
		}
		switch support := r.TextOr(model.FieldSendWhoSupport, ""); support {
		case "":
		case model.SupportNotApplicable:
			summary = append(summary, "No professional support for SEND")
		default:
			summary = append(summary, "Professional support: "+support)
		}
	} else {
		summary = append(summary, "Young person does NOT have SEND")
	}

	summary = append(summary, yesNo(r, model.FieldIsEhcp,
		"Young person has EHCP",
		"Young person does NOT have EHCP"))
	summary = append(summary, yesNo(r, model.FieldIsEthnicMin,
		"Young person is from ethnic minority background",
		"Young person is NOT from ethnic minority background"))
	summary = append(summary, yesNo(r, model.FieldIsPrevSuspend,
		"Young person has been previously suspended",
		"Young person has NOT been previously suspended"))
	summary = append(summary, yesNo(r, model.FieldParentRiskAware,
		"Family was aware of behavioral issues/risk of exclusion",
		"Family was NOT aware of behavioral issues/risk of exclusion"))

	if factors := r.TextOr(model.FieldContribFactors, ""); factors != "" {
		summary = append(summary, "Contributing factors: "+factors)
	} else {
		summary = append(summary, "No specific contributing factors identified")
	}
	return summary
}

func yesNo(r model.CaseRecord, f model.Field, yes, no string) string {
	if r.IsTrue(f) {
		return yes
	}
	return no
}
