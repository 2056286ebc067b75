package model

// Ground is one argument of the position statement.
type Ground struct {
	Title   string   `json:"title" bson:"title"`
	Reasons []string `json:"reasons" bson:"reasons"`
}

// GroundsDocument is the structured position statement.
type GroundsDocument struct {
	Grounds []Ground `json:"grounds" bson:"grounds"`
}

// ReasonCount returns the total number of reasons across grounds.
func (d *GroundsDocument) ReasonCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, g := range d.Grounds {
		n += len(g.Reasons)
	}
	return n
}

// DocumentDetails are the template values for the PDF front matter.
type DocumentDetails struct {
	ChildName     string `json:"childName" bson:"childName"`
	ParentName    string `json:"parentName" bson:"parentName"`
	SchoolName    string `json:"schoolName" bson:"schoolName"`
	Stage         string `json:"stage" bson:"stage"`
	ExclusionDate string `json:"exclusionDate" bson:"exclusionDate"`
}

// Replacements returns the placeholder map used inside grounds text.
func (d DocumentDetails) Replacements() map[string]string {
	return map[string]string{
		"childName":     d.ChildName,
		"parentName":    d.ParentName,
		"schoolName":    d.SchoolName,
		"stage":         d.Stage,
		"exclusionDate": d.ExclusionDate,
	}
}

// DetailsFromRecord pulls the document details out of a case record.
func DetailsFromRecord(r CaseRecord) DocumentDetails {
	return DocumentDetails{
		ChildName:     r.TextOr(FieldChildName, ""),
		ParentName:    r.TextOr(FieldParentName, ""),
		SchoolName:    r.TextOr(FieldSchoolName, ""),
		Stage:         r.TextOr(FieldStage, ""),
		ExclusionDate: r.TextOr(FieldExclusionDate, ""),
	}
}
