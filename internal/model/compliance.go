package model

// ComplianceStatus classifies whether a child order finished on time
// relative to its baseline planned-end date.
type ComplianceStatus string

const (
	StatusUnfinished   ComplianceStatus = "unfinished"   // not completed, not yet overdue (or baseline unknown)
	StatusDelayed      ComplianceStatus = "delayed"      // not completed and past the effective required date
	StatusCompliant    ComplianceStatus = "compliant"    // completed on or before baseline
	StatusNonCompliant ComplianceStatus = "noncompliant" // completed after baseline
)

// Label returns the Japanese display string used by the dashboard and
// spreadsheet export.
func (s ComplianceStatus) Label() string {
	switch s {
	case StatusUnfinished:
		return "未完成"
	case StatusDelayed:
		return "遅延"
	case StatusCompliant:
		return "遵守"
	case StatusNonCompliant:
		return "未遵守"
	}
	return string(s)
}

// ProgressStage is the coarse process progress derived from the
// requirement feed's process markers.
type ProgressStage string

const (
	StageInspection ProgressStage = "inspection"
	StageA          ProgressStage = "a"
	StageC          ProgressStage = "c"
	StageProcess    ProgressStage = "process"
	StageExcluded   ProgressStage = "excluded" // no parent order — not tracked
	StageNotStarted ProgressStage = "not_started"
)

func (p ProgressStage) Label() string {
	switch p {
	case StageInspection:
		return "検査"
	case StageA:
		return "A"
	case StageC:
		return "C"
	case StageProcess:
		return "工程"
	case StageExcluded:
		return "対象外"
	case StageNotStarted:
		return "未着手"
	}
	return string(p)
}

// ProductionType groups owning departments into production
// classifications.
type ProductionType string

const (
	TypeInHouse    ProductionType = "in_house"
	TypeOutsourced ProductionType = "outsourced"
	TypeOther      ProductionType = "other"
)

func (t ProductionType) Label() string {
	switch t {
	case TypeInHouse:
		return "内製"
	case TypeOutsourced:
		return "外注"
	case TypeOther:
		return "その他"
	}
	return string(t)
}

// Classifier maps raw MRP controller codes to production types through
// an explicit table. Codes absent from the table classify as Other.
type Classifier struct {
	byCode map[string]ProductionType
}

// defaultInHouse lists the in-house machining controllers (PC1–PC6).
var defaultInHouse = []string{"PC1", "PC2", "PC3", "PC4", "PC5", "PC6"}

// NewClassifier builds a classifier from explicit code lists. A code
// appearing in both lists resolves to in-house.
func NewClassifier(inHouse, outsourced []string) *Classifier {
	byCode := make(map[string]ProductionType, len(inHouse)+len(outsourced))
	for _, c := range outsourced {
		byCode[c] = TypeOutsourced
	}
	for _, c := range inHouse {
		byCode[c] = TypeInHouse
	}
	return &Classifier{byCode: byCode}
}

// DefaultClassifier covers the PC1–PC6 in-house controllers only;
// sites add outsourced codes through configuration.
func DefaultClassifier() *Classifier {
	return NewClassifier(defaultInHouse, nil)
}

// Classify resolves a department code. Empty codes are Other.
func (c *Classifier) Classify(code string) ProductionType {
	if t, ok := c.byCode[code]; ok {
		return t
	}
	return TypeOther
}

// DepartmentGroup collapses numbered controller codes into their group
// string (PC1–PC6 become "PC"); other codes pass through unchanged.
func DepartmentGroup(code string) string {
	for _, c := range defaultInHouse {
		if code == c {
			return "PC"
		}
	}
	return code
}
