package rankings

// Columns every source table must carry. Period and institution are the
// only uniform columns; everything else is source-specific.
const (
	// ColumnPeriod is the shared period (year) column.
	ColumnPeriod = "Year"
	// ColumnInstitution is the shared cross-source institution identifier.
	ColumnInstitution = "IPEDS_Name"
	// ColumnRegion is the shared home-region flag column.
	ColumnRegion = "New_Jersey_University"
)

// Region token values used by the shared region column.
const (
	RegionTokenIn  = "Yes"
	RegionTokenOut = "No"
)

// DefaultAnchor is the fixed institution every comparison is made against.
const DefaultAnchor = "New Jersey Institute of Technology"

// DefaultComparator is the comparator preselected before a user picks one.
const DefaultComparator = "Rutgers University-New Brunswick"

// MetricRank is the logical key every profile maps to its rank column.
const MetricRank = "rank"

// MetricSpec binds one logical metric to a source's physical column and its
// display label.
type MetricSpec struct {
	Key    string `json:"key"`
	Column string `json:"column"`
	Label  string `json:"label"`
}

// Profile describes one source's schema: where its table lives, which
// column carries the published rank, and the logical-to-physical metric
// catalog. Agencies name equivalent columns differently; profiles keep that
// variance out of the query paths.
type Profile struct {
	Source         Source       `json:"source"`
	DisplayName    string       `json:"display_name"`
	TableName      string       `json:"table_name"`
	FileName       string       `json:"file_name"`
	RankColumn     string       `json:"rank_column"`
	RegionColumn   string       `json:"region_column"`
	InRegionToken  string       `json:"in_region_token"`
	OutRegionToken string       `json:"out_region_token"`
	Metrics        []MetricSpec `json:"metrics"`
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := p
	out.Metrics = append([]MetricSpec(nil), p.Metrics...)
	return out
}

// Metric resolves a logical metric key against the catalog.
func (p Profile) Metric(key string) (MetricSpec, bool) {
	for _, m := range p.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return MetricSpec{}, false
}

// MetricColumn resolves a logical metric key to the source's physical
// column name.
func (p Profile) MetricColumn(key string) (string, bool) {
	m, ok := p.Metric(key)
	if !ok {
		return "", false
	}
	return m.Column, true
}

// MetricKeys returns the catalog's logical keys in display order.
func (p Profile) MetricKeys() []string {
	keys := make([]string, len(p.Metrics))
	for i, m := range p.Metrics {
		keys[i] = m.Key
	}
	return keys
}

// DefaultProfiles returns the built-in profile per source, keyed by source.
// Callers receive fresh copies and may override via service options.
func DefaultProfiles() map[Source]Profile {
	out := make(map[Source]Profile, len(builtinProfiles))
	for _, p := range builtinProfiles {
		out[p.Source] = p.Clone()
	}
	return out
}

var builtinProfiles = []Profile{
	{
		Source:         SourceTimes,
		DisplayName:    "TIMES",
		TableName:      "times_rankings",
		FileName:       "times.csv",
		RankColumn:     "Times_Rank",
		RegionColumn:   ColumnRegion,
		InRegionToken:  RegionTokenIn,
		OutRegionToken: RegionTokenOut,
		Metrics: []MetricSpec{
			{Key: MetricRank, Column: "Times_Rank", Label: "Rank"},
			{Key: "overall", Column: "Overall", Label: "Overall Score"},
			{Key: "teaching", Column: "Teaching", Label: "Teaching"},
			{Key: "research_quality", Column: "Research_Quality", Label: "Research Quality"},
			{Key: "research_environment", Column: "Research_Environment", Label: "Research Environment"},
			{Key: "international_students", Column: "International_Students", Label: "Intl. Students %"},
			{Key: "students_per_staff", Column: "No_of_students_per_staff", Label: "Student/Staff Ratio"},
			{Key: "fte_students", Column: "No_of_FTE_Students", Label: "FTE Students"},
		},
	},
	{
		Source:         SourceQS,
		DisplayName:    "QS",
		TableName:      "qs_rankings",
		FileName:       "qs.csv",
		RankColumn:     "QS_Rank",
		RegionColumn:   ColumnRegion,
		InRegionToken:  RegionTokenIn,
		OutRegionToken: RegionTokenOut,
		Metrics: []MetricSpec{
			{Key: MetricRank, Column: "QS_Rank", Label: "QS Rank"},
			{Key: "overall_score", Column: "Overall_Score", Label: "Overall Score"},
			{Key: "academic_reputation", Column: "Academic_Reputation", Label: "Academic Reputation"},
			{Key: "employer_reputation", Column: "Employer_Reputation", Label: "Employer Reputation"},
			{Key: "citations_per_faculty", Column: "Citations_per_Faculty", Label: "Citations/Faculty"},
			{Key: "faculty_student_ratio", Column: "Faculty_Student_Ratio", Label: "Faculty-Student Ratio"},
			{Key: "employment_outcomes", Column: "Employment_Outcomes", Label: "Employment Outcomes"},
			{Key: "sustainability_score", Column: "Sustainability_Score", Label: "Sustainability Score"},
		},
	},
	{
		Source:         SourceUSNews,
		DisplayName:    "USN",
		TableName:      "usnews_rankings",
		FileName:       "usnews.csv",
		RankColumn:     "Rank",
		RegionColumn:   ColumnRegion,
		InRegionToken:  RegionTokenIn,
		OutRegionToken: RegionTokenOut,
		Metrics: []MetricSpec{
			{Key: MetricRank, Column: "Rank", Label: "USN Rank"},
			{Key: "peer_assessment", Column: "Peer assessment score", Label: "Peer Assessment"},
			{Key: "graduation_rate", Column: "Actual graduation rate", Label: "Graduation Rate"},
			{Key: "first_year_retention", Column: "Average first year retention rate", Label: "First-Year Retention"},
			{Key: "faculty_resources_rank", Column: "Faculty resources rank", Label: "Faculty Resources Rank"},
			{Key: "financial_resources_rank", Column: "Financial resources rank", Label: "Financial Resources Rank"},
			{Key: "pell_graduation_rate", Column: "Pell Graduation Rate", Label: "Pell Grad Rate"},
			{Key: "grad_income_benefit", Column: "College grad income benefit (%)", Label: "Income Benefit"},
		},
	},
	{
		Source:         SourceWashington,
		DisplayName:    "Washington Monthly",
		TableName:      "washington_rankings",
		FileName:       "washington.csv",
		RankColumn:     "Washington_Rank",
		RegionColumn:   ColumnRegion,
		InRegionToken:  RegionTokenIn,
		OutRegionToken: RegionTokenOut,
		Metrics: []MetricSpec{
			{Key: MetricRank, Column: "Washington_Rank", Label: "Washington Rank"},
			{Key: "eight_year_graduation_rate", Column: "8-year_graduation_rate", Label: "8-Year Graduation Rate"},
			{Key: "pell_graduation_gap", Column: "Pell/non-Pell_graduation_gap", Label: "Pell vs Non-Pell Grad Gap"},
			{Key: "net_price_low_income", Column: "Net_price_of_attendance_for_families_below_$75,000_income", Label: "Net Price <$75k"},
			{Key: "earnings_nine_years", Column: "Earnings_9_years_after_college_entry", Label: "Earnings 9 Years Post-Entry"},
			{Key: "research_expenditures", Column: "Research_expenditures_in_millions", Label: "Research Expenses (M$)"},
			{Key: "se_phds_awarded", Column: "Science_&_engineering_PhDs_awarded", Label: "S&E PhDs Awarded"},
			{Key: "faculty_awards", Column: "Faculty_receiving_significant_awards", Label: "Faculty Awards"},
		},
	},
}
