package mapping

// Count is the synthetic field name exposed by aggregated sources.
const Count = "Count"

// Default returns the built-in mapping for the AIL LT monthly template.
// It mirrors the manual template's layout: four data-bearing slides, the
// rest (title, charts, closing) pass through untouched.
func Default() *Mapping {
	return &Mapping{
		Inputs: []InputSpec{
			{Role: "working", Match: MatchExact, Pattern: "AIL LT Working file.xlsx", Required: true},
			{Role: "chronic_missing", Match: MatchSubstring, Pattern: "Chronic Missing Report", Required: true},
			{Role: "overlap", Match: MatchSubstring, Pattern: "Overlapped Vacant deactivation", Required: true},
			// Reference-only workbooks feeding template charts; never read
			// for data, so their absence is only worth a warning.
			{Role: "input_distribution", Match: MatchSubstring, Pattern: "Input Distribution", Required: false},
			{Role: "overcalled", Match: MatchSubstring, Pattern: "Overcalled", Required: false},
		},
		Targets: []TargetSpec{
			{
				Role:       "fmv",
				Source:     SourceSpec{Role: "working", Sheet: "CLT", HeaderAnchor: "Division", MaxRows: 10},
				Slide:      2,
				Table:      0,
				HeaderRows: 1,
				Columns: []ColumnSpec{
					{Field: "Division", Col: 0, Kind: KindText},
					{Field: "Total Dis", Col: 4, Kind: KindPercent},
				},
			},
			{
				Role:       "consent",
				Source:     SourceSpec{Role: "working", Sheet: "consent", MaxRows: 10},
				Slide:      3,
				Table:      0,
				HeaderRows: 1,
				Columns: []ColumnSpec{
					{Field: "Division Name", Col: 0, Kind: KindText},
					{Field: "DVL", Col: 1, Kind: KindText},
					{Field: "# HCP Consent", Col: 2, Kind: KindInteger},
					{Field: "Consent Require", Col: 3, Kind: KindInteger},
					{Field: "% Consent Require", Col: 4, Kind: KindPercent},
				},
			},
			{
				Role:       "hcp_overlap",
				Source:     SourceSpec{Role: "overlap", GroupBy: "User: Division Name", MaxRows: 13},
				Slide:      5,
				Table:      0,
				HeaderRows: 1,
				Columns: []ColumnSpec{
					{Field: "User: Division Name", Col: 1, Kind: KindText},
					{Field: Count, Col: 7, Kind: KindInteger},
				},
			},
			{
				Role:       "missed_hcp",
				Source:     SourceSpec{Role: "chronic_missing", Sheet: "New Visual", MaxRows: 12},
				Slide:      6,
				Table:      0,
				HeaderRows: 1,
				Columns: []ColumnSpec{
					// "Divison" is the header as it appears in the source
					// workbook, typo included.
					{Field: "Divison Name", Col: 0, Kind: KindText},
					{Field: "Chronically missing", Col: 1, Kind: KindInteger},
					{Field: "Strength", Col: 2, Kind: KindInteger},
					{Field: "%", Col: 3, Kind: KindPercent},
				},
			},
		},
	}
}
