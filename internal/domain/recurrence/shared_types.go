package recurrence

// Type discriminates which configuration block of a Pattern is meaningful.
type Type string

const (
	TypeMonthly   Type = "MONTHLY"
	TypeYearly    Type = "YEARLY"
	TypeQuarterly Type = "QUARTERLY"
	TypeCustom    Type = "CUSTOM"
)

// Unit is the step unit of a custom pattern.
type Unit string

const (
	UnitDays   Unit = "DAYS"
	UnitWeeks  Unit = "WEEKS"
	UnitMonths Unit = "MONTHS"
	UnitYears  Unit = "YEARS"
)

// EndType describes when a pattern stops producing occurrences.
type EndType string

const (
	EndNever            EndType = "NEVER"
	EndAfterOccurrences EndType = "AFTER_OCCURRENCES"
	EndByDate           EndType = "BY_DATE"
)
