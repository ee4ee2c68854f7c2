package dataset

// ColumnSummary holds descriptive statistics for one numeric column
type ColumnSummary struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// LevelCount is the promotion cross-tab for one performance level
type LevelCount struct {
	Level    string  `json:"level"`
	Rank     int     `json:"rank"`
	Rows     int     `json:"rows"`
	Promoted int     `json:"promoted"`
	Rate     float64 `json:"rate"`
}

// Summary describes a prepared dataset
type Summary struct {
	Rows       int             `json:"rows"`
	Promoted   int             `json:"promoted"`
	Exclusions ExclusionStats  `json:"exclusions"`
	Columns    []ColumnSummary `json:"columns"`
	Levels     []LevelCount    `json:"levels"`
}
