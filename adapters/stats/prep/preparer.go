package prep

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"promohypo/domain/core"
	"promohypo/domain/dataset"
	"promohypo/internal"
)

// naTokens are cell values treated as missing
var naTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"nan":  true,
	"-":    true,
}

// rowStatus classifies a raw row during preparation
type rowStatus int

const (
	rowIncluded rowStatus = iota
	rowMissing
	rowInvalid
)

// Preparer validates raw rows and produces the encoded analysis dataset
type Preparer struct {
	logger *internal.Logger
}

// NewPreparer creates a preparer logging through the default logger
func NewPreparer() *Preparer {
	return &Preparer{logger: internal.DefaultLogger}
}

// Prepare converts raw rows into an encoded dataset.
// A required column absent from every row is a schema error; rows with a missing or
// unparseable field are excluded and counted.
func (p *Preparer) Prepare(rows []dataset.RawRow) (*dataset.EncodedDataset, error) {
	resolved, err := checkSchema(rows)
	if err != nil {
		return nil, err
	}

	counts := dataset.ExclusionStats{Total: len(rows)}
	observations := make([]dataset.Observation, 0, len(rows))

	for i, fields := range resolved {
		obs, status, reason := parseRow(fields)
		switch status {
		case rowMissing:
			counts.ExcludedMissing++
			p.logger.Debug("[Preparer] row %d excluded (missing): %s", i+1, reason)
		case rowInvalid:
			counts.ExcludedInvalid++
			p.logger.Debug("[Preparer] row %d excluded (invalid): %s", i+1, reason)
		default:
			observations = append(observations, obs)
		}
	}

	p.logger.Info("[Preparer] %d rows read, %d included, %d missing, %d invalid",
		counts.Total, len(observations), counts.ExcludedMissing, counts.ExcludedInvalid)

	return dataset.NewEncodedDataset(observations, counts)
}

// PrepareObservations validates already-typed observations and encodes them
func (p *Preparer) PrepareObservations(observations []dataset.Observation) (*dataset.EncodedDataset, error) {
	for i, o := range observations {
		if err := validateObservation(o); err != nil {
			return nil, core.NewValidationError(fmt.Sprintf("observation %d", i), err.Error())
		}
	}
	return dataset.NewEncodedDataset(observations, dataset.ExclusionStats{Total: len(observations)})
}

// checkSchema resolves every row onto the required fields. It fails when a
// required column never appears in the input, or when two source columns of one
// row resolve to the same field.
func checkSchema(rows []dataset.RawRow) ([]map[string]string, error) {
	resolved := make([]map[string]string, len(rows))
	seen := make(map[string]bool, len(dataset.RequiredFields))
	for i, row := range rows {
		fields, err := resolveRow(row)
		if err != nil {
			return nil, core.NewValidationError("schema", fmt.Sprintf("row %d: %v", i+1, err))
		}
		for field := range fields {
			seen[field] = true
		}
		resolved[i] = fields
	}
	if len(rows) == 0 {
		return resolved, nil
	}

	var absent []string
	for _, field := range dataset.RequiredFields {
		if !seen[field] {
			absent = append(absent, field)
		}
	}
	if len(absent) > 0 {
		return nil, core.NewValidationError("schema", fmt.Sprintf("required column(s) absent from every row: %s", strings.Join(absent, ", ")))
	}
	return resolved, nil
}

// resolveRow maps a row's source headers onto required fields. A header that is
// exactly a field name wins over an alias; other extra columns are ignored.
func resolveRow(row dataset.RawRow) (map[string]string, error) {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(map[string]string, len(dataset.RequiredFields))
	sources := make(map[string]string, len(dataset.RequiredFields))
	exact := make(map[string]bool, len(dataset.RequiredFields))
	for _, key := range keys {
		field := canonicalHeader(key)
		alias, isAlias := headerAliases[field]
		if isAlias {
			field = alias
		}
		if !isRequired(field) {
			continue
		}
		if prev, ok := sources[field]; ok {
			switch {
			case exact[field] && isAlias:
				continue
			case !exact[field] && !isAlias:
				// exact header replaces an alias seen earlier
			default:
				return nil, fmt.Errorf("columns %q and %q both map to %s", prev, key, field)
			}
		}
		sources[field] = key
		exact[field] = !isAlias
		fields[field] = strings.TrimSpace(row[key])
	}
	return fields, nil
}

func isRequired(field string) bool {
	for _, f := range dataset.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}

// parseRow returns the observation or the reason the row is excluded.
// Missing fields take precedence over invalid ones.
func parseRow(values map[string]string) (dataset.Observation, rowStatus, string) {
	for _, field := range dataset.RequiredFields {
		if isMissing(values[field]) {
			return dataset.Observation{}, rowMissing, field + " is missing"
		}
	}

	var obs dataset.Observation
	var err error

	if obs.Sales, err = parseNumber(values[dataset.FieldSales]); err != nil {
		return obs, rowInvalid, fmt.Sprintf("sales: %v", err)
	}
	if obs.CustomerRate, err = parseNumber(values[dataset.FieldCustomerRate]); err != nil {
		return obs, rowInvalid, fmt.Sprintf("customer_rate: %v", err)
	}
	if obs.Performance, err = dataset.ParsePerformanceLevel(values[dataset.FieldPerformance]); err != nil {
		return obs, rowInvalid, err.Error()
	}
	if obs.Promoted, err = dataset.ParsePromoted(values[dataset.FieldPromoted]); err != nil {
		return obs, rowInvalid, err.Error()
	}
	if err := validateObservation(obs); err != nil {
		return obs, rowInvalid, err.Error()
	}

	return obs, rowIncluded, ""
}

func validateObservation(o dataset.Observation) error {
	if math.IsNaN(o.Sales) || math.IsInf(o.Sales, 0) {
		return fmt.Errorf("sales is not finite")
	}
	if o.Sales < 0 {
		return fmt.Errorf("sales %g is negative", o.Sales)
	}
	if math.IsNaN(o.CustomerRate) || math.IsInf(o.CustomerRate, 0) {
		return fmt.Errorf("customer_rate is not finite")
	}
	if !o.Performance.Valid() {
		return fmt.Errorf("unknown performance level %d", int(o.Performance))
	}
	return nil
}

func isMissing(v string) bool {
	return naTokens[strings.ToLower(strings.TrimSpace(v))]
}

// parseNumber accepts plain decimals with optional thousands separators and currency signs
func parseNumber(s string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "$", "", "€", "", "£", "").Replace(s)
	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}

// headerAliases maps normalized source headers onto required fields
var headerAliases = map[string]string{
	"total_sales":       dataset.FieldSales,
	"sales_total":       dataset.FieldSales,
	"customer_rating":   dataset.FieldCustomerRate,
	"avg_customer_rate": dataset.FieldCustomerRate,
	"customer_rate_avg": dataset.FieldCustomerRate,
	"rating":            dataset.FieldCustomerRate,
	"performance_level": dataset.FieldPerformance,
	"perf":              dataset.FieldPerformance,
	"promotion":         dataset.FieldPromoted,
	"is_promoted":       dataset.FieldPromoted,
}

// NormalizeHeader lowercases a header, collapses separators to underscores and
// resolves common aliases
func NormalizeHeader(h string) string {
	key := canonicalHeader(h)
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

// canonicalHeader lowercases a header and collapses separators to underscores
func canonicalHeader(h string) string {
	key := strings.ToLower(strings.TrimSpace(h))
	key = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(key)
	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}
	return strings.Trim(key, "_")
}
