package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"

	"plinvoice/internal/domain"
)

const (
	// weightUnit is fixed for every row; the source documents this system
	// targets always declare weights in kilograms.
	weightUnit         = "KG"
	defaultUnitMeasure = "UN"
)

// numericHeaderFields are the header fields that must be concrete numbers in
// the merged record; null or missing values coerce to zero.
var numericHeaderFields = []string{
	"grandTotal",
	"totalNetWeight",
	"totalGrossWeight",
	"freightValue",
	"insuranceValue",
	"otherChargesValue",
}

// Merge combines the repaired metadata value and line-items value into one
// InvoiceRecord. Metadata scalars pass through as received (nil stays nil for
// optional strings); the numeric header set is coerced to concrete numbers;
// the normalized line-item rows overwrite any lineItems key the metadata
// response carried.
func Merge(metadata, lineItems any) (*domain.InvoiceRecord, error) {
	meta, ok := metadata.(map[string]any)
	if !ok {
		if metadata != nil {
			log.Printf("parser.Merge: metadata is %T, not an object; using empty metadata", metadata)
		}
		meta = map[string]any{}
	}

	for _, field := range numericHeaderFields {
		meta[field] = coerceFloat(meta[field])
	}
	meta["totalPackages"] = int(coerceFloat(meta["totalPackages"]))
	delete(meta, "lineItems")

	// Every remaining header field decodes into an optional string. A
	// mistyped value is dropped here so the field stays null rather than
	// decoding into a pointer to the zero string.
	for field, v := range meta {
		if v == nil || isNumericHeaderField(field) {
			continue
		}
		if _, ok := v.(string); !ok {
			log.Printf("parser.Merge: metadata field %q has unexpected type %T, using default", field, v)
			delete(meta, field)
		}
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}

	rec := &domain.InvoiceRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		// A mistyped scalar must not abort the merge; the field keeps its
		// zero value and the rest of the record decodes normally.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
		log.Printf("parser.Merge: metadata field %q has unexpected type, using default", typeErr.Field)
	}

	rec.LineItems = NormalizeRows(lineItems)
	return rec, nil
}

// NormalizeRows turns the parsed line-items value into structured rows. The
// expected shape is a positional matrix (array of fixed-order scalar arrays);
// an array of already-keyed objects and an object wrapping a "lineItems" key
// are supported as fallbacks. Anything else yields no rows.
func NormalizeRows(value any) []domain.LineItem {
	switch v := value.(type) {
	case []any:
		if len(v) == 0 {
			return []domain.LineItem{}
		}
		if _, ok := v[0].([]any); ok {
			return rowsFromMatrix(v)
		}
		return rowsFromObjects(v)
	case map[string]any:
		if inner, ok := v["lineItems"]; ok {
			return NormalizeRows(inner)
		}
	}
	return []domain.LineItem{}
}

// rowsFromMatrix maps each row's 9 columns onto named fields. Missing
// trailing columns and falsy values take the documented defaults.
func rowsFromMatrix(rows []any) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(rows))
	for _, r := range rows {
		row, ok := r.([]any)
		if !ok || len(row) < 1 {
			continue
		}
		item := domain.LineItem{
			Description:     coerceString(col(row, 0)),
			PartNumber:      coerceStringPtr(col(row, 1)),
			Quantity:        coerceFloat(col(row, 2)),
			UnitMeasure:     coerceString(col(row, 3)),
			UnitPrice:       coerceFloat(col(row, 4)),
			Total:           coerceFloat(col(row, 5)),
			NetWeight:       coerceFloat(col(row, 6)),
			ManufacturerRef: coerceStringPtr(col(row, 7)),
			NCM:             coerceStringPtr(col(row, 8)),
		}
		finalizeRow(&item)
		items = append(items, item)
	}
	return items
}

// rowsFromObjects handles the fallback shape where the model returned keyed
// records instead of the positional matrix.
func rowsFromObjects(rows []any) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(rows))
	for _, r := range rows {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		item := domain.LineItem{
			Description:             coerceString(obj["description"]),
			PartNumber:              coerceStringPtr(obj["partNumber"]),
			Quantity:                coerceFloat(obj["quantity"]),
			UnitMeasure:             coerceString(obj["unitMeasure"]),
			UnitPrice:               coerceFloat(obj["unitPrice"]),
			Total:                   coerceFloat(obj["total"]),
			NetWeight:               coerceFloat(obj["netWeight"]),
			ManufacturerRef:         coerceStringPtr(obj["manufacturerRef"]),
			NCM:                     coerceStringPtr(obj["ncm"]),
			ProductCode:             coerceStringPtr(obj["productCode"]),
			TaxClassificationDetail: coerceStringPtr(obj["taxClassificationDetail"]),
			UnitNetWeight:           coerceFloat(obj["unitNetWeight"]),
		}
		finalizeRow(&item)
		items = append(items, item)
	}
	return items
}

// finalizeRow derives the missing weight field from the present one and
// applies row-level defaults. Runs on every row regardless of source shape.
func finalizeRow(item *domain.LineItem) {
	if item.NetWeight > 0 && item.Quantity > 0 {
		item.UnitNetWeight = roundTo(item.NetWeight/item.Quantity, 6)
	} else if item.UnitNetWeight > 0 && item.Quantity > 0 {
		item.NetWeight = roundTo(item.UnitNetWeight*item.Quantity, 4)
	}
	item.WeightUnit = weightUnit
	if item.UnitMeasure == "" {
		item.UnitMeasure = defaultUnitMeasure
	}
}

func roundTo(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}

func col(row []any, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}

func isNumericHeaderField(field string) bool {
	if field == "totalPackages" {
		return true
	}
	for _, f := range numericHeaderFields {
		if f == field {
			return true
		}
	}
	return false
}

// coerceFloat converts a JSON scalar to a float, treating null, absence, and
// anything non-numeric as zero.
func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f
		}
	}
	return 0
}

// coerceString stringifies scalars: descriptions and units occasionally
// arrive as bare numbers.
func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return formatNumber(s)
	}
	return ""
}

// coerceStringPtr preserves the distinction between an absent optional string
// (nil) and a present one.
func coerceStringPtr(v any) *string {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return &s
	case float64:
		// Codes occasionally arrive as bare numbers.
		str := formatNumber(s)
		return &str
	}
	return nil
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%g", f)
}
