package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultDir string
		expected   string
	}{
		{"empty string returns default", "", "ASC", "ASC"},
		{"lowercase asc", "asc", "DESC", "ASC"},
		{"lowercase desc", "desc", "ASC", "DESC"},
		{"invalid value returns default", "sideways", "ASC", "ASC"},
		{"injection attempt returns default", "ASC; DROP TABLE price_records;--", "DESC", "DESC"},
		{"whitespace around value", "  desc  ", "ASC", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input, tt.defaultDir))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns default", "", "product_id"},
		{"allowed field", "base_price", "base_price"},
		{"whitespace around allowed field", " created_at ", "created_at"},
		{"unknown field returns default", "retail_text", "product_id"},
		{"case sensitive", "BASE_PRICE", "product_id"},
		{"injection attempt returns default", "id; DROP TABLE price_records;--", "product_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, PriceRecordSortFields, "product_id"))
		})
	}
}
