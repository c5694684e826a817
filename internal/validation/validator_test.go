// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package validation

import (
	"strings"
	"testing"
)

type testItem struct {
	ID string `json:"id" validate:"required,identifier,max=8"`
}

type testPayload struct {
	Kind  string     `json:"kind" validate:"required,oneof=bar line"`
	Items []testItem `json:"items" validate:"max=2,dive"`
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	if err := ValidateStruct(&testPayload{Kind: "bar", Items: []testItem{{ID: "MP-1"}}}); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateStruct_ReportsJSONPaths(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&testPayload{Kind: "bar", Items: []testItem{{ID: "MP-1"}, {ID: ""}}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	errs := err.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), err)
	}
	if errs[0].Field() != "items[1].id" {
		t.Errorf("Field() = %q, want items[1].id", errs[0].Field())
	}
	if errs[0].Tag() != "required" {
		t.Errorf("Tag() = %q, want required", errs[0].Tag())
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload testPayload
		want    string
	}{
		{"oneof", testPayload{Kind: "pie"}, "kind must be one of: bar line"},
		{"identifier", testPayload{Kind: "bar", Items: []testItem{{ID: "-bad"}}}, "items[0].id must be a platform identifier"},
		{"string max", testPayload{Kind: "bar", Items: []testItem{{ID: "MP-123456789"}}}, "items[0].id must be at most 8 characters"},
		{"slice max", testPayload{Kind: "bar", Items: []testItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}}, "items must be at most 2 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(&tt.payload)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error() = %q, want substring %q", err.Error(), tt.want)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&testPayload{Kind: ""}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", single.Code)
	}
	if single.Details["field"] != "kind" {
		t.Errorf("Details[field] = %v, want kind", single.Details["field"])
	}

	multi := ValidateStruct(&testPayload{Kind: "", Items: []testItem{{ID: ""}}}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("expected 2 field entries, got %#v", multi.Details["fields"])
	}
}
