package db

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/oklog/ulid/v2"
)

const repoTestPrefix = "db:repository_test"

func TestNewRecordID_SortsByTime(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewRecordID(base)
	b := NewRecordID(base)
	c := NewRecordID(base.Add(time.Second))

	if !(a < b && b < c) {
		t.Errorf("%s - ids not monotonic: %s %s %s", repoTestPrefix, a, b, c)
	}
	id, err := ulid.Parse(a)
	if err != nil {
		t.Fatalf("%s - not a ULID: %v", repoTestPrefix, err)
	}
	if got := ulid.Time(id.Time()); !got.Equal(base) {
		t.Errorf("%s - ULID time = %v, want %v", repoTestPrefix, got, base)
	}
}

func TestBuildFilterClause(t *testing.T) {
	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	tests := []struct {
		name      string
		filter    APIErrorFilter
		wantWhere string
		wantArgs  []any
	}{
		{name: "empty", filter: APIErrorFilter{Limit: 5, Offset: 10}},
		{
			name:      "endpoint",
			filter:    APIErrorFilter{Endpoint: "Admin/DeleteTask"},
			wantWhere: " WHERE endpoint = $1",
			wantArgs:  []any{"Admin/DeleteTask"},
		},
		{
			name:      "all",
			filter:    APIErrorFilter{Endpoint: "Event/WriteEvents", ErrorName: "InvalidParams", HTTPCode: 400, Since: &since, Until: &until},
			wantWhere: " WHERE endpoint = $1 AND error_name = $2 AND http_code = $3 AND occurred >= $4 AND occurred < $5",
			wantArgs:  []any{"Event/WriteEvents", "InvalidParams", 400, since, until},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildFilterClause(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("%s - where = %q, want %q", repoTestPrefix, where, tt.wantWhere)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("%s - args mismatch (-want +got):\n%s", repoTestPrefix, diff)
			}
		})
	}
}

func TestMarshalDetails(t *testing.T) {
	if b, err := marshalDetails(nil); err != nil || b != nil {
		t.Errorf("%s - nil details = %s, %v", repoTestPrefix, b, err)
	}
	b, err := marshalDetails(map[string][]string{"Keys": {"required"}})
	if err != nil || string(b) != `{"Keys":["required"]}` {
		t.Errorf("%s - details = %s, %v", repoTestPrefix, b, err)
	}
}
