package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "streamlog/pkg/domain-errors"
)

func TestSummary(t *testing.T) {
	tests := []struct {
		name    string
		message string
		args    []any
		strict  bool
		want    string
		wantErr bool
	}{
		{
			name:    "sequential directives",
			message: "%s updated %q",
			args:    []any{"admin", "Hello World"},
			want:    `admin updated "Hello World"`,
		},
		{
			name:    "positional directives",
			message: "%2$s edited by %1$s",
			args:    []any{"admin", "About page"},
			want:    "About page edited by admin",
		},
		{
			name:    "positional reuse",
			message: "%1$s and %1$s again",
			args:    []any{"admin"},
			want:    "admin and admin again",
		},
		{
			name:    "no directives",
			message: "Settings updated",
			want:    "Settings updated",
		},
		{
			name:    "missing argument lenient",
			message: "Updated %s",
			want:    "Updated ",
		},
		{
			name:    "missing argument strict",
			message: "Updated %s",
			strict:  true,
			wantErr: true,
		},
		{
			name:    "surplus argument lenient",
			message: "Updated %s",
			args:    []any{"post", "extra"},
			want:    "Updated post",
		},
		{
			name:    "surplus argument strict",
			message: "Updated %s",
			args:    []any{"post", "extra"},
			strict:  true,
			wantErr: true,
		},
		{
			name:    "type mismatch lenient",
			message: "Deleted %d items",
			args:    []any{"several"},
			want:    "Deleted  items",
		},
		{
			name:    "type mismatch strict",
			message: "Deleted %d items",
			args:    []any{"several"},
			strict:  true,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summary(tt.message, tt.args, tt.strict)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringify(t *testing.T) {
	when := time.Date(2024, 3, 15, 9, 30, 0, 250_000_000, time.UTC)

	tests := []struct {
		name   string
		value  any
		want   string
		wantOK bool
	}{
		{name: "nil dropped", value: nil, wantOK: false},
		{name: "string unchanged", value: "hello", want: "hello", wantOK: true},
		{name: "bool true", value: true, want: "true", wantOK: true},
		{name: "bool false", value: false, want: "false", wantOK: true},
		{name: "int", value: 42, want: "42", wantOK: true},
		{name: "int64", value: int64(-7), want: "-7", wantOK: true},
		{name: "uint", value: uint(9), want: "9", wantOK: true},
		{name: "float shortest", value: 1.50, want: "1.5", wantOK: true},
		{name: "float integral", value: 3.0, want: "3", wantOK: true},
		{name: "time ISO-8601 millis UTC", value: when, want: "2024-03-15T09:30:00.250Z", wantOK: true},
		{name: "slice to JSON", value: []int{1, 2, 3}, want: "[1,2,3]", wantOK: true},
		{name: "map to JSON", value: map[string]int{"a": 1}, want: `{"a":1}`, wantOK: true},
		{name: "nested to JSON", value: map[string][]string{"roles": {"editor"}}, want: `{"roles":["editor"]}`, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Stringify(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	when := time.Date(2024, 3, 15, 11, 30, 0, 250_000_000, loc)

	// Always rendered in UTC regardless of the input zone.
	assert.Equal(t, "2024-03-15T09:30:00.250Z", Timestamp(when))
}
