package main

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocuments(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantContent []string
		wantIDs     []string
		wantErr     string
	}{
		{
			name:        "lines",
			input:       "alpha\n  beta  \n\n\ngamma",
			wantContent: []string{"alpha", "beta", "gamma"},
		},
		{
			name:        "json array",
			input:       `  [{"page_content":"alpha","metadata":{"id":"a1"}},{"page_content":"beta"}]`,
			wantContent: []string{"alpha", "beta"},
			wantIDs:     []string{"a1", ""},
		},
		{name: "empty", input: " \n\t", wantErr: "no documents in input"},
		{name: "empty json array", input: "[]", wantErr: "no documents in input"},
		{name: "malformed json", input: `[{"page_content":`, wantErr: "failed to parse JSON documents"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := readDocuments(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, docs, len(tt.wantContent))
			for i, d := range docs {
				assert.Equal(t, tt.wantContent[i], d.PageContent)

				id, ok := d.Metadata[idKey].(string)
				require.True(t, ok, "document %d has no id", i)
				if tt.wantIDs != nil && tt.wantIDs[i] != "" {
					assert.Equal(t, tt.wantIDs[i], id)
					continue
				}
				_, err := uuid.Parse(id)
				assert.NoError(t, err, "generated id should be a UUID")
			}
		})
	}
}

func TestOpenInput_Stdin(t *testing.T) {
	for _, args := range [][]string{nil, {"-"}} {
		rc, err := openInput(strings.NewReader("x"), args)
		require.NoError(t, err)
		assert.NoError(t, rc.Close())
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text", preview("short\n  text"))

	long := strings.Repeat("é", 100)
	got := preview(long)
	assert.Equal(t, previewLen, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}
