package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAppendPreservesOrder(t *testing.T) {
	var log Log
	inputs := []Message{
		NewUserMessage("one"),
		NewAssistantMessage("two"),
		NewUserMessage("three"),
		NewUserMessage("three"),
	}
	for _, msg := range inputs {
		log = log.Append(msg)
	}

	require.Len(t, log, len(inputs))
	for i, msg := range inputs {
		assert.Equal(t, msg, log[i], "entry %d", i)
	}
}

func TestLogAppendDoesNotAliasReceiver(t *testing.T) {
	base := Log{NewUserMessage("a")}
	left := base.Append(NewUserMessage("b"))
	right := base.Append(NewUserMessage("c"))

	assert.Len(t, base, 1)
	assert.Equal(t, "b", left[1].Content)
	assert.Equal(t, "c", right[1].Content)
}

func TestLogJSON(t *testing.T) {
	data, err := json.Marshal(Log(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	log := Log{NewUserMessage("hello"), NewAssistantMessage("hi")}
	data, err = json.Marshal(log)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":"hello"},{"role":"assistant","content":"hi"}]`, string(data))

	decoded, err := DecodeLog(data)
	require.NoError(t, err)
	assert.Equal(t, log, decoded)
}

func TestDecodeLog(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Log
		wantErr bool
	}{
		{name: "null", input: "null", want: Log{}},
		{name: "empty array", input: "[]", want: Log{}},
		{
			name:  "legacy ai role",
			input: `[{"role":"user","content":"q"},{"role":"ai","content":"a"}]`,
			want:  Log{NewUserMessage("q"), NewAssistantMessage("a")},
		},
		{name: "not json", input: "{oops", wantErr: true},
		{name: "object instead of array", input: `{"role":"user"}`, wantErr: true},
		{name: "unknown role", input: `[{"role":"system","content":"x"}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLog([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModelCycle(t *testing.T) {
	assert.Equal(t, Mistral, OpenLlama.Next())
	assert.Equal(t, OpenLlama, GeminiFlash.Next())
	assert.Equal(t, GeminiFlash, OpenLlama.Prev())
	assert.Equal(t, DefaultModel, ModelID("bogus").Next())
}

func TestParseModel(t *testing.T) {
	for _, id := range Models() {
		got, err := ParseModel(string(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
		assert.NotEqual(t, string(id), id.Label())
	}

	_, err := ParseModel("gpt-4o")
	assert.Error(t, err)
}
