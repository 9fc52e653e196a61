package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" jsonschema:"minLength=1"`
	Score int    `json:"score" jsonschema:"minimum=0,maximum=100"`
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bare object",
			text: `{"name":"a","score":1}`,
			want: []string{`{"name":"a","score":1}`},
		},
		{
			name: "object surrounded by prose",
			text: "Here you go: {\"name\":\"a\"} hope it helps",
			want: []string{`{"name":"a"}`},
		},
		{
			name: "fenced block comes first",
			text: "Example {\"x\":1}\n```json\n{\"name\":\"b\"}\n```",
			want: []string{`{"name":"b"}`, `{"x":1}`},
		},
		{
			name: "braces inside strings are ignored",
			text: `{"name":"a } tricky { one","score":2}`,
			want: []string{`{"name":"a } tricky { one","score":2}`},
		},
		{
			name: "escaped quotes",
			text: `{"name":"say \"hi\" {","score":3}`,
			want: []string{`{"name":"say \"hi\" {","score":3}`},
		},
		{
			name: "top level array",
			text: `result: [1, 2, {"a": [3]}] done`,
			want: []string{`[1, 2, {"a": [3]}]`},
		},
		{
			name: "unterminated object is skipped",
			text: `{"name": "a" and then {"name":"b"}`,
			want: []string{`{"name":"b"}`},
		},
		{
			name: "nothing json shaped",
			text: "just prose",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(tt.text))
		})
	}
}

func TestSchemaParse(t *testing.T) {
	s, err := SchemaFor[sample]()
	require.NoError(t, err)

	t.Run("direct JSON", func(t *testing.T) {
		got, err := s.Parse(`{"name":"test","score":42}`)
		require.NoError(t, err)
		assert.Equal(t, sample{Name: "test", Score: 42}, got)
	})

	t.Run("skips example JSON that does not match", func(t *testing.T) {
		text := `The format looks like {"foo": "bar"}. Answer: {"name":"real","score":90}`
		got, err := s.Parse(text)
		require.NoError(t, err)
		assert.Equal(t, "real", got.Name)
	})

	t.Run("out of range fails closed", func(t *testing.T) {
		_, err := s.Parse(`{"name":"x","score":150}`)
		assert.ErrorIs(t, err, ErrNoValidJSON)
	})

	t.Run("missing required field fails closed", func(t *testing.T) {
		_, err := s.Parse(`{"score":10}`)
		assert.ErrorIs(t, err, ErrNoValidJSON)
	})

	t.Run("extra fields tolerated", func(t *testing.T) {
		got, err := s.Parse(`{"name":"x","score":10,"note":"extra"}`)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Score)
	})

	t.Run("no json", func(t *testing.T) {
		_, err := s.Parse("sorry, I cannot help")
		assert.ErrorIs(t, err, ErrNoJSON)
	})
}

func TestSchemaParseIdempotentAcrossFences(t *testing.T) {
	s := MustSchema[sample]()
	payload := `{"name":"same","score":77}`

	inputs := []string{
		payload,
		"```json\n" + payload + "\n```",
		"```\n" + payload + "\n```",
		"Sure! Here it is:\n```json\n" + payload + "\n```\nLet me know.",
		"Sure! " + payload + " Let me know.",
	}

	want, err := s.Parse(payload)
	require.NoError(t, err)
	for _, in := range inputs {
		got, err := s.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestSchemaJSON(t *testing.T) {
	s := MustSchema[sample]()
	assert.Contains(t, s.JSON(), `"score"`)
	assert.Contains(t, s.JSON(), `"required"`)
}
