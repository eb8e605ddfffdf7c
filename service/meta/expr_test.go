package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	type testCase struct {
		name     string
		env      map[string]string
		input    string
		expected string
	}
	tests := []testCase{
		{name: "no expressions", input: "just a plain string", expected: "just a plain string"},
		{name: "single expression", env: map[string]string{"FOO": "bar"}, input: "value is ${env.FOO}", expected: "value is bar"},
		{name: "multiple expressions", env: map[string]string{"A": "1", "B": "2"}, input: "${env.A}-${env.B}-${env.A}", expected: "1-2-1"},
		{name: "unset variable becomes empty", input: "unset=${env.NOTSET}-end", expected: "unset=-end"},
		{name: "missing closing brace", env: map[string]string{"X": "x"}, input: "start ${env.X and ${env.Y} end", expected: "start ${env.X and  end"},
		{name: "prefix only no key", input: "oops ${env.} done", expected: "oops  done"},
		{name: "unterminated", input: "dsn=${env.DSN", expected: "dsn=${env.DSN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lookup := func(key string) string { return tc.env[key] }
			assert.Equal(t, tc.expected, expand(tc.input, lookup))
		})
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("GUARANTY_TEST_DSN", "postgres://localhost/guaranty")
	assert.Equal(t, "dsn: postgres://localhost/guaranty", ExpandEnv("dsn: ${env.GUARANTY_TEST_DSN}"))
}
