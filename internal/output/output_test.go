package output

import (
	"bytes"
	"testing"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("toml")
	assert.Equal(t, builderr.KindValidation, builderr.KindOf(err))
}

func TestPrint_JSON(t *testing.T) {
	var buf bytes.Buffer
	containers := []any{map[string]any{"name": "web", "image": "nginx"}}

	require.NoError(t, NewPrinter(&buf, "").Print(containers))

	assert.Equal(t, "[\n  {\n    \"image\": \"nginx\",\n    \"name\": \"web\"\n  }\n]\n", buf.String())
}

func TestPrint_JSONNull(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print(nil))
	assert.Equal(t, "null\n", buf.String())
}

func TestPrint_YAML(t *testing.T) {
	var buf bytes.Buffer
	containers := []any{map[string]any{"name": "web", "ports": []any{"8080/tcp"}}}

	require.NoError(t, NewPrinter(&buf, FormatYAML).Print(containers))

	assert.Equal(t, "- name: web\n  ports:\n    - 8080/tcp\n", buf.String())
}

func TestPrint_UnencodableValue(t *testing.T) {
	var buf bytes.Buffer
	err := NewPrinter(&buf, FormatJSON).Print(map[string]any{"f": func() {}})
	assert.ErrorContains(t, err, "encoding json")
}

func TestLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON)
	p.Line("Token removed")
	assert.Equal(t, "Token removed\n", buf.String())
	assert.Same(t, &buf, p.Writer())
}
