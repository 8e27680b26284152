package dictionary_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/srag/pkg/dictionary"
)

const sample = `[
  {"field_name": "CS_SEXO", "full_description": "Sexo do paciente", "type": "varchar", "value_options": "M-Masculino, F-Feminino, I-Ignorado"},
  {"field_name": "EVOLUCAO", "full_description": "Evolução do caso", "value_options": "1-Cura, 2-Óbito, 3-Óbito por outras causas, 9-Ignorado"},
  {"field_name": "NU_IDADE_N", "full_description": "Idade", "type": 3, "value_options": "N/A"},
  {"field_name": "CS_SEXO", "full_description": "duplicate"}
]`

func TestParse(t *testing.T) {
	d, err := dictionary.Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Len(t, d.Fields(), 3)

	f, ok := d.Field("NU_IDADE_N")
	require.True(t, ok)
	assert.Equal(t, "3", f.Type, "scalars are coerced to text")

	sex, _ := d.Field("CS_SEXO")
	assert.Equal(t, "Sexo do paciente", sex.Description)

	_, ok = d.Field("MISSING")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	_, err := dictionary.Parse(strings.NewReader(`{"field_name": "x"}`))
	assert.Error(t, err)
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		text string
		want []dictionary.Option
	}{
		{"", nil},
		{"N/A", nil},
		{"1-Sim, 2-Não", []dictionary.Option{{Value: "1", Label: "Sim"}, {Value: "2", Label: "Não"}}},
		{"1-Pós-operatório", []dictionary.Option{{Value: "1", Label: "Pós-operatório"}}},
		{"Sim, Não", []dictionary.Option{{Value: "Sim", Label: "Sim"}, {Value: "Não", Label: "Não"}}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, dictionary.ParseOptions(tt.text))
		})
	}
}

func TestSchemaHint(t *testing.T) {
	d, err := dictionary.Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "Coluna CS_SEXO: valores possíveis: M=Masculino, F=Feminino, I=Ignorado.", d.SchemaHint())
	assert.Equal(t,
		"Coluna CS_SEXO: valores possíveis: M=Masculino, F=Feminino, I=Ignorado.\n"+
			"Coluna EVOLUCAO: valores possíveis: 1=Cura, 2=Óbito, 3=Óbito por outras causas, 9=Ignorado.",
		d.SchemaHint("CS_SEXO", "NU_IDADE_N", "EVOLUCAO"))
	assert.Equal(t, dictionary.FallbackHint, dictionary.New(nil).SchemaHint())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dicionario.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	d, err := dictionary.Load(path)
	require.NoError(t, err)
	assert.Len(t, d.Options("EVOLUCAO"), 4)

	_, err = dictionary.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
