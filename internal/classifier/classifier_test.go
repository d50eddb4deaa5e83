package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ramosjr18/categorizar-docs/internal/extractor"
)

func TestClassifyKeywordInFilename(t *testing.T) {
	got := Classify("reporte_mensual.pdf", "", extractor.Signals{})
	assert.Equal(t, "Reporte", got)
}

func TestClassifyWholeWordInText(t *testing.T) {
	got := Classify("datos.pdf", "la ip del servidor cambió ayer", extractor.Signals{})
	assert.Equal(t, "Sistemas y Servidores", got)

	// "ip" inside another word must not count.
	got = Classify("datos.pdf", "participaciones municipales", extractor.Signals{})
	assert.Equal(t, "General", got)
}

func TestClassifyIPSignalOutweighsInventoryFilename(t *testing.T) {
	// "inventario" in the filename scores 1 for Inventario; the IP
	// signal scores +3 for Sistemas y Servidores, which must win.
	got := Classify("inventario_2024.csv", `[{"host":"srv01","direccion":"192.168.0.1"}]`,
		extractor.Signals{ContainsIPLiteral: true, ContainsHostToken: true})
	assert.Equal(t, "Sistemas y Servidores", got)
}

func TestClassifyTieResolvesToFirstDeclared(t *testing.T) {
	// Inventario: 1 (filename) + 2 (signal) = 3. Sistemas y Servidores:
	// 3 (signal). Equal scores resolve to the first declared category.
	got := Classify("inventario.csv", "", extractor.Signals{
		ContainsIPLiteral:  true,
		LooksLikeInventory: true,
	})
	assert.Equal(t, "Inventario", got)
}

func TestClassifyGeneralWhenNothingScores(t *testing.T) {
	got := Classify("foto_vacaciones.pdf", "qué bonito atardecer", extractor.Signals{})
	assert.Equal(t, CategoryGeneral, got)
}

func TestClassifyDeterministic(t *testing.T) {
	sig := extractor.Signals{ContainsHostToken: true}
	first := Classify("balance_anual.xlsx", "ingreso egreso balance factura", sig)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify("balance_anual.xlsx", "ingreso egreso balance factura", sig))
	}
}

func TestClassifyAlwaysReturnsKnownLabel(t *testing.T) {
	known := map[string]bool{CategoryGeneral: true}
	for _, label := range Labels() {
		known[label] = true
	}

	inputs := []struct {
		name, text string
		sig        extractor.Signals
	}{
		{"contrato_firma.pdf", "cláusula jurídico legal", extractor.Signals{}},
		{"x.csv", "", extractor.Signals{LooksLikeInventory: true}},
		{"", "", extractor.Signals{}},
	}
	for _, in := range inputs {
		assert.True(t, known[Classify(in.name, in.text, in.sig)])
	}
}
