// Package classifier assigns a category label to an extracted document by
// scoring its filename and text against a fixed keyword taxonomy.
package classifier

import (
	"regexp"
	"strings"

	"github.com/ramosjr18/categorizar-docs/internal/extractor"
)

// CategoryGeneral is returned when no category scores above zero.
const CategoryGeneral = "General"

// category pairs a label with its keyword set. Keywords are data, not
// logic: they are the archive's original Spanish terms, kept verbatim.
type category struct {
	Label    string
	Keywords []string
}

// taxonomy is the fixed category list. Order matters: ties resolve to the
// first declared category.
var taxonomy = []category{
	{Label: "Inventario", Keywords: []string{"inventario", "existencias", "almacén", "stock"}},
	{Label: "Reporte", Keywords: []string{"reporte", "informe", "estadísticas", "análisis", "summary"}},
	{Label: "Finanzas", Keywords: []string{"factura", "venta", "ingreso", "egreso", "balance"}},
	{Label: "Legal", Keywords: []string{"contrato", "firma", "jurídico", "legal", "cláusula", "politicas"}},
	{Label: "Sistemas y Servidores", Keywords: []string{"ip", "host", "hostname", "vlan", "switch", "firewall", "subred", "red", "interfaz"}},
	{Label: "Politicas y Controles", Keywords: []string{"controles", "control interno", "iso", "normativas", "compliance", "auditoría", "riesgos", "seguridad", "políticas", "procedimientos", "lineamientos"}},
}

// wordRes holds one whole-word matcher per keyword, index-aligned with
// taxonomy. Compiled once at package load.
var wordRes = func() [][]*regexp.Regexp {
	res := make([][]*regexp.Regexp, len(taxonomy))
	for i, cat := range taxonomy {
		res[i] = make([]*regexp.Regexp, len(cat.Keywords))
		for j, kw := range cat.Keywords {
			res[i][j] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		}
	}
	return res
}()

// Labels returns the taxonomy labels in declaration order.
func Labels() []string {
	labels := make([]string, len(taxonomy))
	for i, cat := range taxonomy {
		labels[i] = cat.Label
	}
	return labels
}

// Classify scores filename and text against every category and returns
// the winning label, or CategoryGeneral when nothing scores.
//
// Each keyword found as a substring of the lowercased filename scores 1;
// each whole-word occurrence in the lowercased text scores 1 more. The
// extraction signals add independent bonuses: +3 to "Sistemas y
// Servidores" for IP or host patterns, +2 to "Inventario" for inventory
// markers. Pure function: deterministic, no I/O.
func Classify(filename, text string, sig extractor.Signals) string {
	filename = strings.ToLower(filename)
	text = strings.ToLower(text)

	scores := make([]int, len(taxonomy))
	for i, cat := range taxonomy {
		for j, kw := range cat.Keywords {
			if strings.Contains(filename, kw) {
				scores[i]++
			}
			scores[i] += len(wordRes[i][j].FindAllStringIndex(text, -1))
		}
	}

	for i, cat := range taxonomy {
		if cat.Label == "Sistemas y Servidores" && (sig.ContainsIPLiteral || sig.ContainsHostToken) {
			scores[i] += 3
		}
		if cat.Label == "Inventario" && sig.LooksLikeInventory {
			scores[i] += 2
		}
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	if scores[best] == 0 {
		return CategoryGeneral
	}
	return taxonomy[best].Label
}
