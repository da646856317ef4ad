// Package pdf implementa el extracto mensual de ingresos atestados.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Comercio + registro legal  │  Período + Fecha       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Ventas brutas / Ventas netas / Órdenes / Tasa reemb. │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VERIFICACIÓN: hash de contenido + firma + QR                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
)

var _ ports.StatementGenerator = (*MarotoStatementGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 16, Green: 94, Blue: 74}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoStatementGenerator implementa ports.StatementGenerator usando Maroto v2.
type MarotoStatementGenerator struct{}

// NewMarotoStatementGenerator construye el generador.
func NewMarotoStatementGenerator() *MarotoStatementGenerator { return &MarotoStatementGenerator{} }

// Generate genera el PDF del extracto y devuelve sus bytes.
func (g *MarotoStatementGenerator) Generate(att *entity.Attestation, merchant *entity.Merchant) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Extracto de Ingresos Atestados", true).
		WithAuthor(merchant.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(att, merchant))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(merchantRow(merchant))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(kpiHeaderRow())
	for _, r := range kpiRows(att) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range verificationRows(att) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: comercio (izq) y período + fecha de emisión (der).
func headerRow(att *entity.Attestation, merchant *entity.Merchant) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(merchant.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Registro: "+nonEmpty(merchant.LegalID, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("EXTRACTO DE INGRESOS ATESTADOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(att.Period, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Emitido: "+att.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// merchantRow: país y wallet asociada a la campaña.
func merchantRow(merchant *entity.Merchant) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL COMERCIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("País: %s   |   Wallet: %s",
				nonEmpty(merchant.Country, "—"),
				nonEmpty(merchant.Wallet, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// kpiHeaderRow: cabecera de la tabla de indicadores.
func kpiHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Indicador", 7, align.Left),
		h("Valor", 5, align.Right),
	)
}

// kpiRows: una fila por indicador del período.
func kpiRows(att *entity.Attestation) []core.Row {
	kpiRow := func(label, value string) core.Row {
		return row.New(7).Add(
			col.New(7).Add(text.New(label, props.Text{
				Size: 8, Align: align.Left, Top: 1, Left: 1,
			})),
			col.New(5).Add(text.New(value, props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 1,
			})),
		)
	}
	refundPct := att.RefundRate.Mul(decimal.NewFromInt(100))
	return []core.Row{
		kpiRow("Ventas brutas", att.Currency+" "+att.GrossSales.StringFixed(2)),
		kpiRow("Ventas netas", att.Currency+" "+att.NetSales.StringFixed(2)),
		kpiRow("Órdenes", fmt.Sprintf("%d", att.OrderCount)),
		kpiRow("Tasa de reembolso", refundPct.StringFixed(2)+"%"),
	}
}

// verificationRows: hash partido + firma + código QR de verificación.
func verificationRows(att *entity.Attestation) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("VERIFICACIÓN CRIPTOGRÁFICA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New("Hash de contenido (SHA-256):", props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)),
	}
	for _, chunk := range splitEvery(att.ContentHash, 80) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	rows = append(rows, row.New(5).Add(col.New(12).Add(
		text.New("Firma (Ed25519):", props.Text{
			Style: fontstyle.Bold, Size: 7, Top: 1,
		}),
	)))
	for _, chunk := range splitEvery(att.Signature, 80) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}

	rows = append(rows, row.New(3))
	if att.ContentHash != "" {
		rows = append(rows, row.New(40).Add(
			col.New(4).Add(code.NewQr(att.ContentHash, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Escanea el código QR y compara el hash\ncontra el registro de la campaña.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("DECLARACIÓN FIRMADA DE\nINGRESOS DEL PERÍODO", props.Text{
					Style: fontstyle.Bold, Size: 10, Top: 18,
					Left: 3, Color: colorPrimary,
				}),
			),
		))
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Los indicadores de este extracto fueron calculados a partir de las conexiones "+
				"de comercio del período y firmados con la clave del servicio. "+
				"Cualquier alteración invalida la firma.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
