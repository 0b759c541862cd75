package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/nhalim/symposium/internal/core"
)

// participantColors cycles per-instance header backgrounds.
var participantColors = [][3]int{
	{200, 230, 255}, // light blue
	{200, 255, 200}, // light green
	{255, 235, 200}, // light orange
	{235, 215, 255}, // light purple
}

// PDFExporter exports sessions to PDF format.
type PDFExporter struct{}

// Export writes the session as PDF.
func (e *PDFExporter) Export(session *core.Session, turns []*core.Turn, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, e.sanitizeText(session.Title), "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Session Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	id := session.ID
	if len(id) > 8 {
		id = id[:8] + "..."
	}
	e.addMetadataRow(pdf, "ID:", id)
	e.addMetadataRow(pdf, "Mode:", string(session.Mode))
	e.addMetadataRow(pdf, "Status:", string(session.Status))
	e.addMetadataRow(pdf, "Created:", session.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	if session.CompletedAt != nil {
		e.addMetadataRow(pdf, "Completed:", session.CompletedAt.Format("January 2, 2006 at 3:04 PM"))
		e.addMetadataRow(pdf, "Duration:", formatDuration(session.CreatedAt, *session.CompletedAt))
	}
	if session.Usage.TotalTokens > 0 {
		e.addMetadataRow(pdf, "Tokens:", fmt.Sprintf("%d", session.Usage.TotalTokens))
	}
	pdf.Ln(5)

	colorOf := make(map[string][3]int, len(session.Instances))
	for i, inst := range session.Instances {
		colorOf[inst.ID] = participantColors[i%len(participantColors)]
	}

	// Participants section
	if len(session.Instances) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Participants")
		pdf.Ln(8)

		for _, inst := range session.Instances {
			c := colorOf[inst.ID]
			pdf.SetFillColor(c[0], c[1], c[2])
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(0, 6, e.sanitizeText(inst.DisplayName()), "", 1, "", true, 0, "")
			pdf.SetFillColor(255, 255, 255)
			pdf.SetFont("Arial", "", 9)
			pdf.Cell(25, 5, "Model:")
			pdf.Cell(0, 5, inst.Model)
			pdf.Ln(6)
		}
		pdf.Ln(3)
	}

	// Discussion
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Discussion")
	pdf.Ln(8)

	if len(turns) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No turns recorded.")
		pdf.Ln(6)
	} else {
		for _, turn := range turns {
			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			c, ok := colorOf[turn.InstanceID]
			if !ok {
				c = [3]int{230, 230, 230}
			}
			pdf.SetFillColor(c[0], c[1], c[2])

			pdf.SetFont("Arial", "B", 10)
			header := instanceName(session, turn.InstanceID)
			if turn.Role != "" {
				header = fmt.Sprintf("%s (%s)", header, turn.Role)
			}
			header = fmt.Sprintf("%s - round %d (%s)", header, turn.Round+1, turn.CreatedAt.Format("3:04 PM"))
			pdf.CellFormat(0, 7, e.sanitizeText(header), "", 1, "", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			pdf.SetFillColor(255, 255, 255)
			pdf.MultiCell(0, 5, e.sanitizeText(turn.Content), "", "", false)
			pdf.Ln(5)
		}
	}

	// Results
	if len(session.Results) > 0 {
		if pdf.GetY() > 230 {
			pdf.AddPage()
		}

		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Results")
		pdf.Ln(8)

		for _, res := range session.Results {
			if res == nil {
				continue
			}
			pdf.SetFont("Arial", "B", 10)
			pdf.Cell(0, 6, e.sanitizeText(instanceName(session, res.InstanceID)))
			pdf.Ln(6)
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, e.sanitizeText(res.Content), "", "", false)
			pdf.Ln(3)
		}
	}

	// Footer
	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Exported from symposium", "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// Helper to add a metadata row
func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, value)
	pdf.Ln(5)
}

// Sanitize text for PDF (remove problematic characters)
func (e *PDFExporter) sanitizeText(text string) string {
	// gofpdf uses Windows-1252 encoding by default
	replacer := strings.NewReplacer(
		"‘", "'", // Left single quote
		"’", "'", // Right single quote
		"“", "\"", // Left double quote
		"”", "\"", // Right double quote
		"–", "-", // En dash
		"—", "--", // Em dash
		"…", "...", // Ellipsis
		"•", "*", // Bullet
		" ", " ", // Non-breaking space
	)
	return replacer.Replace(text)
}
