package extract

import (
	"context"
	"fmt"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/dvloznov/statement-agent/internal/config"
	"github.com/dvloznov/statement-agent/internal/logger"
)

// Extractor turns PDF bytes into a raw extraction Document.
type Extractor interface {
	ProcessPDF(ctx context.Context, pdfBytes []byte) (*Document, error)
}

// DocAIExtractor calls a Google Document AI processor (typically the form
// parser) and maps its response into the agnostic Document shape.
type DocAIExtractor struct {
	cfg config.DocAIConfig
}

// NewDocAIExtractor creates an extractor for the configured processor.
func NewDocAIExtractor(cfg config.DocAIConfig) *DocAIExtractor {
	return &DocAIExtractor{cfg: cfg}
}

// ProcessPDF sends the PDF to Document AI and returns the mapped output.
// Any backend failure comes back as an *AdapterError.
func (e *DocAIExtractor) ProcessPDF(ctx context.Context, pdfBytes []byte) (*Document, error) {
	log := logger.FromContext(ctx)

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", e.cfg.Location)
	client, err := documentai.NewDocumentProcessorClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, &AdapterError{Op: "create client", Err: err}
	}
	defer client.Close()

	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		e.cfg.ProjectID, e.cfg.Location, e.cfg.ProcessorID)

	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, &AdapterError{Op: "process document", Err: err}
	}

	doc := MapDocument(resp.GetDocument())
	log.Info().
		Int("tables", len(doc.Tables)).
		Int("entities", len(doc.Entities)).
		Msg("Document AI extraction complete")

	return doc, nil
}

// MapDocument converts a Document AI response document into the agnostic
// shape. Exported so tests can exercise the mapping without a live backend.
func MapDocument(d *documentaipb.Document) *Document {
	out := &Document{}
	if d == nil {
		return out
	}

	for pageIdx, page := range d.GetPages() {
		for _, tbl := range page.GetTables() {
			t := Table{Page: pageIdx + 1}
			for _, row := range tbl.GetHeaderRows() {
				t.HeaderRows = append(t.HeaderRows, mapRow(d, row))
			}
			for _, row := range tbl.GetBodyRows() {
				t.BodyRows = append(t.BodyRows, mapRow(d, row))
			}
			out.Tables = append(out.Tables, t)
		}
		for _, field := range page.GetFormFields() {
			name := layoutText(d, field.GetFieldName())
			value := layoutText(d, field.GetFieldValue())
			if name == "" && value == "" {
				continue
			}
			out.Entities = append(out.Entities, Entity{
				Name:       name,
				Value:      value,
				Confidence: float64(field.GetFieldValue().GetConfidence()),
			})
		}
	}

	// Specialized processors report entities at the document level instead
	// of as per-page form fields.
	for _, ent := range d.GetEntities() {
		out.Entities = append(out.Entities, Entity{
			Name:       ent.GetType(),
			Value:      strings.TrimSpace(ent.GetMentionText()),
			Confidence: float64(ent.GetConfidence()),
		})
	}

	return out
}

func mapRow(d *documentaipb.Document, row *documentaipb.Document_Page_Table_TableRow) []Cell {
	cells := make([]Cell, 0, len(row.GetCells()))
	for _, c := range row.GetCells() {
		cells = append(cells, Cell{
			Text:       layoutText(d, c.GetLayout()),
			Confidence: float64(c.GetLayout().GetConfidence()),
		})
	}
	return cells
}

// layoutText resolves a layout's text anchor against the document's full
// text. Segment indices outside the text are skipped rather than panicking:
// the backend occasionally emits anchors past the end of truncated text.
func layoutText(d *documentaipb.Document, layout *documentaipb.Document_Page_Layout) string {
	anchor := layout.GetTextAnchor()
	if anchor == nil {
		return ""
	}
	text := d.GetText()
	var b strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start := int(seg.GetStartIndex())
		end := int(seg.GetEndIndex())
		if start < 0 || end < start || end > len(text) {
			continue
		}
		b.WriteString(text[start:end])
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
}
