package reporting

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/pkg/errors"
)

// DOCXRenderer writes reports as WordprocessingML packages. It emits the
// three parts Word requires (content types, package rels, document body) and
// nothing else, with fixed-layout tables so columns keep their width.
type DOCXRenderer struct{}

func NewDOCXRenderer() *DOCXRenderer { return &DOCXRenderer{} }

func (r *DOCXRenderer) Format() report.Format { return report.FormatDOCX }

const docxContentTypes = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const docxPackageRels = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const docxDocumentOpen = xml.Header + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docxDocumentClose = `</w:body></w:document>`

type docxText struct {
	Value string `xml:",chardata"`
}

type docxRunProps struct {
	Bold *struct{} `xml:"w:b,omitempty"`
}

type docxRun struct {
	Props *docxRunProps `xml:"w:rPr,omitempty"`
	Text  docxText      `xml:"w:t"`
}

type docxPara struct {
	XMLName xml.Name  `xml:"w:p"`
	Runs    []docxRun `xml:"w:r"`
}

type docxTableWidth struct {
	W    int    `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type docxBorder struct {
	Val string `xml:"w:val,attr"`
	Sz  int    `xml:"w:sz,attr"`
}

type docxTableBorders struct {
	Top     docxBorder `xml:"w:top"`
	Left    docxBorder `xml:"w:left"`
	Bottom  docxBorder `xml:"w:bottom"`
	Right   docxBorder `xml:"w:right"`
	InsideH docxBorder `xml:"w:insideH"`
	InsideV docxBorder `xml:"w:insideV"`
}

type docxTableLayout struct {
	Type string `xml:"w:type,attr"`
}

type docxTableProps struct {
	Width   docxTableWidth   `xml:"w:tblW"`
	Layout  docxTableLayout  `xml:"w:tblLayout"`
	Borders docxTableBorders `xml:"w:tblBorders"`
}

type docxGridCol struct {
	W int `xml:"w:w,attr"`
}

type docxTableGrid struct {
	Cols []docxGridCol `xml:"w:gridCol"`
}

type docxCellWidth struct {
	W    int    `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type docxCellProps struct {
	Width docxCellWidth `xml:"w:tcW"`
}

type docxTableCell struct {
	Props docxCellProps `xml:"w:tcPr"`
	Para  docxPara      `xml:"w:p"`
}

type docxTableRow struct {
	Cells []docxTableCell `xml:"w:tc"`
}

type docxTable struct {
	XMLName xml.Name       `xml:"w:tbl"`
	Props   docxTableProps `xml:"w:tblPr"`
	Grid    docxTableGrid  `xml:"w:tblGrid"`
	Rows    []docxTableRow `xml:"w:tr"`
}

func (r *DOCXRenderer) RenderWeekly(doc *report.WeeklyReport) ([]byte, error) {
	blocks := []any{docxHeading(doc.Title())}

	if len(doc.Rows) == 0 {
		blocks = append(blocks, docxParagraph("No activity recorded for this week."))
	}
	for i := range doc.Rows {
		row := &doc.Rows[i]
		blocks = append(blocks,
			docxHeading(row.UserName+" / "+row.ProfileName),
			weeklyDayGrid(row),
			docxParagraph(weeklyTotalsLine(row)),
		)
		if line := leadCountsLine(row.LeadCounts); line != "" {
			blocks = append(blocks, docxParagraph("Leads: "+line))
		}
	}

	blocks = append(blocks, docxHeading("Summary"))
	blocks = append(blocks, docxParagraph(fmt.Sprintf(
		"%d pair(s). Team fetched %d, applied %d. Team targets: fetch %d, apply %d.",
		doc.Summary.PairCount,
		doc.Summary.TeamFetched, doc.Summary.TeamApplied,
		doc.Summary.TeamTargetFetch, doc.Summary.TeamTargetApply,
	)))
	if doc.Summary.TopPerformer != "" {
		blocks = append(blocks, docxParagraph("Top performer: "+doc.Summary.TopPerformer))
	}
	for _, ref := range doc.Summary.BelowTarget {
		blocks = append(blocks, docxParagraph(fmt.Sprintf(
			"Below target: %s / %s (fetch %.1f%%, apply %.1f%%)",
			ref.UserName, ref.ProfileName, ref.FetchAttain, ref.ApplyAttain,
		)))
	}

	return packDOCX(blocks)
}

func (r *DOCXRenderer) RenderDaily(doc *report.DailyReport) ([]byte, error) {
	blocks := []any{docxHeading(doc.Title())}

	if len(doc.Rows) == 0 {
		blocks = append(blocks, docxParagraph("No activity recorded for this date."))
		return packDOCX(blocks)
	}

	widths := []int{1600, 1600, 1000, 1000, 1000, 3160}
	rows := []docxTableRow{docxRow(widths, true,
		"User", "Profile", "Fetched", "Applied", "Leads", "Notes")}
	for i := range doc.Rows {
		row := &doc.Rows[i]
		rows = append(rows, docxRow(widths, false,
			row.UserName,
			row.ProfileName,
			strconv.Itoa(row.JobsFetched),
			strconv.Itoa(row.JobsApplied),
			strconv.Itoa(row.LeadsRecorded),
			row.NotesExcerpt,
		))
	}
	rows = append(rows, docxRow(widths, true,
		"Totals", "",
		strconv.Itoa(doc.Totals.JobsFetched),
		strconv.Itoa(doc.Totals.JobsApplied),
		strconv.Itoa(doc.Totals.LeadsRecorded),
		""))

	blocks = append(blocks, docxTableOf(widths, rows))
	return packDOCX(blocks)
}

// weeklyDayGrid lays one pair's week out as a metric-by-weekday grid.
func weeklyDayGrid(row *report.WeeklyRow) docxTable {
	widths := []int{1800, 1080, 1080, 1080, 1080, 1080, 1080, 1080}

	header := append([]string{""}, weekdayNames[:]...)
	fetched := []string{"Fetched"}
	applied := []string{"Applied"}
	for _, cell := range row.Days {
		fetched = append(fetched, strconv.Itoa(cell.Fetched))
		applied = append(applied, strconv.Itoa(cell.Applied))
	}

	rows := []docxTableRow{
		docxRow(widths, true, header...),
		docxRow(widths, false, fetched...),
		docxRow(widths, false, applied...),
	}
	return docxTableOf(widths, rows)
}

func weeklyTotalsLine(row *report.WeeklyRow) string {
	if !row.HasTarget {
		return fmt.Sprintf("Week total: fetched %d, applied %d. No target set.",
			row.TotalFetched, row.TotalApplied)
	}
	return fmt.Sprintf("Week total: fetched %d of %d (%s), applied %d of %d (%s).",
		row.TotalFetched, row.TargetFetch, attainOrDash(row.TargetFetch, row.FetchAttain),
		row.TotalApplied, row.TargetApply, attainOrDash(row.TargetApply, row.ApplyAttain))
}

func attainOrDash(targetCount int, pct float64) string {
	if targetCount == 0 {
		return "-"
	}
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

func docxHeading(text string) docxPara {
	return docxPara{Runs: []docxRun{{
		Props: &docxRunProps{Bold: &struct{}{}},
		Text:  docxText{Value: text},
	}}}
}

func docxParagraph(text string) docxPara {
	return docxPara{Runs: []docxRun{{Text: docxText{Value: text}}}}
}

func docxRow(widths []int, bold bool, cells ...string) docxTableRow {
	row := docxTableRow{Cells: make([]docxTableCell, 0, len(cells))}
	for i, text := range cells {
		para := docxParagraph(text)
		if bold {
			para = docxHeading(text)
		}
		row.Cells = append(row.Cells, docxTableCell{
			Props: docxCellProps{Width: docxCellWidth{W: widths[i], Type: "dxa"}},
			Para:  para,
		})
	}
	return row
}

func docxTableOf(widths []int, rows []docxTableRow) docxTable {
	total := 0
	cols := make([]docxGridCol, 0, len(widths))
	for _, w := range widths {
		total += w
		cols = append(cols, docxGridCol{W: w})
	}
	border := docxBorder{Val: "single", Sz: 4}
	return docxTable{
		Props: docxTableProps{
			Width:  docxTableWidth{W: total, Type: "dxa"},
			Layout: docxTableLayout{Type: "fixed"},
			Borders: docxTableBorders{
				Top: border, Left: border, Bottom: border, Right: border,
				InsideH: border, InsideV: border,
			},
		},
		Grid: docxTableGrid{Cols: cols},
		Rows: rows,
	}
}

// packDOCX marshals the body blocks and zips the package parts together.
func packDOCX(blocks []any) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(docxDocumentOpen)
	for _, block := range blocks {
		data, err := xml.Marshal(block)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to marshal document body")
		}
		body.Write(data)
	}
	body.WriteString(docxDocumentClose)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxPackageRels)},
		{"word/document.xml", body.Bytes()},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to create package part "+part.name)
		}
		if _, err := f.Write(part.content); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to write package part "+part.name)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to finalize package")
	}
	return buf.Bytes(), nil
}
