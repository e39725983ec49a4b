// Package render lays out a single-page A4 certificate as PDF.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"certgen/internal/catalog"
	"certgen/internal/certificate/models"
	"certgen/pkg/requestcontext"
)

// Page geometry in millimetres.
const (
	borderInset         = 8.0
	contentMargin       = borderInset + 8.0
	headerOffset        = 40.0
	logoWidth           = 35.0
	sealWidth           = 30.0
	sigWidth            = 40.0
	signatureFromBottom = 68.0
	footerFromBottom    = 20.0
	fontFamily          = "Arial"
)

const (
	provisionalLabel = "PROVISIONAL CERTIFICATE"
	heading          = "TO WHOMSOEVER IT MAY CONCERN"
	signatoryTitle   = "Director"
)

// Content is the per-subject text printed on a certificate. Dates are
// already formatted for display.
type Content struct {
	Prefix        string
	Name          string
	USN           string
	College       string
	StartDate     string
	EndDate       string
	Topic         string
	CertificateID string
}

// ContentFor builds display content from a normalized record.
func ContentFor(rec models.NormalizedRecord) Content {
	return Content{
		Prefix:        rec.Prefix.String(),
		Name:          rec.Name.String(),
		USN:           rec.USN.String(),
		College:       rec.College.String(),
		StartDate:     FormatDateString(rec.StartDate.String()),
		EndDate:       FormatDateString(rec.EndDate.String()),
		Topic:         rec.Topic.String(),
		CertificateID: rec.CertificateID,
	}
}

// Options select branding and wording for a batch.
type Options struct {
	Organization catalog.Organization
	Type         models.CertificateType
	Activity     string
	Duration     string
}

// Renderer produces certificate PDFs. It holds no per-document state and is
// safe for concurrent use.
type Renderer struct {
	logger   *slog.Logger
	compress bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCompression toggles stream compression. Tests turn it off to inspect
// page content.
func WithCompression(on bool) Option {
	return func(r *Renderer) { r.compress = on }
}

// New creates a Renderer.
func New(logger *slog.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{logger: logger, compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render lays out one certificate. Missing or unreadable images are skipped;
// any other PDF engine error is returned.
func (r *Renderer) Render(ctx context.Context, c Content, o Options) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(requestcontext.Now(ctx))
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(contentMargin, contentMargin, contentMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(cleanText(s)) }

	pageW, pageH := pdf.GetPageSize()
	org := o.Organization

	pdf.SetLineWidth(0.5)
	pdf.SetDrawColor(255, 255, 255)
	pdf.Rect(borderInset, borderInset, pageW-2*borderInset, pageH-2*borderInset, "D")

	r.image(ctx, pdf, org.Assets.Logo, contentMargin, contentMargin, logoWidth)

	headerW := pageW - 2*contentMargin - headerOffset
	pdf.SetXY(contentMargin+headerOffset, contentMargin)
	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(headerW, 8, text(org.LegalName), "", 1, "R", false, 0, "")
	// The line break returns to the left margin, so the legal ID line ends
	// headerOffset short of the name above it.
	pdf.SetFont(fontFamily, "", 12)
	pdf.CellFormat(headerW, 6, text(org.LegalID), "", 1, "R", false, 0, "")

	pdf.SetY(contentMargin + 26)
	pdf.CellFormat(0, 5, text("Certificate ID: "+c.CertificateID), "", 0, "L", false, 0, "")
	issued := text("Issued on: " + c.EndDate)
	issuedW := pdf.GetStringWidth(issued)
	pdf.SetX(pageW - contentMargin - issuedW)
	pdf.CellFormat(issuedW, 5, issued, "", 0, "L", false, 0, "")
	pdf.Ln(15)

	if o.Type == models.TypeProvisional {
		pdf.SetFont(fontFamily, "B", 12)
		pdf.CellFormat(0, 10, provisionalLabel, "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}

	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 10, heading, "", 1, "C", false, 0, "")

	pdf.SetFont(fontFamily, "", 12)
	pdf.SetX(contentMargin)
	pdf.MultiCell(pageW-2*contentMargin, 6, text(body(c, o)), "", "J", false)

	sigY := pageH - signatureFromBottom
	forText := text(org.ForSignature)
	forW := pdf.GetStringWidth(forText)
	pdf.SetXY(pageW-contentMargin-forW, sigY)
	pdf.CellFormat(forW, 7, forText, "", 0, "L", false, 0, "")

	r.image(ctx, pdf, org.Assets.Seal, contentMargin, sigY, sealWidth)
	r.image(ctx, pdf, org.Assets.Signature, pageW-contentMargin-sigWidth, sigY+6, sigWidth)
	pdf.SetFont(fontFamily, "", 12)
	pdf.Text(pageW-contentMargin-20, sigY+25, signatoryTitle)

	pdf.SetFont(fontFamily, "", 9)
	pdf.SetY(pageH - footerFromBottom)
	for _, line := range org.Footer {
		pdf.CellFormat(0, 5, text(line), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering certificate %s: %w", c.CertificateID, err)
	}
	return buf.Bytes(), nil
}

func body(c Content, o Options) string {
	activity := strings.ToLower(o.Activity)
	org := string(o.Organization.Key)
	if o.Type == models.TypeProvisional {
		return fmt.Sprintf(
			"This is to certify %s. %s, from %s, is currently undergoing a %s %s starting from %s to %s, "+
				"under the mentorship of %s's development team. %s is working on %s.\n\n"+
				"During the %s, %s demonstrated good coding skills with sound design thinking.",
			c.Prefix, c.Name, c.College, o.Duration, activity, c.StartDate, c.EndDate,
			org, c.Name, c.Topic, activity, c.Name)
	}
	return fmt.Sprintf(
		"This is to certify %s. %s, from %s, has successfully completed a %s %s on %s, "+
			"under the mentorship of %s's development team. %s has worked on %s.\n\n"+
			"During the %s, %s demonstrated good coding skills with sound design thinking.",
		c.Prefix, c.Name, c.College, o.Duration, activity, c.EndDate,
		org, c.Name, c.Topic, activity, c.Name)
}

// image places an asset if it can be read and decoded. Failures leave the
// document without the image.
func (r *Renderer) image(ctx context.Context, pdf *fpdf.Fpdf, path string, x, y, w float64) {
	if path == "" {
		return
	}
	typ := imageType(path)
	if typ == "" {
		r.logger.DebugContext(ctx, "skipping asset with unsupported type", "path", path)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.DebugContext(ctx, "skipping unreadable asset", "path", path, "error", err)
		return
	}
	opts := fpdf.ImageOptions{ImageType: typ}
	info := pdf.RegisterImageOptionsReader(path, opts, bytes.NewReader(data))
	if info == nil || pdf.Err() {
		r.logger.DebugContext(ctx, "skipping undecodable asset", "path", path, "error", pdf.Error())
		pdf.ClearError()
		return
	}
	pdf.ImageOptions(path, x, y, w, 0, false, opts, 0, "")
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	}
	return ""
}
