package engine

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/ledongthuc/pdf"
)

// fingerprintPrefix is how much of the file is hashed when the trailer has
// no usable /ID.
const fingerprintPrefix = 1024

// standardInfoKeys are the entries ISO 32000 defines for the document
// information dictionary. Everything else goes under "Custom".
var standardInfoKeys = map[string]bool{
	"Title":        true,
	"Author":       true,
	"Subject":      true,
	"Keywords":     true,
	"Creator":      true,
	"Producer":     true,
	"CreationDate": true,
	"ModDate":      true,
	"Trapped":      true,
}

// Fingerprint returns the hex of the first trailer /ID string, or the MD5 of
// the start of the file when the ID is missing or all zeros.
func (d *pdfDocument) Fingerprint() string {
	if id := d.trailerID(); id != "" {
		return hex.EncodeToString([]byte(id))
	}
	sum := md5.Sum(d.data[:min(len(d.data), fingerprintPrefix)])
	return hex.EncodeToString(sum[:])
}

func (d *pdfDocument) trailerID() (id string) {
	if d.reader == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	raw := d.reader.Trailer().Key("ID").Index(0).RawString()
	if strings.Trim(raw, "\x00") == "" {
		return ""
	}
	return raw
}

// Info implements Document. PDFFormatVersion comes from the header, the
// feature flags from the catalog, the rest from the trailer /Info.
func (d *pdfDocument) Info() (info map[string]any) {
	info = map[string]any{
		"PDFFormatVersion":    d.version,
		"IsAcroFormPresent":   false,
		"IsXFAPresent":        false,
		"IsCollectionPresent": false,
	}
	if d.reader == nil {
		return info
	}
	// A broken catalog or info dictionary leaves what was read so far.
	defer func() { _ = recover() }()

	root := d.reader.Trailer().Key("Root")
	acro := root.Key("AcroForm")
	info["IsAcroFormPresent"] = acro.Kind() == pdf.Dict && acro.Key("Fields").Len() > 0
	xfa := acro.Key("XFA")
	info["IsXFAPresent"] = xfa.Kind() == pdf.Stream || xfa.Len() > 0
	info["IsCollectionPresent"] = root.Key("Collection").Kind() == pdf.Dict

	dict := d.reader.Trailer().Key("Info")
	custom := make(map[string]any)
	for _, key := range dict.Keys() {
		v := dict.Key(key)
		if standardInfoKeys[key] {
			switch {
			case v.Kind() == pdf.String:
				info[key] = v.Text()
			case key == "Trapped" && v.Kind() == pdf.Name:
				info[key] = map[string]any{"name": v.Name()}
			}
			continue
		}
		if val, ok := infoValue(v); ok {
			custom[key] = val
		}
	}
	if len(custom) > 0 {
		info["Custom"] = custom
	}
	return info
}

// infoValue converts a custom info entry. Dictionaries, arrays and streams
// are skipped.
func infoValue(v pdf.Value) (any, bool) {
	switch v.Kind() {
	case pdf.String:
		return v.Text(), true
	case pdf.Name:
		return map[string]any{"name": v.Name()}, true
	case pdf.Integer, pdf.Real:
		return v.Float64(), true
	case pdf.Bool:
		return v.Bool(), true
	}
	return nil, false
}
