package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/utils"
)

const (
	defaultImageSizeMB    = 10
	defaultDocumentSizeMB = 20
	// Pixel ceiling guarding against decompression bombs.
	maxImagePixels = 89478485
	minPhoneDigits = 10
	maxTextLength  = 500
)

var defaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}
var defaultDocumentExtensions = []string{".pdf", ".docx", ".doc"}

// Content signatures rejected outright in document uploads.
var maliciousSignatures = [][]byte{
	[]byte("MZ"),
	[]byte("\x7fELF"),
	[]byte("#!"),
	[]byte("<?php"),
	[]byte("<script"),
}

// FileUpload is an in-memory uploaded file pending validation.
type FileUpload struct {
	Filename string
	Size     int64
	Content  []byte
}

// FieldInput is the raw customer input for one field: text for the
// scalar types, a file for the file types.
type FieldInput struct {
	Text string
	File *FileUpload
}

// ValidatedField is a field input that passed validation. For file
// fields Upload carries the content to store; for the rest Value holds
// the typed result.
type ValidatedField struct {
	Value  models.FieldValue
	Upload *FileUpload
}

// ValidateDefinition checks a field definition's own constraints
// against the per-type ceilings: image caps stay within 10MB, document
// caps within 20MB, text length within 500. Returns an empty message
// when the definition is acceptable.
func ValidateDefinition(def models.ResourceFieldDefinition) string {
	if def.MaxFileSizeMB != nil {
		ceiling := defaultImageSizeMB
		if def.FieldType == models.FieldDocument {
			ceiling = defaultDocumentSizeMB
		}
		if !def.FieldType.IsFile() {
			return "max_file_size_mb only applies to file fields"
		}
		if *def.MaxFileSizeMB < 1 || *def.MaxFileSizeMB > ceiling {
			return fmt.Sprintf("max_file_size_mb must be between 1 and %d for %s fields", ceiling, def.FieldType)
		}
	}
	if def.MaxLength != nil && (*def.MaxLength < 1 || *def.MaxLength > maxTextLength) {
		return fmt.Sprintf("max_length must be between 1 and %d", maxTextLength)
	}
	return ""
}

// ValidateField checks one input against its field definition and
// returns an empty message on success. Messages are customer facing.
func ValidateField(def models.ResourceFieldDefinition, in FieldInput) (ValidatedField, string) {
	if def.FieldType.IsFile() {
		return validateFileField(def, in.File)
	}
	return validateScalarField(def, in.Text)
}

// pendingSubmission pairs a schema field with its validated input,
// ready to persist.
type pendingSubmission struct {
	def       models.ResourceFieldDefinition
	validated ValidatedField
}

// validateSubmission checks every input against the schema in a single
// pass, returning the fields to persist and all failures keyed by field
// name. Inputs naming no schema field are failures too. Nothing may be
// persisted when the error map is non-empty.
func validateSubmission(defs []models.ResourceFieldDefinition, inputs map[string]FieldInput) ([]pendingSubmission, map[string]string) {
	known := make(map[string]bool, len(defs))
	fieldErrors := make(map[string]string)
	var toStore []pendingSubmission

	for _, def := range defs {
		known[def.FieldName] = true
		in := inputs[def.FieldName]
		provided := in.Text != "" || in.File != nil

		validated, msg := ValidateField(def, in)
		if msg != "" {
			fieldErrors[def.FieldName] = msg
			continue
		}
		if !provided {
			continue
		}
		toStore = append(toStore, pendingSubmission{def: def, validated: validated})
	}

	for name := range inputs {
		if !known[name] {
			fieldErrors[name] = "unknown field"
		}
	}
	return toStore, fieldErrors
}

func validateScalarField(def models.ResourceFieldDefinition, text string) (ValidatedField, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		if def.IsRequired {
			return ValidatedField{}, "this field is required"
		}
		return ValidatedField{Value: models.TextValue("")}, ""
	}

	switch def.FieldType {
	case models.FieldText:
		if def.MaxLength != nil && len(trimmed) > *def.MaxLength {
			return ValidatedField{}, fmt.Sprintf("must be at most %d characters", *def.MaxLength)
		}
		return ValidatedField{Value: models.TextValue(trimmed)}, ""

	case models.FieldNumber:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return ValidatedField{}, "must be a whole number"
		}
		if def.MinValue != nil && n < *def.MinValue {
			return ValidatedField{}, fmt.Sprintf("must be at least %d", *def.MinValue)
		}
		if def.MaxValue != nil && n > *def.MaxValue {
			return ValidatedField{}, fmt.Sprintf("must be at most %d", *def.MaxValue)
		}
		return ValidatedField{Value: models.NumberValue(n)}, ""

	case models.FieldPhone:
		normalized := utils.NormalizePhone(trimmed)
		if utils.DigitCount(normalized) < minPhoneDigits {
			return ValidatedField{}, fmt.Sprintf("must contain at least %d digits", minPhoneDigits)
		}
		return ValidatedField{Value: models.TextValue(normalized)}, ""

	case models.FieldDate:
		if _, err := time.Parse("2006-01-02", trimmed); err != nil {
			return ValidatedField{}, "must be a date in YYYY-MM-DD format"
		}
		return ValidatedField{Value: models.TextValue(trimmed)}, ""
	}

	return ValidatedField{}, "unsupported field type"
}

func validateFileField(def models.ResourceFieldDefinition, file *FileUpload) (ValidatedField, string) {
	if file == nil || len(file.Content) == 0 {
		if def.IsRequired {
			return ValidatedField{}, "a file is required"
		}
		return ValidatedField{}, ""
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := allowedExtensions(def)
	if !extensionAllowed(ext, allowed) {
		return ValidatedField{}, fmt.Sprintf("file type %s is not allowed (allowed: %s)", ext, strings.Join(allowed, ", "))
	}

	maxMB := defaultImageSizeMB
	if def.FieldType == models.FieldDocument {
		maxMB = defaultDocumentSizeMB
	}
	if def.MaxFileSizeMB != nil {
		maxMB = *def.MaxFileSizeMB
	}
	if file.Size > int64(maxMB)*1024*1024 {
		return ValidatedField{}, fmt.Sprintf("file exceeds the %d MB limit", maxMB)
	}

	switch def.FieldType {
	case models.FieldImage:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Content))
		if err != nil {
			return ValidatedField{}, "file is not a valid image"
		}
		if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
			return ValidatedField{}, "image dimensions are too large"
		}

	case models.FieldDocument:
		for _, sig := range maliciousSignatures {
			if bytes.HasPrefix(file.Content, sig) {
				return ValidatedField{}, "file content is not allowed"
			}
		}
		if ext == ".pdf" && !bytes.HasPrefix(file.Content, []byte("%PDF-")) {
			return ValidatedField{}, "file is not a valid PDF"
		}
	}

	return ValidatedField{Upload: file}, ""
}

func allowedExtensions(def models.ResourceFieldDefinition) []string {
	if len(def.AllowedExtensions) > 0 {
		normalized := make([]string, 0, len(def.AllowedExtensions))
		for _, ext := range def.AllowedExtensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext != "" && !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			if ext != "" {
				normalized = append(normalized, ext)
			}
		}
		return normalized
	}

	if def.FieldType == models.FieldDocument {
		return defaultDocumentExtensions
	}
	return defaultImageExtensions
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
