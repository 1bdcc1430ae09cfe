package services

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/lib/pq"

	"github.com/example/electioncart/internal/models"
)

func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

func pngUpload(t *testing.T, name string, width, height int) *FileUpload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return &FileUpload{
		Filename: name,
		Size:     int64(buf.Len()),
		Content:  buf.Bytes(),
	}
}

func TestValidateTextField(t *testing.T) {
	def := models.ResourceFieldDefinition{
		FieldType:  models.FieldText,
		IsRequired: true,
		MaxLength:  intPtr(20),
	}

	tests := []struct {
		name    string
		input   string
		wantMsg bool
		want    string
	}{
		{"valid", "Vote for progress", false, "Vote for progress"},
		{"trimmed", "  slogan  ", false, "slogan"},
		{"missing required", "", true, ""},
		{"too long", strings.Repeat("a", 21), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := ValidateField(def, FieldInput{Text: tt.input})
			if (msg != "") != tt.wantMsg {
				t.Fatalf("message = %q, wantMsg %v", msg, tt.wantMsg)
			}
			if !tt.wantMsg && got.Value.Text() != tt.want {
				t.Errorf("value = %q, want %q", got.Value.Text(), tt.want)
			}
		})
	}
}

func TestValidateOptionalEmptyText(t *testing.T) {
	def := models.ResourceFieldDefinition{FieldType: models.FieldText}
	if _, msg := ValidateField(def, FieldInput{}); msg != "" {
		t.Errorf("optional empty field rejected: %q", msg)
	}
}

func TestValidateNumberField(t *testing.T) {
	def := models.ResourceFieldDefinition{
		FieldType:  models.FieldNumber,
		IsRequired: true,
		MinValue:   int64Ptr(10),
		MaxValue:   int64Ptr(5000),
	}

	tests := []struct {
		name    string
		input   string
		wantMsg bool
		want    int64
	}{
		{"valid", "250", false, 250},
		{"at minimum", "10", false, 10},
		{"below minimum", "9", true, 0},
		{"above maximum", "5001", true, 0},
		{"not a number", "many", true, 0},
		{"decimal rejected", "12.5", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := ValidateField(def, FieldInput{Text: tt.input})
			if (msg != "") != tt.wantMsg {
				t.Fatalf("message = %q, wantMsg %v", msg, tt.wantMsg)
			}
			if !tt.wantMsg && got.Value.Number() != tt.want {
				t.Errorf("value = %d, want %d", got.Value.Number(), tt.want)
			}
		})
	}
}

func TestValidatePhoneField(t *testing.T) {
	def := models.ResourceFieldDefinition{FieldType: models.FieldPhone, IsRequired: true}

	tests := []struct {
		name    string
		input   string
		wantMsg bool
		want    string
	}{
		{"plain", "9876543210", false, "9876543210"},
		{"formatted", "+91 98765-43210", false, "+919876543210"},
		{"too short", "12345", true, ""},
		{"letters only", "call me", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := ValidateField(def, FieldInput{Text: tt.input})
			if (msg != "") != tt.wantMsg {
				t.Fatalf("message = %q, wantMsg %v", msg, tt.wantMsg)
			}
			if !tt.wantMsg && got.Value.Text() != tt.want {
				t.Errorf("value = %q, want %q", got.Value.Text(), tt.want)
			}
		})
	}
}

func TestValidateDateField(t *testing.T) {
	def := models.ResourceFieldDefinition{FieldType: models.FieldDate, IsRequired: true}

	if _, msg := ValidateField(def, FieldInput{Text: "2026-09-15"}); msg != "" {
		t.Errorf("valid date rejected: %q", msg)
	}
	if _, msg := ValidateField(def, FieldInput{Text: "15/09/2026"}); msg == "" {
		t.Error("wrong date format accepted")
	}
	if _, msg := ValidateField(def, FieldInput{Text: "2026-13-40"}); msg == "" {
		t.Error("impossible date accepted")
	}
}

func TestValidateImageField(t *testing.T) {
	def := models.ResourceFieldDefinition{FieldType: models.FieldImage, IsRequired: true}

	t.Run("valid png", func(t *testing.T) {
		got, msg := ValidateField(def, FieldInput{File: pngUpload(t, "photo.png", 100, 100)})
		if msg != "" {
			t.Fatalf("valid image rejected: %q", msg)
		}
		if got.Upload == nil {
			t.Fatal("expected upload to be carried through")
		}
	})

	t.Run("missing required file", func(t *testing.T) {
		if _, msg := ValidateField(def, FieldInput{}); msg == "" {
			t.Error("missing required file accepted")
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		upload := pngUpload(t, "photo.bmp", 10, 10)
		if _, msg := ValidateField(def, FieldInput{File: upload}); msg == "" {
			t.Error("disallowed extension accepted")
		}
	})

	t.Run("not an image", func(t *testing.T) {
		upload := &FileUpload{Filename: "photo.png", Size: 9, Content: []byte("not a png")}
		if _, msg := ValidateField(def, FieldInput{File: upload}); msg == "" {
			t.Error("garbage content accepted")
		}
	})

	t.Run("oversized file", func(t *testing.T) {
		small := models.ResourceFieldDefinition{
			FieldType:     models.FieldImage,
			IsRequired:    true,
			MaxFileSizeMB: intPtr(1),
		}
		upload := pngUpload(t, "photo.png", 10, 10)
		upload.Size = 2 * 1024 * 1024
		if _, msg := ValidateField(small, FieldInput{File: upload}); msg == "" {
			t.Error("oversized file accepted")
		}
	})

	t.Run("custom extensions", func(t *testing.T) {
		custom := models.ResourceFieldDefinition{
			FieldType:         models.FieldImage,
			IsRequired:        true,
			AllowedExtensions: pq.StringArray{"png"},
		}
		if _, msg := ValidateField(custom, FieldInput{File: pngUpload(t, "photo.png", 10, 10)}); msg != "" {
			t.Errorf("allowed extension rejected: %q", msg)
		}
		jpg := pngUpload(t, "photo.jpg", 10, 10)
		if _, msg := ValidateField(custom, FieldInput{File: jpg}); msg == "" {
			t.Error("extension outside the custom list accepted")
		}
	})
}

func TestValidateDocumentField(t *testing.T) {
	def := models.ResourceFieldDefinition{FieldType: models.FieldDocument, IsRequired: true}

	t.Run("valid pdf", func(t *testing.T) {
		upload := &FileUpload{Filename: "manifesto.pdf", Size: 20, Content: []byte("%PDF-1.7 content")}
		if _, msg := ValidateField(def, FieldInput{File: upload}); msg != "" {
			t.Errorf("valid pdf rejected: %q", msg)
		}
	})

	t.Run("pdf without magic", func(t *testing.T) {
		upload := &FileUpload{Filename: "manifesto.pdf", Size: 10, Content: []byte("plain text")}
		if _, msg := ValidateField(def, FieldInput{File: upload}); msg == "" {
			t.Error("fake pdf accepted")
		}
	})

	t.Run("executable content", func(t *testing.T) {
		payloads := [][]byte{
			[]byte("MZ\x90\x00"),
			[]byte("\x7fELF\x02"),
			[]byte("#!/bin/sh\n"),
			[]byte("<?php echo 1;"),
			[]byte("<script>alert(1)</script>"),
		}
		for _, payload := range payloads {
			upload := &FileUpload{Filename: "notes.doc", Size: int64(len(payload)), Content: payload}
			if _, msg := ValidateField(def, FieldInput{File: upload}); msg == "" {
				t.Errorf("malicious content %q accepted", payload[:4])
			}
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		upload := &FileUpload{Filename: "script.exe", Size: 4, Content: []byte("data")}
		if _, msg := ValidateField(def, FieldInput{File: upload}); msg == "" {
			t.Error("executable extension accepted")
		}
	})
}

func TestValidateDefinition(t *testing.T) {
	tests := []struct {
		name    string
		def     models.ResourceFieldDefinition
		wantMsg bool
	}{
		{"image at ceiling", models.ResourceFieldDefinition{FieldType: models.FieldImage, MaxFileSizeMB: intPtr(10)}, false},
		{"image above ceiling", models.ResourceFieldDefinition{FieldType: models.FieldImage, MaxFileSizeMB: intPtr(100)}, true},
		{"document at ceiling", models.ResourceFieldDefinition{FieldType: models.FieldDocument, MaxFileSizeMB: intPtr(20)}, false},
		{"document above ceiling", models.ResourceFieldDefinition{FieldType: models.FieldDocument, MaxFileSizeMB: intPtr(25)}, true},
		{"zero cap", models.ResourceFieldDefinition{FieldType: models.FieldImage, MaxFileSizeMB: intPtr(0)}, true},
		{"cap on scalar field", models.ResourceFieldDefinition{FieldType: models.FieldText, MaxFileSizeMB: intPtr(5)}, true},
		{"no cap", models.ResourceFieldDefinition{FieldType: models.FieldImage}, false},
		{"text length ok", models.ResourceFieldDefinition{FieldType: models.FieldText, MaxLength: intPtr(500)}, false},
		{"text length too large", models.ResourceFieldDefinition{FieldType: models.FieldText, MaxLength: intPtr(501)}, true},
		{"text length zero", models.ResourceFieldDefinition{FieldType: models.FieldText, MaxLength: intPtr(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ValidateDefinition(tt.def)
			if (msg != "") != tt.wantMsg {
				t.Errorf("ValidateDefinition() = %q, wantMsg %v", msg, tt.wantMsg)
			}
		})
	}
}

func TestValidateSubmissionCollectsAllErrors(t *testing.T) {
	defs := []models.ResourceFieldDefinition{
		{FieldType: models.FieldText, FieldName: "slogan", IsRequired: true},
		{FieldType: models.FieldNumber, FieldName: "poster_count", IsRequired: true},
		{FieldType: models.FieldPhone, FieldName: "contact", IsRequired: true},
	}

	t.Run("one bad field keys exactly one error", func(t *testing.T) {
		toStore, errs := validateSubmission(defs, map[string]FieldInput{
			"slogan":       {Text: "Vote for progress"},
			"poster_count": {Text: "lots"},
			"contact":      {Text: "9876543210"},
		})
		if len(errs) != 1 {
			t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
		}
		if _, ok := errs["poster_count"]; !ok {
			t.Errorf("error map missing poster_count: %v", errs)
		}
		if len(toStore) != 2 {
			t.Errorf("got %d valid fields, want 2", len(toStore))
		}
	})

	t.Run("every bad field reported in one pass", func(t *testing.T) {
		_, errs := validateSubmission(defs, map[string]FieldInput{
			"poster_count": {Text: "lots"},
			"contact":      {Text: "123"},
		})
		for _, field := range []string{"slogan", "poster_count", "contact"} {
			if _, ok := errs[field]; !ok {
				t.Errorf("error map missing %s: %v", field, errs)
			}
		}
	})

	t.Run("unknown field names rejected", func(t *testing.T) {
		_, errs := validateSubmission(defs, map[string]FieldInput{
			"slogan":       {Text: "Vote for progress"},
			"poster_count": {Text: "40"},
			"contact":      {Text: "9876543210"},
			"surprise":     {Text: "x"},
		})
		if len(errs) != 1 {
			t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
		}
		if _, ok := errs["surprise"]; !ok {
			t.Errorf("error map missing surprise: %v", errs)
		}
	})

	t.Run("optional fields may be omitted", func(t *testing.T) {
		optional := []models.ResourceFieldDefinition{
			{FieldType: models.FieldText, FieldName: "slogan"},
			{FieldType: models.FieldText, FieldName: "notes"},
		}
		toStore, errs := validateSubmission(optional, map[string]FieldInput{
			"slogan": {Text: "Vote for progress"},
		})
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(toStore) != 1 {
			t.Errorf("got %d fields to store, want 1 (omitted optional must not persist)", len(toStore))
		}
	})
}
