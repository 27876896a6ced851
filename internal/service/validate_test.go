package service

import (
	"errors"
	"reflect"
	"testing"

	"imposter/internal/domain"
	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/models"
)

func eventSchema() models.FieldSchema {
	return models.FieldSchema{
		"title":    {Type: models.FieldText, Mandatory: true},
		"subtitle": {Type: models.FieldText},
		"photo":    {Type: models.FieldImage, Mandatory: true},
		"logo":     {Type: models.FieldImage, Static: true, ImageID: "stored-logo"},
		"speakers": {Type: models.FieldText, Children: models.FieldSchema{
			"first":  {},
			"second": {},
		}},
	}
}

func fieldErr(t *testing.T, err error) *domain.FieldError {
	t.Helper()
	var fe *domain.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *domain.FieldError", err)
	}
	return fe
}

func TestValidateFieldsCreateOK(t *testing.T) {
	candidate := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "Launch Party"}),
		"photo": fieldtree.Leaf(fieldtree.Params{"filename": "crowd.jpg", "data": "AAAA"}),
	}

	merged, err := ValidateFields(candidate, eventSchema(), nil)
	if err != nil {
		t.Fatalf("ValidateFields() error = %v", err)
	}
	if got := merged.Get("title").Params.String("text"); got != "Launch Party" {
		t.Errorf("merged title.text = %q", got)
	}
}

func TestValidateFieldsRejectsUnknownField(t *testing.T) {
	candidate := fieldtree.Tree{
		"title":  fieldtree.Leaf(fieldtree.Params{"text": "x"}),
		"photo":  fieldtree.Leaf(fieldtree.Params{"filename": "a.jpg", "data": "AAAA"}),
		"banner": fieldtree.Leaf(fieldtree.Params{"text": "y"}),
	}

	_, err := ValidateFields(candidate, eventSchema(), nil)
	fe := fieldErr(t, err)
	if fe.Kind != domain.FieldsNotAllowed {
		t.Errorf("Kind = %v, want FieldsNotAllowed", fe.Kind)
	}
	if !reflect.DeepEqual(fe.Names, []string{"banner"}) {
		t.Errorf("Names = %v, want [banner]", fe.Names)
	}
}

func TestValidateFieldsRejectsStaticField(t *testing.T) {
	// Static fields are baked into the template; submitting one is an
	// unknown-field error, same as a name outside the schema.
	candidate := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
		"photo": fieldtree.Leaf(fieldtree.Params{"filename": "a.jpg", "data": "AAAA"}),
		"logo":  fieldtree.Leaf(fieldtree.Params{"filename": "l.jpg", "data": "AAAA"}),
	}

	_, err := ValidateFields(candidate, eventSchema(), nil)
	fe := fieldErr(t, err)
	if fe.Kind != domain.FieldsNotAllowed {
		t.Errorf("Kind = %v, want FieldsNotAllowed", fe.Kind)
	}
	if !reflect.DeepEqual(fe.Names, []string{"logo"}) {
		t.Errorf("Names = %v, want [logo]", fe.Names)
	}
}

func TestValidateFieldsMissingMandatory(t *testing.T) {
	candidate := fieldtree.Tree{
		"subtitle": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
	}

	_, err := ValidateFields(candidate, eventSchema(), nil)
	fe := fieldErr(t, err)
	if fe.Kind != domain.MissingRequiredFields {
		t.Errorf("Kind = %v, want MissingRequiredFields", fe.Kind)
	}
	if !reflect.DeepEqual(fe.Names, []string{"photo", "title"}) {
		t.Errorf("Names = %v, want [photo title]", fe.Names)
	}
}

func TestValidateFieldsPriorSatisfiesMandatory(t *testing.T) {
	prior := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "Launch Party"}),
		"photo": fieldtree.Leaf(fieldtree.Params{"id": "img1", "url": "/media/img1.jpg"}),
	}
	candidate := fieldtree.Tree{
		"subtitle": fieldtree.Leaf(fieldtree.Params{"text": "Doors at 7"}),
	}

	merged, err := ValidateFields(candidate, eventSchema(), prior)
	if err != nil {
		t.Fatalf("ValidateFields() error = %v", err)
	}
	if got := merged.Get("title").Params.String("text"); got != "Launch Party" {
		t.Errorf("title lost in merge: %q", got)
	}
	if got := merged.Get("subtitle").Params.String("text"); got != "Doors at 7" {
		t.Errorf("subtitle = %q", got)
	}
}

func TestValidateFieldsRejectsForeignParam(t *testing.T) {
	candidate := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x", "filename": "oops.jpg"}),
		"photo": fieldtree.Leaf(fieldtree.Params{"filename": "a.jpg", "data": "AAAA"}),
	}

	_, err := ValidateFields(candidate, eventSchema(), nil)
	fe := fieldErr(t, err)
	if fe.Kind != domain.ParamsNotAllowed {
		t.Errorf("Kind = %v, want ParamsNotAllowed", fe.Kind)
	}
	if fe.Field != "title" {
		t.Errorf("Field = %q, want title", fe.Field)
	}
	if !reflect.DeepEqual(fe.Names, []string{"filename"}) {
		t.Errorf("Names = %v, want [filename]", fe.Names)
	}
}

func TestValidateFieldsMissingImageParams(t *testing.T) {
	candidate := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
		"photo": fieldtree.Leaf(fieldtree.Params{"filename": "a.jpg"}),
	}

	_, err := ValidateFields(candidate, eventSchema(), nil)
	fe := fieldErr(t, err)
	if fe.Kind != domain.MissingRequiredParams {
		t.Errorf("Kind = %v, want MissingRequiredParams", fe.Kind)
	}
	if fe.Field != "photo" {
		t.Errorf("Field = %q, want photo", fe.Field)
	}
	if !reflect.DeepEqual(fe.Names, []string{"data"}) {
		t.Errorf("Names = %v, want [data]", fe.Names)
	}
}

func TestValidateFieldsImageReferenceSkipsPayload(t *testing.T) {
	candidate := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
		"photo": fieldtree.Leaf(fieldtree.Params{"id": "img1"}),
	}

	if _, err := ValidateFields(candidate, eventSchema(), nil); err != nil {
		t.Fatalf("ValidateFields() error = %v", err)
	}
}

func TestValidateFieldsReplacementNeedsFilename(t *testing.T) {
	// A fresh payload over a stored reference is a replacement, not reuse:
	// the prior's nulled-out filename cannot stand in for the new file's.
	prior := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
		"photo": fieldtree.Leaf(fieldtree.Params{
			"id": "img1", "url": "/media/img1.jpg", "filename": nil, "data": nil,
		}),
	}
	candidate := fieldtree.Tree{
		"photo": fieldtree.Leaf(fieldtree.Params{"data": "AAAA"}),
	}

	_, err := ValidateFields(candidate, eventSchema(), prior)
	fe := fieldErr(t, err)
	if fe.Kind != domain.MissingRequiredParams {
		t.Errorf("Kind = %v, want MissingRequiredParams", fe.Kind)
	}
	if fe.Field != "photo" {
		t.Errorf("Field = %q, want photo", fe.Field)
	}
	if !reflect.DeepEqual(fe.Names, []string{"filename"}) {
		t.Errorf("Names = %v, want [filename]", fe.Names)
	}

	// With the filename supplied the replacement passes.
	candidate = fieldtree.Tree{
		"photo": fieldtree.Leaf(fieldtree.Params{"filename": "b.jpg", "data": "AAAA"}),
	}
	if _, err := ValidateFields(candidate, eventSchema(), prior); err != nil {
		t.Fatalf("ValidateFields() error = %v", err)
	}
}

func TestValidateFieldsNormalizedTreeRevalidates(t *testing.T) {
	// A stored tree round-trips: normalized image leaves carry id/url plus
	// nulled-out filename/data, and must pass as their own prior.
	stored := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
		"photo": fieldtree.Leaf(fieldtree.Params{
			"id": "img1", "url": "/media/img1.jpg", "filename": nil, "data": nil,
		}),
	}

	if _, err := ValidateFields(stored, eventSchema(), stored); err != nil {
		t.Fatalf("ValidateFields() error = %v", err)
	}
}

func TestValidateFieldsNestedInheritsType(t *testing.T) {
	candidate := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
		"photo": fieldtree.Leaf(fieldtree.Params{"id": "img1"}),
		"speakers": fieldtree.Group(fieldtree.Tree{
			"first": fieldtree.Leaf(fieldtree.Params{"text": "Ada"}),
		}),
	}

	if _, err := ValidateFields(candidate, eventSchema(), nil); err != nil {
		t.Fatalf("ValidateFields() error = %v", err)
	}

	// The inherited text type also constrains nested params.
	bad := fieldtree.Tree{
		"title": fieldtree.Leaf(fieldtree.Params{"text": "x"}),
		"photo": fieldtree.Leaf(fieldtree.Params{"id": "img1"}),
		"speakers": fieldtree.Group(fieldtree.Tree{
			"first": fieldtree.Leaf(fieldtree.Params{"filename": "a.jpg"}),
		}),
	}
	fe := fieldErr(t, mustErr(t, bad, eventSchema()))
	if fe.Kind != domain.ParamsNotAllowed {
		t.Errorf("Kind = %v, want ParamsNotAllowed", fe.Kind)
	}
	if fe.Field != "first" {
		t.Errorf("Field = %q, want first", fe.Field)
	}
}

func TestValidateFieldsEmptyCandidateNoMandatory(t *testing.T) {
	schema := models.FieldSchema{
		"note": {Type: models.FieldText},
	}
	if _, err := ValidateFields(fieldtree.Tree{}, schema, nil); err != nil {
		t.Fatalf("ValidateFields() error = %v", err)
	}
}

func mustErr(t *testing.T, candidate fieldtree.Tree, schema models.FieldSchema) error {
	t.Helper()
	_, err := ValidateFields(candidate, schema, nil)
	if err == nil {
		t.Fatal("ValidateFields() error = nil, want error")
	}
	return err
}
