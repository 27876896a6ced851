package fieldtree

import (
	"reflect"
	"testing"
)

func TestParamsKeysSkipsNulls(t *testing.T) {
	p := Params{"text": "hello", "data": nil, "id": "abc"}

	got := p.Keys()
	want := []string{"id", "text"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if p.Has("data") {
		t.Error("Has(data) = true for null param, want false")
	}
	if !p.Has("text") {
		t.Error("Has(text) = false, want true")
	}
}

func TestMergeCandidateWinsPerParam(t *testing.T) {
	prior := Tree{
		"title": Leaf(Params{"text": "old"}),
		"photo": Leaf(Params{"id": "img1", "url": "/media/img1.jpg"}),
	}
	candidate := Tree{
		"title": Leaf(Params{"text": "new"}),
	}

	merged := Merge(candidate, prior)

	if got := merged.Get("title").Params.String("text"); got != "new" {
		t.Errorf("title.text = %q, want %q", got, "new")
	}
	// Untouched fields survive the merge.
	if got := merged.Get("photo").Params.String("id"); got != "img1" {
		t.Errorf("photo.id = %q, want %q", got, "img1")
	}
}

func TestMergeNullOverwrites(t *testing.T) {
	prior := Tree{"photo": Leaf(Params{"id": "img1", "data": "AAAA"})}
	candidate := Tree{"photo": Leaf(Params{"data": nil})}

	merged := Merge(candidate, prior)

	leaf := merged.Get("photo").Params
	if leaf.Has("data") {
		t.Error("data should be nulled out by the candidate")
	}
	if !leaf.Has("id") {
		t.Error("id should survive the merge")
	}
}

func TestMergeShapeMismatchReplacesWholesale(t *testing.T) {
	prior := Tree{"block": Leaf(Params{"text": "flat"})}
	candidate := Tree{"block": Group(Tree{
		"line1": Leaf(Params{"text": "nested"}),
	})}

	merged := Merge(candidate, prior)

	node := merged.Get("block")
	if !node.IsGroup() {
		t.Fatal("block should be a group after the merge")
	}
	if got := node.Children.Get("line1").Params.String("text"); got != "nested" {
		t.Errorf("block.line1.text = %q, want %q", got, "nested")
	}
}

func TestMergeRecursesIntoGroups(t *testing.T) {
	prior := Tree{"speakers": Group(Tree{
		"first":  Leaf(Params{"text": "Ada"}),
		"second": Leaf(Params{"text": "Grace"}),
	})}
	candidate := Tree{"speakers": Group(Tree{
		"second": Leaf(Params{"text": "Edith"}),
	})}

	merged := Merge(candidate, prior)

	children := merged.Get("speakers").Children
	if got := children.Get("first").Params.String("text"); got != "Ada" {
		t.Errorf("speakers.first.text = %q, want %q", got, "Ada")
	}
	if got := children.Get("second").Params.String("text"); got != "Edith" {
		t.Errorf("speakers.second.text = %q, want %q", got, "Edith")
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	prior := Tree{"title": Leaf(Params{"text": "old"})}
	candidate := Tree{"title": Leaf(Params{"text": "new"})}

	merged := Merge(candidate, prior)
	merged.Get("title").Params["text"] = "mutated"

	if got := prior.Get("title").Params.String("text"); got != "old" {
		t.Errorf("prior mutated: title.text = %q", got)
	}
	if got := candidate.Get("title").Params.String("text"); got != "new" {
		t.Errorf("candidate mutated: title.text = %q", got)
	}
}

func TestParseAndDumpRoundTrip(t *testing.T) {
	in := []byte(`{
		"title": {"text": "Launch Party"},
		"speakers": {"children": {
			"first": {"text": "Ada"},
			"second": {"text": "Grace"}
		}}
	}`)

	tree, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tree.Get("title").IsGroup() {
		t.Error("title parsed as group, want leaf")
	}
	if !tree.Get("speakers").IsGroup() {
		t.Error("speakers parsed as leaf, want group")
	}

	out, err := Dump(tree)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Dump()) error = %v", err)
	}
	if !reflect.DeepEqual(tree, again) {
		t.Errorf("round trip mismatch:\nfirst  = %v\nsecond = %v", tree, again)
	}
}

func TestParseRejectsParamsBesideChildren(t *testing.T) {
	in := []byte(`{"block": {"children": {"a": {"text": "x"}}, "text": "y"}}`)
	if _, err := Parse(in); err == nil {
		t.Error("Parse() accepted a node mixing children with params")
	}
}
