package yamlsplice

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

func TestIdentityRoundTrip(t *testing.T) {
	docs := []string{
		"a: 1\nb: 2\n",
		"- a\n- b\n",
		"{YAML: YAML}",
		"# header\nkey: value  # inline\n",
		"a:\n  - x\n  - y\nb:\n  c: 1\n",
	}
	for _, doc := range docs {
		ed := mustNew(t, doc)
		if ed.String() != doc {
			t.Fatalf("identity round-trip changed the source:\n%s", unifiedDiff(doc, ed.String()))
		}
	}
}

func TestUpdateFlowMapDangerousApostrophe(t *testing.T) {
	ed := mustNew(t, "{YAML: YAML}")
	if err := ed.Update(Path{"YAML"}, "YAML Ain't Markup Language"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := `{YAML: "YAML Ain't Markup Language"}`
	if ed.String() != want {
		t.Fatalf("got %q, want %q", ed.String(), want)
	}
}

func TestRemoveMiddleElement(t *testing.T) {
	ed := mustNew(t, "- a\n- b\n- c\n")
	if err := ed.Remove(Path{1}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := ed.String(); got != "- a\n- c\n" {
		t.Fatalf("got %q", got)
	}
}

func TestRemoveFirstElement(t *testing.T) {
	ed := mustNew(t, "- a\n- b\n")
	if err := ed.Remove(Path{0}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := ed.String(); got != "- b\n" {
		t.Fatalf("got %q", got)
	}
}

func TestRemoveLastElementKeepsTrailingNewline(t *testing.T) {
	ed := mustNew(t, "- a\n- b\n")
	if err := ed.Remove(Path{1}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := ed.String(); got != "- a\n" {
		t.Fatalf("got %q", got)
	}
}

func TestAddKeyAlphabeticalAtEnd(t *testing.T) {
	ed := mustNew(t, "a: 1\nb: 2\n")
	if err := ed.Update(Path{"c"}, 3); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "a: 1\nb: 2\nc: 3\n" {
		t.Fatalf("got %q", got)
	}
}

func TestAddKeyAlphabeticalInMiddle(t *testing.T) {
	ed := mustNew(t, "a: 1\nc: 3\n")
	if err := ed.Update(Path{"b"}, 2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "a: 1\nb: 2\nc: 3\n" {
		t.Fatalf("got %q", got)
	}
}

func TestAddKeyUnorderedAppends(t *testing.T) {
	ed := mustNew(t, "b: 1\na: 2\n")
	if err := ed.Update(Path{"aa"}, 3); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "b: 1\na: 2\naa: 3\n" {
		t.Fatalf("got %q", got)
	}
}

func TestUpdateKeepsComments(t *testing.T) {
	ed := mustNew(t, "# header\nkey: value  # inline\n")
	if err := ed.Update(Path{"key"}, "other"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "# header\nkey: other  # inline\n" {
		t.Fatalf("got %q", got)
	}
}

func TestNestedListInsertAtHead(t *testing.T) {
	ed := mustNew(t, "- - x\n  - y\n")
	if err := ed.Insert(Path{0}, 0, "z"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := ed.String(); got != "- - z\n  - x\n  - y\n" {
		t.Fatalf("got %q", got)
	}
}

func TestStyleIdempotence(t *testing.T) {
	docs := []struct {
		src  string
		path Path
		val  any
	}{
		{"key: value\n", Path{"key"}, "value"},
		{"key: 'value'\n", Path{"key"}, "value"},
		{"key: \"value\"\n", Path{"key"}, "value"},
		{"n: 42\n", Path{"n"}, 42},
		{"- a\n- b\n", Path{1}, "b"},
	}
	for _, tc := range docs {
		ed := mustNew(t, tc.src)
		if err := ed.Update(tc.path, tc.val); err != nil {
			t.Fatalf("Update(%v): %v", tc.path, err)
		}
		if ed.String() != tc.src {
			t.Fatalf("same-value update changed %q to %q", tc.src, ed.String())
		}
		if len(ed.Edits()) != 0 {
			t.Fatalf("same-value update logged edits: %v", ed.Edits())
		}
	}
}

func TestLocalChange(t *testing.T) {
	src := "a: 1\nb: middle\nc: 3\n"
	ed := mustNew(t, src)
	if err := ed.Update(Path{"b"}, "changed"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	edits := ed.Edits()
	if len(edits) != 1 {
		t.Fatalf("expected one edit, got %d", len(edits))
	}
	e := edits[0]
	out := ed.String()
	if out[:e.Offset] != src[:e.Offset] {
		t.Fatalf("bytes before the splice changed")
	}
	if out[e.Offset+len(e.Replacement):] != src[e.Offset+e.Length:] {
		t.Fatalf("bytes after the splice changed")
	}
}

func TestRemoveOnlyElementBecomesFlowEmpty(t *testing.T) {
	ed := mustNew(t, "a:\n  - x\nb: 1\n")
	if err := ed.Remove(Path{"a", 0}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := ed.String(); got != "a:\n  []\nb: 1\n" {
		t.Fatalf("got %q", got)
	}
	assertValueAt(t, ed, Path{"a"}, []any{})
}

func TestRemoveOnlyMapEntryBecomesFlowEmpty(t *testing.T) {
	ed := mustNew(t, "a:\n  x: 1\nb: 2\n")
	if err := ed.Remove(Path{"a", "x"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := ed.String(); got != "a:\n  {}\nb: 2\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEmptyFlowListGrowsAndShrinks(t *testing.T) {
	ed := mustNew(t, "a: []\n")
	if err := ed.AppendTo(Path{"a"}, 1); err != nil {
		t.Fatalf("AppendTo: %v", err)
	}
	if got := ed.String(); got != "a: [1]\n" {
		t.Fatalf("after append, got %q", got)
	}
	if err := ed.Remove(Path{"a", 0}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := ed.String(); got != "a: []\n" {
		t.Fatalf("after remove, got %q", got)
	}
}

func TestFlowListOperations(t *testing.T) {
	ed := mustNew(t, "[a, b]\n")
	if err := ed.AppendTo(Path{}, "c"); err != nil {
		t.Fatalf("AppendTo: %v", err)
	}
	if got := ed.String(); got != "[a, b, c]\n" {
		t.Fatalf("after append, got %q", got)
	}
	if err := ed.Insert(Path{}, 0, "z"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := ed.String(); got != "[z, a, b, c]\n" {
		t.Fatalf("after insert, got %q", got)
	}
	if err := ed.Remove(Path{2}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := ed.String(); got != "[z, a, c]\n" {
		t.Fatalf("after remove, got %q", got)
	}
}

func TestFlowMapAddOrdered(t *testing.T) {
	ed := mustNew(t, "{a: 1, c: 3}\n")
	if err := ed.Update(Path{"b"}, 2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "{a: 1, b: 2, c: 3}\n" {
		t.Fatalf("got %q", got)
	}
}

func TestCRLFDocument(t *testing.T) {
	ed := mustNew(t, "a: 1\r\nb: 2\r\n")
	if err := ed.Update(Path{"c"}, 3); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "a: 1\r\nb: 2\r\nc: 3\r\n" {
		t.Fatalf("got %q", got)
	}
}

func TestNullMapValueUpdate(t *testing.T) {
	ed := mustNew(t, "a:\nb: 1\n")
	if err := ed.Update(Path{"a"}, 2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "a: 2\nb: 1\n" {
		t.Fatalf("got %q", got)
	}
}

func TestUpdateScalarToBlockCollection(t *testing.T) {
	ed := mustNew(t, "k: 1\n")
	if err := ed.Update(Path{"k"}, []any{1, 2}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "k:\n  - 1\n  - 2\n" {
		t.Fatalf("got %q", got)
	}
	assertValueAt(t, ed, Path{"k"}, []any{1, 2})
}

func TestUpdateBlockCollectionToScalar(t *testing.T) {
	ed := mustNew(t, "k:\n  - a\nz: 9\n")
	if err := ed.Update(Path{"k"}, "x"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "k: x\nz: 9\n" {
		t.Fatalf("got %q", got)
	}
}

func TestBlockListAppend(t *testing.T) {
	ed := mustNew(t, "- a\n- b\n")
	if err := ed.AppendTo(Path{}, "c"); err != nil {
		t.Fatalf("AppendTo: %v", err)
	}
	if got := ed.String(); got != "- a\n- b\n- c\n" {
		t.Fatalf("got %q", got)
	}
}

func TestBlockListAppendMidDocument(t *testing.T) {
	ed := mustNew(t, "k:\n  - a\nz: 9\n")
	if err := ed.AppendTo(Path{"k"}, "b"); err != nil {
		t.Fatalf("AppendTo: %v", err)
	}
	if got := ed.String(); got != "k:\n  - a\n  - b\nz: 9\n" {
		t.Fatalf("got %q", got)
	}
}

func TestBlockListAppendAfterInlineComment(t *testing.T) {
	ed := mustNew(t, "- a # x\n")
	if err := ed.AppendTo(Path{}, "b"); err != nil {
		t.Fatalf("AppendTo: %v", err)
	}
	if got := ed.String(); got != "- a # x\n- b\n" {
		t.Fatalf("got %q", got)
	}
}

func TestBlockListInsertMiddle(t *testing.T) {
	ed := mustNew(t, "k:\n  - a\n  - c\n")
	if err := ed.Insert(Path{"k"}, 1, "b"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := ed.String(); got != "k:\n  - a\n  - b\n  - c\n" {
		t.Fatalf("got %q", got)
	}
}

func TestPrependToRootList(t *testing.T) {
	ed := mustNew(t, "- a\n")
	if err := ed.PrependTo(Path{}, "z"); err != nil {
		t.Fatalf("PrependTo: %v", err)
	}
	if got := ed.String(); got != "- z\n- a\n" {
		t.Fatalf("got %q", got)
	}
}

func TestRemoveTakesTrailingCommentsAlong(t *testing.T) {
	ed := mustNew(t, "- a\n# belongs to a\n- b\n")
	if err := ed.Remove(Path{0}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := ed.String(); got != "- b\n" {
		t.Fatalf("got %q", got)
	}
}

func TestRemoveLastElementMidDocument(t *testing.T) {
	ed := mustNew(t, "k:\n  - a\n  - b\nz: 9\n")
	if err := ed.Remove(Path{"k", 1}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := ed.String(); got != "k:\n  - a\nz: 9\n" {
		t.Fatalf("got %q", got)
	}
}

func TestPreservesWideIndent(t *testing.T) {
	ed := mustNew(t, "resources:\n    # cpu comment\n    cpu: 100\n    # memory comment\n    memory: 256\n")
	if err := ed.Update(Path{"resources", "cpu"}, 150); err != nil {
		t.Fatalf("Update: %v", err)
	}
	out := ed.String()
	if !strings.Contains(out, "    cpu: 150") {
		t.Fatalf("expected 4-space indent preserved, got:\n%s", out)
	}
	if !strings.Contains(out, "# cpu comment") || !strings.Contains(out, "# memory comment") {
		t.Fatalf("expected comments preserved, got:\n%s", out)
	}
}

func TestWideIndentStepForNewCollections(t *testing.T) {
	ed := mustNew(t, "resources:\n    cpu: 100\n")
	if err := ed.Update(Path{"limits"}, map[string]any{"cpu": 200}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// "limits" sorts before "resources", and the detected 4-space step
	// carries into the new block.
	if got := ed.String(); got != "limits:\n    cpu: 200\nresources:\n    cpu: 100\n" {
		t.Fatalf("got %q", got)
	}
}

func TestAliasTraversalRejected(t *testing.T) {
	ed := mustNew(t, "a: &x\n  k: 1\nb: *x\n")
	var aliasErr *AliasError
	if _, err := ed.ParseAt(Path{"b"}); !errors.As(err, &aliasErr) {
		t.Fatalf("expected AliasError, got %v", err)
	}
	if _, err := ed.ParseAt(Path{"b", "k"}); !errors.As(err, &aliasErr) {
		t.Fatalf("expected AliasError for traversal through alias, got %v", err)
	}
}

func TestAliasReferenceCanBeReplaced(t *testing.T) {
	ed := mustNew(t, "a: &x 1\nb: *x\n")
	if err := ed.Update(Path{"b"}, 2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "a: &x 1\nb: 2\n" {
		t.Fatalf("got %q", got)
	}
}

func TestPostEditParseFailureRevertsState(t *testing.T) {
	src := "a: &x 1\nb: *x\n"
	ed := mustNew(t, src)
	// Replacing the anchored value drops the anchor and orphans the alias.
	err := ed.Update(Path{"a"}, 2)
	var parseErr *PostEditParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected PostEditParseError, got %v", err)
	}
	if ed.String() != src {
		t.Fatalf("state not reverted:\n%s", ed.String())
	}
	if len(ed.Edits()) != 0 {
		t.Fatalf("failed edit was logged")
	}
}

func TestPathErrors(t *testing.T) {
	ed := mustNew(t, "a:\n  - 1\n")
	var pathErr *PathError

	if _, err := ed.ParseAt(Path{"missing"}); !errors.As(err, &pathErr) {
		t.Fatalf("expected PathError for missing key, got %v", err)
	}
	if _, err := ed.ParseAt(Path{"a", 5}); !errors.As(err, &pathErr) {
		t.Fatalf("expected PathError for out-of-range index, got %v", err)
	}
	if _, err := ed.ParseAt(Path{"a", "k"}); !errors.As(err, &pathErr) {
		t.Fatalf("expected PathError for key into sequence, got %v", err)
	}
	if err := ed.Remove(Path{}); !errors.As(err, &pathErr) {
		t.Fatalf("expected PathError removing root, got %v", err)
	}
	if err := ed.Update(Path{"a", 0, "x"}, 1); !errors.As(err, &pathErr) {
		t.Fatalf("expected PathError descending into scalar, got %v", err)
	}
}

func TestInvalidScalarKeyRejected(t *testing.T) {
	ed := mustNew(t, "a: 1\n")
	var invErr *InvalidScalarError
	err := ed.Update(Path{"a"}, Map(MapEntry{Key: Seq(Int(1)), Val: Int(2)}))
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InvalidScalarError, got %v", err)
	}
}

func TestSplice(t *testing.T) {
	ed := mustNew(t, "- a\n- b\n- c\n")
	if err := ed.Splice(Path{}, 1, 1, "x", "y"); err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if got := ed.String(); got != "- a\n- x\n- y\n- c\n" {
		t.Fatalf("got %q", got)
	}
	if len(ed.Edits()) != 3 {
		t.Fatalf("expected 3 logged edits, got %d", len(ed.Edits()))
	}
	assertValueAt(t, ed, Path{}, []any{"a", "x", "y", "c"})
}

func TestDangerousScalarsGetQuoted(t *testing.T) {
	for _, s := range []string{"true", "null", "~", "- a", "a: b", "a #b", "3", "3.5", ""} {
		ed := mustNew(t, "k: x\n")
		if err := ed.Update(Path{"k"}, s); err != nil {
			t.Fatalf("Update(%q): %v", s, err)
		}
		assertValueAt(t, ed, Path{"k"}, s)
	}
}

func TestUnprintableForcesDoubleQuotes(t *testing.T) {
	ed := mustNew(t, "k: x\n")
	if err := ed.Update(Path{"k"}, "a\ab"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "k: \"a\\ab\"\n" {
		t.Fatalf("got %q", got)
	}
	assertValueAt(t, ed, Path{"k"}, "a\ab")
}

func TestLiteralStyleValue(t *testing.T) {
	ed := mustNew(t, "k: x\n")
	if err := ed.Update(Path{"k"}, Styled(String("a\nb"), StyleLiteral)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := ed.String(); got != "k: |-\n  a\n  b\n" {
		t.Fatalf("got %q", got)
	}
	assertValueAt(t, ed, Path{"k"}, "a\nb")
}

func TestMinimalDiffOnDeepUpdate(t *testing.T) {
	src := `service:
  envs:
    FEATURE_FLAG: 'true'
    SERVICE_URL: "https://example.internal"
  externalSecretEnvs:
    - name: Z_SECRET
      path: secrets/apps/prod
      property: z-val
    - name: A_SECRET
      path: secrets/apps/prod
      property: a-val
`
	ed := mustNew(t, src)
	if err := ed.Update(Path{"service", "externalSecretEnvs", 1, "property"}, "a-val-new"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	diff := unifiedDiff(src, ed.String())
	adds, removes := diffStats(diff)
	if adds > 1 || removes > 1 {
		t.Fatalf("expected single-line change, got %d additions / %d removals:\n%s", adds, removes, diff)
	}
	assertValueAt(t, ed, Path{"service", "externalSecretEnvs", 1, "property"}, "a-val-new")
}

// --- helpers for tests ---

func mustNew(t *testing.T, src string) *Editor {
	t.Helper()
	ed, err := New(src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ed
}

// assertValueAt re-parses the current source with yaml.v3 and deep-compares
// the value at path.
func assertValueAt(t *testing.T, ed *Editor, path Path, want any) {
	t.Helper()
	var doc any
	if err := yaml.Unmarshal([]byte(ed.String()), &doc); err != nil {
		t.Fatalf("re-parse: %v\n%s", err, ed.String())
	}
	got := doc
	for _, seg := range path {
		switch s := seg.(type) {
		case int:
			list, ok := got.([]any)
			if !ok || s >= len(list) {
				t.Fatalf("path %v not reachable in %v", path, doc)
			}
			got = list[s]
		default:
			m, ok := got.(map[string]any)
			if !ok {
				t.Fatalf("path %v not reachable in %v", path, doc)
			}
			got = m[seg.(string)]
		}
	}
	if want == nil && got == nil {
		return
	}
	if diff := cmp.Diff(normalizeNumbers(want), normalizeNumbers(got)); diff != "" {
		t.Fatalf("value at %v mismatch (-want +got):\n%s\nsource:\n%s", path, diff, ed.String())
	}
}

// normalizeNumbers widens ints so yaml.v3's int decoding compares cleanly
// against literal test values.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeNumbers(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeNumbers(e)
		}
		return out
	}
	return v
}

func unifiedDiff(before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

func diffStats(diff string) (adds, removes int) {
	for _, line := range strings.Split(diff, "\n") {
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case '+':
			if !strings.HasPrefix(line, "+++") {
				adds++
			}
		case '-':
			if !strings.HasPrefix(line, "---") {
				removes++
			}
		}
	}
	return
}
