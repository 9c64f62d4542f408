package selector

import "testing"

func TestClassifyTermChange(t *testing.T) {
	cases := []struct {
		oldTerm, newTerm string
		want             FilterChange
	}{
		{"re", "rep", FilterChangeMoreStrict},
		{"rep", "re", FilterChangeLessStrict},
		{"re", "ax", FilterChangeDifferent},
		{"", "re", FilterChangeMoreStrict},
		{"re", "", FilterChangeLessStrict},
		{"same", "same", FilterChangeLessStrict}, // prefix of itself
	}

	for _, c := range cases {
		got := classifyTermChange(c.oldTerm, c.newTerm)
		if got != c.want {
			t.Errorf("classifyTermChange(%q, %q) = %v, want %v",
				c.oldTerm, c.newTerm, got, c.want)
		}
	}
}

func TestNormalizeTerm(t *testing.T) {
	if got := normalizeTerm("  RePort "); got != "report" {
		t.Errorf("normalizeTerm: got %q, want %q", got, "report")
	}
}

func TestEntryFilterSearchTerm(t *testing.T) {
	f := entryFilter{term: "rep", showHidden: true}

	if !f.match(&Entry{Name: "Report.pdf"}) {
		t.Error("prefix match should be case-insensitive")
	}
	if f.match(&Entry{Name: "My Report.pdf"}) {
		t.Error("search is a prefix test, not substring")
	}
}

func TestEntryFilterHidden(t *testing.T) {
	hidden := &Entry{Name: ".bashrc"}

	if (entryFilter{}).match(hidden) {
		t.Error("dotfiles should be hidden by default")
	}
	if !(entryFilter{showHidden: true}).match(hidden) {
		t.Error("show-hidden should reveal dotfiles")
	}
}

func TestEntryFilterDirectoriesOnly(t *testing.T) {
	f := entryFilter{directoriesOnly: true}

	if f.match(&Entry{Name: "file.txt"}) {
		t.Error("files should be excluded in directories-only mode")
	}
	if !f.match(&Entry{Name: "folder", Dir: true}) {
		t.Error("directories should remain visible in directories-only mode")
	}
}

func TestTypeFilterMatches(t *testing.T) {
	tf := &TypeFilter{Name: "Images", MimeTypes: []string{"image/*", "application/pdf"}}

	if !tf.matches("image/png") {
		t.Error("image/* should match image/png")
	}
	if !tf.matches("application/pdf") {
		t.Error("exact type should match")
	}
	if tf.matches("text/plain") {
		t.Error("unrelated type should not match")
	}
	if tf.matches("imagex/png") {
		t.Error("glob must only match the media type, not a prefix of it")
	}
}

func TestTypeFilterDirectoryExemption(t *testing.T) {
	tf := &TypeFilter{Name: "Images", MimeTypes: []string{"image/*"}}
	real := tf.withDirectories()

	f := entryFilter{types: real}
	if !f.match(&Entry{Name: "folder", Dir: true, ContentType: dirContentType}) {
		t.Error("directories must stay visible under a type filter")
	}
	if f.match(&Entry{Name: "notes.txt", ContentType: "text/plain"}) {
		t.Error("non-matching files should be filtered out")
	}

	// The caller's filter must not gain the directory type.
	for _, mt := range tf.MimeTypes {
		if mt == dirContentType {
			t.Fatal("withDirectories mutated the original filter")
		}
	}
}
