package interpreters

import "testing"

func TestStandard(t *testing.T) {
	is := Standard()
	for _, name := range []string{"lisp", "elisp", "js", "goja", "ecmascript", "noop"} {
		if _, err := is.Find(name); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := is.Find("cobol"); err == nil {
		t.Fatal("found cobol")
	}
}
