package stringtable

import "testing"

const sstXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="5" uniqueCount="4">
  <si><t>Name</t></si>
  <si><t xml:space="preserve"> spaced </t></si>
  <si><r><rPr><b/></rPr><t>田中</t></r><r><t xml:space="preserve"> 太郎</t></r><rPh sb="0" eb="2"><t>タナカ</t></rPh></si>
  <si><t>line_x000D__x000A_break</t></si>
</sst>`

func TestNewFromBytes(t *testing.T) {
	st, err := NewFromBytes([]byte(sstXML))
	if err != nil {
		t.Fatal(err)
	}
	if st.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", st.Len())
	}
	want := []string{"Name", " spaced ", "田中 太郎", "line\r\nbreak"}
	for i, w := range want {
		got, ok := st.Get(i)
		if !ok || got != w {
			t.Errorf("Get(%d) = (%q, %v), want %q", i, got, ok, w)
		}
	}
	if _, ok := st.Get(4); ok {
		t.Error("Get(4) should be out of range")
	}
	if _, ok := st.Get(-1); ok {
		t.Error("Get(-1) should be out of range")
	}
}

func TestNewEmptyItem(t *testing.T) {
	st, err := NewFromBytes([]byte(`<sst><si><t/></si><si></si></sst>`))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if got, ok := st.Get(i); !ok || got != "" {
			t.Errorf("Get(%d) = (%q, %v), want empty", i, got, ok)
		}
	}
}

func TestNewMalformed(t *testing.T) {
	tests := map[string]string{
		"truncated": `<sst><si><t>abc`,
		"no root":   `<foo/>`,
		"not xml":   "\x00\x01binary",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewFromBytes([]byte(in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := map[string]string{
		"plain":         "plain",
		"a_x0009_b":     "a\tb",
		"_x005F_x0041_": "_x0041_",
		"_xZZZZ_":       "_xZZZZ_",
		"tail_x00":      "tail_x00",
	}
	for in, want := range tests {
		if got := Unescape(in); got != want {
			t.Errorf("Unescape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNilTable(t *testing.T) {
	var st *StringTable
	if st.Len() != 0 {
		t.Error("nil table should have length 0")
	}
	if _, ok := st.Get(0); ok {
		t.Error("nil table Get should fail")
	}
}
